package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector map keys for the htmllist adapter.
const (
	selectorList  = "list"  // optional container to scope the item search
	selectorItem  = "item"  // required; one match per trending entry
	selectorTitle = "title" // optional; defaults to the item's own text
	selectorLink  = "link"  // optional; defaults to the first anchor
)

// htmlListFetcher scrapes a trending list straight out of an HTML page using
// configured CSS selectors. Document order is list order, so an entry's rank
// is its match position plus one; entries whose title selector matches
// nothing are dropped as page noise without shifting later ranks.
type htmlListFetcher struct {
	client    *http.Client
	userAgent string
	list      string
	item      string
	title     string
	link      string
}

func newHTMLListFetcher(client *http.Client, userAgent string, selectors map[string]string) (*htmlListFetcher, error) {
	if selectors[selectorItem] == "" {
		return nil, fmt.Errorf("htmllist adapter requires an %q selector", selectorItem)
	}
	link := selectors[selectorLink]
	if link == "" {
		link = "a"
	}
	return &htmlListFetcher{
		client:    client,
		userAgent: userAgent,
		list:      selectors[selectorList],
		item:      selectors[selectorItem],
		title:     selectors[selectorTitle],
		link:      link,
	}, nil
}

func (f *htmlListFetcher) Fetch(ctx context.Context, endpoint string) ([]Item, error) {
	body, err := fetchBody(ctx, f.client, endpoint, f.userAgent)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", endpoint, err)
	}

	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
	}

	scope := doc.Selection
	if f.list != "" {
		scope = doc.Find(f.list)
	}

	var items []Item
	scope.Find(f.item).Each(func(i int, sel *goquery.Selection) {
		title := sel.Text()
		if f.title != "" {
			title = sel.Find(f.title).First().Text()
		}
		title = strings.TrimSpace(title)
		if title == "" {
			return
		}

		link := ""
		if href, ok := sel.Find(f.link).First().Attr("href"); ok {
			link = resolveLink(base, href)
		}

		items = append(items, Item{
			Title: title,
			URL:   link,
			Rank:  i + 1,
		})
	})
	return items, nil
}

// resolveLink makes a scraped href absolute against the page URL
func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
