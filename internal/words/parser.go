// Package words loads the word-group file, syncs it to storage and feeds the
// filter engine. The file format groups lines between blank lines; the first
// rune of a line decides the word kind:
//
//	+word   required (all must be present)
//	!word   filter (any present kills the match)
//	@N      max display count for the group (last one wins, 0 = unlimited)
//	word    normal (any one present matches)
package words

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// Parse reads the word-group mini-language. Groups without words are
// skipped; duplicate words keep their first position; the group key is the
// normal words joined by spaces, falling back to the required words.
func Parse(r io.Reader) ([]models.WordGroupConfig, error) {
	var (
		groups  []models.WordGroupConfig
		current models.WordGroupConfig
		line    int
	)

	flush := func() {
		if current.WordCount() == 0 {
			current = models.WordGroupConfig{}
			return
		}
		if key := strings.Join(current.Normal, " "); key != "" {
			current.GroupKey = key
		} else {
			current.GroupKey = strings.Join(current.Required, " ")
		}
		current.Position = len(groups)
		groups = append(groups, current)
		current = models.WordGroupConfig{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			flush()
			continue
		}

		switch {
		case strings.HasPrefix(text, "+"):
			if word := strings.TrimSpace(text[1:]); word != "" {
				current.Required = appendWord(current.Required, word)
			}
		case strings.HasPrefix(text, "!"):
			if word := strings.TrimSpace(text[1:]); word != "" {
				current.Filter = appendWord(current.Filter, word)
			}
		case strings.HasPrefix(text, "@"):
			count, err := strconv.Atoi(strings.TrimSpace(text[1:]))
			if err != nil || count < 0 {
				return nil, fmt.Errorf("failed to parse max display count at line %d: %q", line, text)
			}
			current.MaxDisplayCount = count
		default:
			current.Normal = appendWord(current.Normal, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}
	flush()

	return groups, nil
}

// appendWord adds word unless the list already carries it
func appendWord(list []string, word string) []string {
	for _, w := range list {
		if w == word {
			return list
		}
	}
	return append(list, word)
}
