package filter_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/filter"
	"github.com/jonesrussell/trendwatch/internal/models"
)

func newGroup(key string, position int, required, normal, filterWords []string) models.WordGroup {
	g := models.WordGroup{
		ID:       uuid.New(),
		GroupKey: key,
		Position: position,
		IsActive: true,
	}
	appendWords := func(words []string, kind models.WordKind) {
		for _, w := range words {
			g.Words = append(g.Words, models.GroupWord{GroupID: g.ID, Word: w, Kind: kind})
		}
	}
	appendWords(required, models.WordKindRequired)
	appendWords(normal, models.WordKindNormal)
	appendWords(filterWords, models.WordKindFilter)
	return g
}

func TestEngineMatching(t *testing.T) {
	phones := newGroup("华为 小米", 0, []string{"手机"}, []string{"华为", "小米"}, []string{"广告"})
	engine := filter.NewEngine([]models.WordGroup{phones}, nil)

	testCases := []struct {
		name      string
		title     string
		wantMatch bool
	}{
		{
			name:      "normal and required words present",
			title:     "华为手机正式发布",
			wantMatch: true,
		},
		{
			name:      "required word missing",
			title:     "小米汽车上市",
			wantMatch: false,
		},
		{
			name:      "filter word wins over everything",
			title:     "华为手机广告投放翻车",
			wantMatch: false,
		},
		{
			name:      "no normal word present",
			title:     "苹果手机销量下滑",
			wantMatch: false,
		},
		{
			name:      "empty title matches nothing",
			title:     "",
			wantMatch: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results := engine.Evaluate(tc.title)
			assert.Equal(t, tc.wantMatch, results[phones.ID])

			matched := engine.MatchingGroups(tc.title)
			if tc.wantMatch {
				assert.Equal(t, []uuid.UUID{phones.ID}, matched)
			} else {
				assert.Empty(t, matched)
			}
		})
	}
}

func TestEngineEvaluateIsStable(t *testing.T) {
	phones := newGroup("华为", 0, []string{"手机"}, []string{"华为"}, []string{"广告"})
	engine := filter.NewEngine([]models.WordGroup{phones}, nil)

	title := "华为手机销量登顶"
	first := engine.Evaluate(title)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Evaluate(title), "evaluation must not depend on prior calls")
	}
}

func TestEngineRequiredOnlyGroup(t *testing.T) {
	tariffs := newGroup("特朗普 关税", 0, []string{"特朗普", "关税"}, nil, nil)
	engine := filter.NewEngine([]models.WordGroup{tariffs}, nil)

	assert.True(t, engine.Evaluate("特朗普宣布新关税政策")[tariffs.ID],
		"all required words present matches without normal words")
	assert.False(t, engine.Evaluate("特朗普访问日本")[tariffs.ID],
		"one required word missing")
}

func TestEngineUnmatchableGroups(t *testing.T) {
	empty := newGroup("empty", 0, nil, nil, nil)
	filterOnly := newGroup("filter-only", 1, nil, nil, []string{"广告"})
	engine := filter.NewEngine([]models.WordGroup{empty, filterOnly}, nil)

	results := engine.Evaluate("任何标题都不该命中")
	assert.False(t, results[empty.ID])
	assert.False(t, results[filterOnly.ID])
}

func TestEngineCaseInsensitive(t *testing.T) {
	ai := newGroup("OpenAI", 0, nil, []string{"OpenAI", "apple"}, nil)
	engine := filter.NewEngine([]models.WordGroup{ai}, nil)

	assert.True(t, engine.Evaluate("openai发布新模型")[ai.ID])
	assert.True(t, engine.Evaluate("Apple Vision Pro开售")[ai.ID])
	assert.True(t, engine.Evaluate("OPENAI CEO访华")[ai.ID])
}

func TestEngineSubstringInsideLongerTitle(t *testing.T) {
	trump := newGroup("特朗普", 0, nil, []string{"特朗普"}, nil)
	engine := filter.NewEngine([]models.WordGroup{trump}, nil)

	assert.True(t, engine.Evaluate("美国前总统特朗普发表长篇讲话")[trump.ID])
}

func TestEngineSharedWordAcrossGroups(t *testing.T) {
	phones := newGroup("华为手机", 0, []string{"手机"}, []string{"华为"}, nil)
	cars := newGroup("华为汽车", 1, []string{"汽车"}, []string{"华为"}, nil)
	engine := filter.NewEngine([]models.WordGroup{phones, cars}, nil)

	matched := engine.MatchingGroups("华为手机销量第一")
	assert.Equal(t, []uuid.UUID{phones.ID}, matched)

	matched = engine.MatchingGroups("华为汽车手机双线发力")
	assert.Equal(t, []uuid.UUID{phones.ID, cars.ID}, matched,
		"a headline may match several groups")
}

func TestEngineMatchingGroupsPositionOrder(t *testing.T) {
	second := newGroup("比亚迪", 2, nil, []string{"比亚迪"}, nil)
	first := newGroup("华为", 0, nil, []string{"华为"}, nil)
	engine := filter.NewEngine([]models.WordGroup{second, first}, nil)

	matched := engine.MatchingGroups("华为与比亚迪达成合作")
	require.Len(t, matched, 2)
	assert.Equal(t, first.ID, matched[0], "position order, not insertion order")
	assert.Equal(t, second.ID, matched[1])
}

func TestEngineNoGroups(t *testing.T) {
	engine := filter.NewEngine(nil, nil)

	assert.Empty(t, engine.Evaluate("特朗普宣布新关税政策"))
	assert.Empty(t, engine.MatchingGroups("特朗普宣布新关税政策"))
	assert.Equal(t, 0, engine.GroupCount())
	assert.Equal(t, 0, engine.WordCount())
}

func TestEngineUpdateGroups(t *testing.T) {
	old := newGroup("华为", 0, nil, []string{"华为"}, nil)
	engine := filter.NewEngine([]models.WordGroup{old}, nil)
	require.True(t, engine.Evaluate("华为发布新品")[old.ID])

	updated := newGroup("比亚迪", 0, nil, []string{"比亚迪"}, nil)
	engine.UpdateGroups([]models.WordGroup{updated})

	assert.Empty(t, engine.MatchingGroups("华为发布新品"))
	assert.True(t, engine.Evaluate("比亚迪出海提速")[updated.ID])
	assert.Equal(t, 1, engine.GroupCount())

	groups := engine.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "比亚迪", groups[0].GroupKey)
}

func TestEngineConcurrentEvaluateAndUpdate(t *testing.T) {
	group := newGroup("华为", 0, nil, []string{"华为"}, nil)
	engine := filter.NewEngine([]models.WordGroup{group}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				engine.Evaluate("华为手机与比亚迪汽车")
				engine.MatchingGroups("华为手机与比亚迪汽车")
			}
		}()
	}
	for i := 0; i < 50; i++ {
		engine.UpdateGroups([]models.WordGroup{newGroup("比亚迪", 0, nil, []string{"比亚迪"}, nil)})
		engine.UpdateGroups([]models.WordGroup{group})
	}
	wg.Wait()

	assert.True(t, engine.Evaluate("华为手机与比亚迪汽车")[group.ID])
}
