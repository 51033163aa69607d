package words_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/words"
)

func TestParse(t *testing.T) {
	input := `华为
小米
+手机
!广告
@5

+特朗普
+关税

比亚迪
@3
@10
`

	groups, err := words.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 3)

	first := groups[0]
	assert.Equal(t, "华为 小米", first.GroupKey, "normal words joined by spaces")
	assert.Equal(t, []string{"华为", "小米"}, first.Normal)
	assert.Equal(t, []string{"手机"}, first.Required)
	assert.Equal(t, []string{"广告"}, first.Filter)
	assert.Equal(t, 5, first.MaxDisplayCount)
	assert.Equal(t, 0, first.Position)

	second := groups[1]
	assert.Equal(t, "特朗普 关税", second.GroupKey, "required words when no normal words")
	assert.Empty(t, second.Normal)
	assert.Equal(t, []string{"特朗普", "关税"}, second.Required)
	assert.Equal(t, 0, second.MaxDisplayCount, "unlimited by default")
	assert.Equal(t, 1, second.Position)

	third := groups[2]
	assert.Equal(t, "比亚迪", third.GroupKey)
	assert.Equal(t, 10, third.MaxDisplayCount, "last @N wins")
	assert.Equal(t, 2, third.Position)
}

func TestParseDeduplicatesPreservingOrder(t *testing.T) {
	input := "小米\n华为\n小米\n华为\n"

	groups, err := words.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"小米", "华为"}, groups[0].Normal)
	assert.Equal(t, "小米 华为", groups[0].GroupKey)
}

func TestParseSkipsEmptyGroups(t *testing.T) {
	input := "\n\n@5\n\n华为\n"

	groups, err := words.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 1, "a group with only @N carries no words")
	assert.Equal(t, "华为", groups[0].GroupKey)
	assert.Equal(t, 0, groups[0].Position)
}

func TestParseTrimsAndIgnoresBarePrefixes(t *testing.T) {
	input := "  华为  \n+\n!\n"

	groups, err := words.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"华为"}, groups[0].Normal)
	assert.Empty(t, groups[0].Required)
	assert.Empty(t, groups[0].Filter)
}

func TestParseEmptyInput(t *testing.T) {
	groups, err := words.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestParseRejectsBadMaxDisplayCount(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "not a number", input: "华为\n@abc\n"},
		{name: "negative", input: "华为\n@-1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := words.Parse(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "max display count")
		})
	}
}

func TestParseGroupWithoutTrailingNewline(t *testing.T) {
	groups, err := words.Parse(strings.NewReader("华为\n小米"))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"华为", "小米"}, groups[0].Normal)
}

func TestParseConfigShape(t *testing.T) {
	groups, err := words.Parse(strings.NewReader("+手机\n华为\n"))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].WordCount())
}
