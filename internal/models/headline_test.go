package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/models"
)

func TestNormalizeTitle(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already normalized",
			input:    "breaking news",
			expected: "breaking news",
		},
		{
			name:     "surrounding whitespace",
			input:    "  breaking news \t",
			expected: "breaking news",
		},
		{
			name:     "internal runs collapsed",
			input:    "breaking \t\t news   today",
			expected: "breaking news today",
		},
		{
			name:     "ideographic space treated as whitespace",
			input:    "特朗普　关税",
			expected: "特朗普 关税",
		},
		{
			name:     "case preserved",
			input:    "OpenAI  Announcement",
			expected: "OpenAI Announcement",
		},
		{
			name:     "whitespace only becomes empty",
			input:    " \t\n ",
			expected: "",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, models.NormalizeTitle(tc.input))
		})
	}
}

func TestObservationValidate(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name        string
		observation models.Observation
		wantErr     bool
	}{
		{
			name: "valid observation",
			observation: models.Observation{
				Title:      "量子计算新突破",
				URL:        "https://example.com/a",
				Rank:       3,
				ObservedAt: now,
			},
			wantErr: false,
		},
		{
			name: "zero rank",
			observation: models.Observation{
				Title:      "no rank here",
				ObservedAt: now,
			},
			wantErr: true,
		},
		{
			name: "empty title",
			observation: models.Observation{
				Title:      "",
				Rank:       1,
				ObservedAt: now,
			},
			wantErr: true,
		},
		{
			name: "whitespace only title",
			observation: models.Observation{
				Title:      "  \t ",
				Rank:       1,
				ObservedAt: now,
			},
			wantErr: true,
		},
		{
			name: "negative rank",
			observation: models.Observation{
				Title:      "valid title",
				Rank:       -1,
				ObservedAt: now,
			},
			wantErr: true,
		},
		{
			name: "zero observation time",
			observation: models.Observation{
				Title: "valid title",
				Rank:  1,
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.observation.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrMalformedObservation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseReportMode(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected models.ReportMode
		wantErr  bool
	}{
		{name: "daily", input: "daily", expected: models.ModeDaily},
		{name: "incremental", input: "incremental", expected: models.ModeIncremental},
		{name: "current", input: "current", expected: models.ModeCurrent},
		{name: "unknown mode", input: "weekly", wantErr: true},
		{name: "empty mode", input: "", wantErr: true},
		{name: "case sensitive", input: "Daily", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := models.ParseReportMode(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, mode)
		})
	}
}

func TestWordGroupWordsOfKind(t *testing.T) {
	group := models.WordGroup{
		GroupKey: "ai",
		Words: []models.GroupWord{
			{Word: "AI", Kind: models.WordKindNormal},
			{Word: "人工智能", Kind: models.WordKindNormal},
			{Word: "发布", Kind: models.WordKindRequired},
			{Word: "广告", Kind: models.WordKindFilter},
		},
	}

	assert.Equal(t, []string{"AI", "人工智能"}, group.WordsOfKind(models.WordKindNormal))
	assert.Equal(t, []string{"发布"}, group.WordsOfKind(models.WordKindRequired))
	assert.Equal(t, []string{"广告"}, group.WordsOfKind(models.WordKindFilter))
	assert.Nil(t, group.WordsOfKind(models.WordKind("other")))
}

func TestReportHelpers(t *testing.T) {
	empty := models.Report{
		Mode:    models.ModeDaily,
		ByGroup: []models.GroupSection{{GroupKey: "ai"}},
	}
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.HeadlineIDs())

	id1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	id2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	populated := models.Report{
		Mode: models.ModeCurrent,
		BySource: map[string][]models.ReportHeadline{
			"微博热搜":        {{ID: id2}},
			"Hacker News": {{ID: id1}},
		},
		TotalHeadlines: 2,
	}
	assert.False(t, populated.IsEmpty())

	// Sorted regardless of map iteration order, so equal content always
	// hashes the same.
	assert.Equal(t, []uuid.UUID{id1, id2}, populated.HeadlineIDs())
}
