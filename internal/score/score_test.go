package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bewerbungsagent/internal/scraper"
)

func testProfile() Profile {
	return Profile{
		Positives: []string{"data engineer", "engineer", "entwickler"},
		Negatives: []string{"senior", "praktikum"},
		Locations: []string{"Zürich", "Bern"},
	}
}

func TestTitleScore(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantScore int
		wantMatch string
	}{
		{"two positives", "Data Engineer", 20, MatchExact},
		{"one positive", "Backend Entwickler", 10, MatchGood},
		{"positive plus negative", "Senior Data Engineer", 0, MatchWeak},
		{"nothing", "Gärtner", 0, MatchWeak},
		{"only negative", "Praktikum Marketing", -20, MatchWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotScore, gotMatch := TitleScore(tt.title, testProfile())
			assert.Equal(t, tt.wantScore, gotScore)
			assert.Equal(t, tt.wantMatch, gotMatch)
		})
	}
}

func TestComputeFit(t *testing.T) {
	assert.Equal(t, "OK", ComputeFit(MatchExact, 20, 10))
	assert.Equal(t, "OK", ComputeFit(MatchGood, 10, 10))
	assert.Equal(t, "DECISION", ComputeFit(MatchGood, 5, 10))
	assert.Equal(t, "DECISION", ComputeFit(MatchWeak, 50, 10))
}

func TestLocationBoost(t *testing.T) {
	assert.Equal(t, 1, LocationBoost("8000 Zürich", []string{"Zürich"}))
	assert.Equal(t, 1, LocationBoost("Zuerich Oerlikon", []string{"Zürich"}), "umlaut spelling matches")
	assert.Equal(t, 0, LocationBoost("Genève", []string{"Zürich"}))
	assert.Equal(t, 0, LocationBoost("", []string{"Zürich"}))
}

func TestBlockedAndRequiredKeywords(t *testing.T) {
	posting := scraper.Posting{Title: "Lead Data Engineer Festanstellung", Location: "Zug"}

	assert.True(t, HasBlockedKeywords(posting, []string{"lead"}))
	assert.True(t, HasBlockedKeywords(posting, []string{"data festanstellung"}), "multi-word terms match in order")
	assert.False(t, HasBlockedKeywords(posting, []string{"praktikum"}))

	assert.True(t, HasRequiredKeywords(posting, []string{"engineer"}))
	assert.False(t, HasRequiredKeywords(posting, []string{"golang"}))
	assert.True(t, HasRequiredKeywords(scraper.Posting{Title: "ML Engineer"}, []string{"ml"}), "short terms match whole tokens")
	assert.False(t, HasRequiredKeywords(scraper.Posting{Title: "HTML Developer"}, []string{"ml"}))
}

func TestParseCommuteMap(t *testing.T) {
	entries := ParseCommuteMap("Zürich=45, Winterthur: 60-75, kaputt, Basel")
	require.Len(t, entries, 2)

	// Longest key first.
	assert.Equal(t, "winterthur", entries[0].Key)
	assert.Equal(t, 75, entries[0].Minutes, "largest number wins")
	assert.Equal(t, "zuerich", entries[1].Key)
	assert.Equal(t, 45, entries[1].Minutes)
}

func TestCommuteMinutes(t *testing.T) {
	entries := ParseCommuteMap("Zürich=45")

	minutes := CommuteMinutes(scraper.Posting{Location: "8004 Zürich"}, entries)
	require.NotNil(t, minutes)
	assert.Equal(t, 45, *minutes)

	assert.Nil(t, CommuteMinutes(scraper.Posting{Location: "Lausanne"}, entries))
	assert.Nil(t, CommuteMinutes(scraper.Posting{Location: "Zürich"}, nil))
}
