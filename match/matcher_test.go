package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodcost/pricefeed/market"
)

func candidates() []market.Ingredient {
	return []market.Ingredient{
		{ID: "ing_001", Name: "대파"},
		{ID: "ing_002", Name: "양파"},
		{ID: "ing_005", Name: "마늘"},
		{ID: "ing_010", Name: "olive oil"},
		{ID: "ing_011", Name: "sesame oil"},
	}
}

func TestBest_ExactMatch(t *testing.T) {
	got, ok := Best("마늘", candidates())
	require.True(t, ok)
	assert.Equal(t, "ing_005", got.ID)
}

func TestBest_ExactIsCaseInsensitiveAndTrimmed(t *testing.T) {
	got, ok := Best("  Olive Oil  ", candidates())
	require.True(t, ok)
	assert.Equal(t, "ing_010", got.ID)
}

func TestBest_Containment(t *testing.T) {
	// Candidate name contained in the raw listing title.
	got, ok := Best("국산 깐마늘 1kg", candidates())
	require.True(t, ok)
	assert.Equal(t, "ing_005", got.ID)

	// Raw name contained in the candidate name.
	got, ok = Best("sesame", candidates())
	require.True(t, ok)
	assert.Equal(t, "ing_011", got.ID)
}

func TestBest_KeywordOverlap(t *testing.T) {
	got, ok := Best("extra virgin oil olive", []market.Ingredient{
		{ID: "ing_010", Name: "olive oil"},
	})
	require.True(t, ok)
	assert.Equal(t, "ing_010", got.ID)
}

func TestBest_KeywordOverlap_SingleRawKeywordNeedsOne(t *testing.T) {
	// One raw keyword lowers the threshold to min(2, 1) = 1. "oils" is
	// not a substring of the candidate name, so only rule 3 can hit.
	got, ok := Best("oils", []market.Ingredient{
		{ID: "x", Name: "oil of olives"},
	})
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)
}

func TestBest_NoMatch(t *testing.T) {
	_, ok := Best("닭가슴살", candidates())
	assert.False(t, ok)

	_, ok = Best("", candidates())
	assert.False(t, ok)

	_, ok = Best("마늘", nil)
	assert.False(t, ok)
}

func TestBest_FirstSufficientWins(t *testing.T) {
	// Two candidates both contain the raw name; candidate order decides.
	got, ok := Best("oil", []market.Ingredient{
		{ID: "a", Name: "olive oil"},
		{ID: "b", Name: "sesame oil"},
	})
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestBest_NeverInventsRelations(t *testing.T) {
	// No exact, containment, or keyword relation: must never match.
	raws := []string{"beef brisket", "수입 바나나", "frozen shrimp 500g"}
	for _, raw := range raws {
		_, ok := Best(raw, candidates())
		assert.False(t, ok, "raw %q must not match", raw)
	}
}
