package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_QuantityUnitPriceTotal(t *testing.T) {
	item, ok := parseLine("마늘 100 g 8,500 850,000")
	require.True(t, ok)

	assert.Equal(t, "마늘", item.Name)
	assert.Equal(t, 100.0, item.Quantity)
	assert.Equal(t, "g", item.Unit)
	// The observation price is the unit price, not the line total.
	assert.Equal(t, 8500.0, item.UnitPrice)
	assert.Equal(t, 850000.0, item.Total)
	assert.GreaterOrEqual(t, item.Confidence, 0.5)
}

func TestParseLine_PriceTimesQuantity(t *testing.T) {
	item, ok := parseLine("양파 3,200 x 10 = 32,000")
	require.True(t, ok)

	assert.Equal(t, "양파", item.Name)
	assert.Equal(t, 3200.0, item.UnitPrice)
	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, 32000.0, item.Total)
	assert.Empty(t, item.Unit)
}

func TestParseLine_ParenUnit(t *testing.T) {
	item, ok := parseLine("대파 (kg) 5 4,200")
	require.True(t, ok)

	assert.Equal(t, "대파", item.Name)
	assert.Equal(t, "kg", item.Unit)
	assert.Equal(t, 5.0, item.Quantity)
	assert.Equal(t, 4200.0, item.UnitPrice)
	assert.Equal(t, 21000.0, item.Total)
}

func TestParseLine_NoShapeMatches(t *testing.T) {
	for _, line := range []string{
		"합계",
		"주식회사 가락유통",
		"전화 02-1234-5678 팩스",
		"",
	} {
		_, ok := parseLine(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestLineConfidence_FullSignalCapsAtOne(t *testing.T) {
	line := "마늘 100 g 8,500 850,000"
	// Digits, Hangul, comma grouping, full span: 0.5+0.2+0.1+0.1+0.1 capped.
	assert.Equal(t, 1.0, lineConfidence(line, len([]rune(line))))
}

func TestLineConfidence_PartialSignals(t *testing.T) {
	// Digits only, no Hangul, no comma grouping, full span.
	line := "onion 5 kg 4200 21000"
	assert.InDelta(t, 0.8, lineConfidence(line, len([]rune(line))), 1e-9)

	// Short match span over a long noisy line loses the coverage bonus.
	assert.InDelta(t, 0.7, lineConfidence(line+" ###### trailing scanner noise ######", 10), 1e-9)
}

func TestParseLine_WeakSignalsLowerConfidence(t *testing.T) {
	// Parsing and validation are separate stages: a noisy line still
	// yields an item here, with the weaker signals priced into its
	// confidence score.
	item, ok := parseLine("onion 5 kg 4200 21000 ~~~ smudged remainder of the scanned row ~~~")
	require.True(t, ok)
	assert.Less(t, item.Confidence, 0.8)
}
