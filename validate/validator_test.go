package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foodcost/pricefeed/market"
)

func obs(price float64, unit string) market.PriceObservation {
	return market.PriceObservation{Price: price, Unit: unit, Confidence: 1.0}
}

func TestFilter_UniversalRules(t *testing.T) {
	bad := []market.PriceObservation{
		obs(0, "kg"),
		obs(-100, "kg"),
		obs(4200, ""),
	}
	for _, source := range []market.SourceKind{market.SourceWeb, market.SourceDocument, market.SourceAPI, market.SourceManual} {
		accepted, rejected := Filter(bad, source)
		assert.Empty(t, accepted, "source %s", source)
		assert.Equal(t, 3, rejected, "source %s", source)
	}
}

func TestFilter_APIRules(t *testing.T) {
	in := []market.PriceObservation{
		obs(4200, "kg"),           // ok
		obs(1_000_001, "kg"),      // over price cap
		obs(5000, "10kg 묶음 단위 포장"), // unit too long
	}
	accepted, rejected := Filter(in, market.SourceAPI)
	assert.Len(t, accepted, 1)
	assert.Equal(t, 2, rejected)
	assert.Equal(t, 4200.0, accepted[0].Price)
}

func TestFilter_DocumentConfidence(t *testing.T) {
	low := obs(8500, "g")
	low.Confidence = 0.4
	ok := obs(8500, "g")
	ok.Confidence = 0.5

	accepted, rejected := Filter([]market.PriceObservation{low, ok}, market.SourceDocument)
	assert.Len(t, accepted, 1)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0.5, accepted[0].Confidence)
}

func TestFilter_WebPriceBand(t *testing.T) {
	in := []market.PriceObservation{
		obs(0.5, "kg"), // sub-1 rendering artifact
		obs(1, "kg"),
		obs(1_000_000, "kg"),
		obs(2_000_000, "kg"),
	}
	accepted, rejected := Filter(in, market.SourceWeb)
	assert.Len(t, accepted, 2)
	assert.Equal(t, 2, rejected)
}

func TestFilter_Idempotent(t *testing.T) {
	in := []market.PriceObservation{
		obs(4200, "kg"),
		obs(-1, "kg"),
		obs(8500, "g"),
	}
	first, _ := Filter(in, market.SourceAPI)
	second, rejected := Filter(first, market.SourceAPI)
	assert.Equal(t, first, second)
	assert.Zero(t, rejected)
}

func TestFilter_EmptyInput(t *testing.T) {
	accepted, rejected := Filter(nil, market.SourceWeb)
	assert.Empty(t, accepted)
	assert.Zero(t, rejected)
}
