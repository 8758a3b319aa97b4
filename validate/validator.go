// Package validate is the acceptance filter applied to raw price
// observations before they reach the storage boundary. Rejected
// observations are dropped here; callers surface reject counts through
// their status trackers.
package validate

import "github.com/foodcost/pricefeed/market"

// Bounds applied on top of the universal rules, per source kind.
const (
	maxPlausiblePrice = 1_000_000
	maxAPIUnitLength  = 10
	minOCRConfidence  = 0.5
)

// Filter returns the accepted subset of obs for the given source kind,
// plus the number of rejects. Filtering is idempotent: running the
// accepted subset through again returns it unchanged.
//
// Universal rules: price > 0 and non-empty unit. Source-specific:
//   - api: price ≤ 1,000,000 and unit length ≤ 10
//   - document: OCR confidence ≥ 0.5
//   - web: 1 ≤ price ≤ 1,000,000 (guards rendering artifacts)
func Filter(obs []market.PriceObservation, source market.SourceKind) (accepted []market.PriceObservation, rejected int) {
	accepted = make([]market.PriceObservation, 0, len(obs))
	for _, o := range obs {
		if Accepts(o, source) {
			accepted = append(accepted, o)
		} else {
			rejected++
		}
	}
	return accepted, rejected
}

// Accepts reports whether a single observation passes the rules for the
// given source kind.
func Accepts(o market.PriceObservation, source market.SourceKind) bool {
	if o.Price <= 0 || o.Unit == "" {
		return false
	}

	switch source {
	case market.SourceAPI:
		if o.Price > maxPlausiblePrice {
			return false
		}
		if len([]rune(o.Unit)) > maxAPIUnitLength {
			return false
		}
	case market.SourceDocument:
		if o.Confidence < minOCRConfidence {
			return false
		}
	case market.SourceWeb:
		if o.Price < 1 || o.Price > maxPlausiblePrice {
			return false
		}
	}

	return true
}
