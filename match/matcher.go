// Package match resolves free-text item names from external sources to
// known ingredients. All collectors share this resolution path.
//
// The matcher is pure: no side effects, no shared state, safe to call
// from any number of collectors concurrently.
package match

import (
	"strings"

	"github.com/foodcost/pricefeed/market"
)

// Best returns the single best ingredient match for a raw item name, or
// false when nothing matches. Rules are tried in order, first hit wins:
//
//  1. Case-insensitive exact equality of trimmed names.
//  2. Containment in either direction.
//  3. Keyword overlap: at least min(2, raw keyword count) candidate
//     keywords relate to some raw keyword by containment.
//
// Ties break by candidate order, so callers should pass a stable,
// pre-sorted candidate list if determinism matters.
func Best(rawName string, candidates []market.Ingredient) (market.Ingredient, bool) {
	raw := strings.ToLower(strings.TrimSpace(rawName))
	if raw == "" {
		return market.Ingredient{}, false
	}

	for _, c := range candidates {
		if strings.ToLower(strings.TrimSpace(c.Name)) == raw {
			return c, true
		}
	}

	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		if strings.Contains(raw, name) || strings.Contains(name, raw) {
			return c, true
		}
	}

	rawWords := strings.Fields(raw)
	if len(rawWords) == 0 {
		return market.Ingredient{}, false
	}
	need := len(rawWords)
	if need > 2 {
		need = 2
	}
	for _, c := range candidates {
		if keywordOverlap(rawWords, strings.Fields(strings.ToLower(c.Name))) >= need {
			return c, true
		}
	}

	return market.Ingredient{}, false
}

// keywordOverlap counts candidate keywords that are substrings of, or
// contain, some raw keyword.
func keywordOverlap(rawWords, candWords []string) int {
	count := 0
	for _, cw := range candWords {
		for _, rw := range rawWords {
			if strings.Contains(rw, cw) || strings.Contains(cw, rw) {
				count++
				break
			}
		}
	}
	return count
}
