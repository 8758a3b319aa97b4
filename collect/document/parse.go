package document

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// lineItem is one parsed invoice line. Price consumers read UnitPrice;
// Total is retained for provenance notes only.
type lineItem struct {
	Name       string
	Quantity   float64
	Unit       string
	UnitPrice  float64
	Total      float64
	Confidence float64
}

// Ordered line-item shapes. The first pattern that matches a line wins;
// a line matching none is skipped. Patterns are anchored at the start
// only so trailing OCR junk lowers span coverage instead of killing the
// match.
//
//	1: name quantity unit unit-price total   ("마늘 100 g 8,500 850,000")
//	2: name unit-price x quantity = total    ("양파 3,200 x 10 = 32,000")
//	3: name (unit) quantity price            ("대파 (kg) 5 4,200")
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s+(\d[\d,]*)\s*(kg|g|L|l|ml|리터|개|봉|팩|박스|포|단|통|캔)\s+(\d[\d,]*)\s+(\d[\d,]*)`),
	regexp.MustCompile(`^(.+?)\s+(\d[\d,]*)\s*[xX×*]\s*(\d[\d,]*)\s*=?\s*(\d[\d,]*)`),
	regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*(\d[\d,]*)\s+(\d[\d,]*)`),
}

// parseLine tries each line-item shape in order against one trimmed,
// non-blank OCR line. Returns false when no shape matches.
func parseLine(line string) (lineItem, bool) {
	for i, pat := range linePatterns {
		m := pat.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var item lineItem
		switch i {
		case 0:
			item = lineItem{
				Name:      strings.TrimSpace(m[1]),
				Quantity:  parseNumber(m[2]),
				Unit:      m[3],
				UnitPrice: parseNumber(m[4]),
				Total:     parseNumber(m[5]),
			}
		case 1:
			item = lineItem{
				Name:      strings.TrimSpace(m[1]),
				UnitPrice: parseNumber(m[2]),
				Quantity:  parseNumber(m[3]),
				Total:     parseNumber(m[4]),
			}
		case 2:
			item = lineItem{
				Name:      strings.TrimSpace(m[1]),
				Unit:      strings.TrimSpace(m[2]),
				Quantity:  parseNumber(m[3]),
				UnitPrice: parseNumber(m[4]),
				Total:     parseNumber(m[3]) * parseNumber(m[4]),
			}
		}

		if item.Name == "" || item.UnitPrice <= 0 {
			return lineItem{}, false
		}

		item.Confidence = lineConfidence(line, len([]rune(m[0])))
		return item, true
	}

	return lineItem{}, false
}

// lineConfidence is the heuristic extraction-confidence score the
// validator filters document observations on. Kept as a named function
// so the formula can be swapped without touching line-parsing control
// flow. The score starts at a 0.5 base and adds:
//
//	+0.2 when the line contains digits
//	+0.1 when the line contains Hangul
//	+0.1 when the line contains a comma-grouped number ("8,500")
//	+0.1 when the match spans at least 80% of the line
//
// capped at 1.0.
func lineConfidence(line string, matchSpan int) float64 {
	score := 0.5

	if strings.ContainsFunc(line, unicode.IsDigit) {
		score += 0.2
	}
	if strings.ContainsFunc(line, func(r rune) bool { return unicode.Is(unicode.Hangul, r) }) {
		score += 0.1
	}
	if commaGrouped.MatchString(line) {
		score += 0.1
	}
	if lineLen := len([]rune(line)); lineLen > 0 && float64(matchSpan)/float64(lineLen) >= 0.8 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

var commaGrouped = regexp.MustCompile(`\d{1,3}(,\d{3})+`)

// parseNumber parses an OCR numeric field, tolerating comma grouping.
func parseNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}
