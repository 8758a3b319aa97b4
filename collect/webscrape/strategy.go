package webscrape

// FieldSelectors are the CSS selectors a supplier's listing page is
// read with. Item selects one listing element; the rest are resolved
// relative to it.
type FieldSelectors struct {
	Item   string `yaml:"item" json:"item"`
	Name   string `yaml:"name" json:"name"`
	Price  string `yaml:"price" json:"price"`
	Unit   string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Seller string `yaml:"seller,omitempty" json:"seller,omitempty"`
}

// Strategy is one supplier's scraping recipe: how to build a search URL
// for an ingredient query and which selectors to read listings with.
type Strategy struct {
	SearchURL func(query string) string
	Selectors FieldSelectors
}

// Registry maps supplier names to scraping strategies. A supplier
// without an entry is handled as a no-op: the pass logs a warning and
// produces nothing. Generic strategy synthesis for unknown suppliers is
// a known limitation, not planned.
type Registry map[string]Strategy
