// Package market defines the pricefeed domain model and the storage
// boundary the collection core reads master data from and writes
// accepted price observations to. Persistence itself lives outside
// this module; hosts provide a Store implementation.
package market

import "time"

// SourceKind identifies how a price observation was acquired.
type SourceKind string

const (
	SourceWeb      SourceKind = "web"
	SourceDocument SourceKind = "document"
	SourceAPI      SourceKind = "api"
	SourceManual   SourceKind = "manual"
)

// IsValidSource returns true if the string is a known SourceKind.
func IsValidSource(s string) bool {
	switch SourceKind(s) {
	case SourceWeb, SourceDocument, SourceAPI, SourceManual:
		return true
	default:
		return false
	}
}

// Supplier is a master-data record for one price source.
type Supplier struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Ingredient is a master-data record for one purchasable ingredient.
type Ingredient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Unit   string `json:"unit"`
	Active bool   `json:"active"`
}

// PriceObservation is one (ingredient, supplier, price, unit) reading
// with provenance. Observations are immutable once produced: they are
// either accepted by the validator and handed to the storage boundary,
// or discarded — never mutated in place.
type PriceObservation struct {
	ID           string     `json:"id"`
	IngredientID string     `json:"ingredient_id"`
	SupplierID   string     `json:"supplier_id"`
	Price        float64    `json:"price"`
	Unit         string     `json:"unit"`
	Source       SourceKind `json:"source"`
	Grade        string     `json:"grade,omitempty"`      // Optional quality grade ("특", "상", "A"...)
	Note         string     `json:"note,omitempty"`       // Free-text provenance note
	Confidence   float64    `json:"confidence,omitempty"` // OCR extraction confidence, document source only
	CollectedAt  time.Time  `json:"collected_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
