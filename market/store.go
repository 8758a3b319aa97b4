package market

import "context"

// CatalogReader is the read side of the storage boundary: active master
// data the scheduler resolves job targets against.
type CatalogReader interface {
	// ListSuppliers returns suppliers matching the given ids.
	// Empty ids means all active suppliers.
	ListSuppliers(ctx context.Context, ids []string) ([]Supplier, error)

	// ListIngredients returns ingredients matching the given ids.
	// Empty ids means all active ingredients.
	ListIngredients(ctx context.Context, ids []string) ([]Ingredient, error)
}

// ObservationWriter is the write side of the storage boundary.
type ObservationWriter interface {
	// InsertObservations batch-inserts accepted observations.
	InsertObservations(ctx context.Context, obs []PriceObservation) error
}

// Store is the full storage boundary a scheduler needs.
type Store interface {
	CatalogReader
	ObservationWriter
}
