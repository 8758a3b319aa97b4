package logger

// Standard field names for consistent structured logging across pricefeed.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldJobID        = "job_id"
	FieldJobName      = "job_name"
	FieldSupplierID   = "supplier_id"
	FieldSupplier     = "supplier"
	FieldIngredientID = "ingredient_id"
	FieldIngredient   = "ingredient"
	FieldSource       = "source"
	FieldURL          = "url"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldCadence    = "cadence"
	FieldNextRunAt  = "next_run_at"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount        = "count"
	FieldAccepted     = "accepted"
	FieldRejected     = "rejected"
	FieldObservations = "observations"
)
