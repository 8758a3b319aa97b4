// Package collect defines the shared contract every acquisition
// strategy implements, plus configuration and per-source pacing shared
// by the concrete collectors in its subpackages.
package collect

import (
	"context"
	"net/http"
	"time"

	"github.com/foodcost/pricefeed/market"
	"github.com/foodcost/pricefeed/status"
)

// Collector turns a (supplier, ingredient-list) pair into raw price
// observations from one kind of source. Implementations own a status
// tracker and any scoped acquisition resource (browser session, OCR
// engine handle); Close releases those resources.
//
// The scheduler and external callers depend only on this interface,
// never on a concrete strategy.
type Collector interface {
	// Kind identifies the source kind this collector produces.
	Kind() market.SourceKind

	// CollectPrices acquires raw observations for one supplier against
	// the caller's target ingredient list. Per-item failures are logged
	// to the collector's status and skipped; a missing supplier mapping
	// is a configuration error returned immediately.
	CollectPrices(ctx context.Context, supplier market.Supplier, ingredients []market.Ingredient) ([]market.PriceObservation, error)

	// ValidateData filters raw observations through the shared
	// validator for this collector's source kind, recording rejects in
	// the collector's status.
	ValidateData(obs []market.PriceObservation) []market.PriceObservation

	// Status returns a snapshot of the collector's runtime state.
	Status() status.Snapshot

	// Configure replaces the collector's runtime options.
	Configure(cfg Config)

	// Close releases the collector's scoped resources. Safe to call
	// before first use and more than once.
	Close() error
}

// Config is the small runtime-options record every collector accepts.
type Config struct {
	// PollInterval is the pacing hint between consecutive acquisitions
	// from the same source.
	PollInterval time.Duration

	// Timeout bounds each external call (page render, OCR pass, HTTP
	// fetch). Zero means DefaultTimeout.
	Timeout time.Duration

	// RetryCount is the number of additional attempts after a failed
	// fetch, with exponential backoff between attempts. Zero disables
	// retries.
	RetryCount int

	// Headers are default request headers for HTTP-backed collectors.
	Headers http.Header

	// MaxCallsPerMinute caps outbound calls to one source. Zero
	// disables pacing.
	MaxCallsPerMinute int
}

// DefaultTimeout bounds external calls when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// DefaultConfig returns the options collectors start with.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		Timeout:      DefaultTimeout,
		RetryCount:   2,
	}
}

// CallTimeout returns the effective per-call timeout.
func (c Config) CallTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
