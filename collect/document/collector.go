// Package document acquires price observations from scanned invoice
// images: OCR text extraction, line-item parsing against a small set of
// known invoice shapes, and resolution of item names to known
// ingredients.
package document

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodcost/pricefeed/collect"
	"github.com/foodcost/pricefeed/errors"
	"github.com/foodcost/pricefeed/logger"
	"github.com/foodcost/pricefeed/market"
	"github.com/foodcost/pricefeed/match"
	"github.com/foodcost/pricefeed/status"
	"github.com/foodcost/pricefeed/validate"
)

// InvoiceSource yields the scanned invoice images pending collection
// for one supplier. Hosts back this with an upload directory, an inbox
// bucket, or similar.
type InvoiceSource interface {
	Invoices(ctx context.Context, supplier market.Supplier) ([]string, error)
}

// InvoiceSourceFunc adapts a function to InvoiceSource.
type InvoiceSourceFunc func(ctx context.Context, supplier market.Supplier) ([]string, error)

func (f InvoiceSourceFunc) Invoices(ctx context.Context, supplier market.Supplier) ([]string, error) {
	return f(ctx, supplier)
}

// Collector implements collect.Collector for the document source.
type Collector struct {
	mu      sync.Mutex
	cfg     collect.Config
	pacer   *collect.Pacer
	engine  Engine
	source  InvoiceSource
	tracker *status.Tracker
	log     *zap.SugaredLogger
}

// New creates a document collector. The engine handle is lazily
// instantiated by the Engine itself; Close tears it down.
func New(engine Engine, source InvoiceSource, log *zap.SugaredLogger) *Collector {
	if log == nil {
		log = logger.Logger
	}
	c := &Collector{
		engine:  engine,
		source:  source,
		tracker: status.NewTracker(),
		log:     log,
	}
	c.Configure(collect.DefaultConfig())
	return c
}

// Kind identifies this collector's source kind.
func (c *Collector) Kind() market.SourceKind {
	return market.SourceDocument
}

// Configure replaces the collector's runtime options.
func (c *Collector) Configure(cfg collect.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.pacer = collect.NewPacer(cfg.MaxCallsPerMinute)
}

// Status returns a snapshot of the collector's runtime state.
func (c *Collector) Status() status.Snapshot {
	return c.tracker.Snapshot()
}

// Close releases the OCR engine handle. Safe before first use.
func (c *Collector) Close() error {
	return c.engine.Close()
}

// CollectPrices OCRs every pending invoice for the supplier and turns
// parseable, resolvable line items into observations. A failure on one
// invoice is logged and the next invoice is processed; only failing to
// list invoices at all aborts the pass.
func (c *Collector) CollectPrices(ctx context.Context, supplier market.Supplier, ingredients []market.Ingredient) ([]market.PriceObservation, error) {
	c.mu.Lock()
	cfg := c.cfg
	pacer := c.pacer
	c.mu.Unlock()

	c.tracker.SetRunning(true)
	defer c.tracker.SetRunning(false)

	invoices, err := c.source.Invoices(ctx, supplier)
	if err != nil {
		c.tracker.RecordError(err, supplier.ID, "")
		return nil, errors.Wrapf(err, "failed to list invoices for supplier %q", supplier.Name)
	}

	var observations []market.PriceObservation
	for _, imagePath := range invoices {
		if err := pacer.Wait(ctx); err != nil {
			return observations, err
		}

		obs, err := c.collectInvoice(ctx, cfg, supplier, ingredients, imagePath)
		if err != nil {
			c.tracker.RecordError(err, supplier.ID, "")
			c.log.Warnw("Invoice extraction failed, continuing",
				logger.FieldSupplier, supplier.Name,
				"invoice", imagePath,
				logger.FieldError, err)
			continue
		}

		c.tracker.RecordSuccess()
		observations = append(observations, obs...)
	}

	c.log.Infow("Document collection finished",
		logger.FieldSupplier, supplier.Name,
		"invoices", len(invoices),
		logger.FieldObservations, len(observations))

	return observations, nil
}

// collectInvoice OCRs one image and parses its line items. Lines
// matching no known shape are skipped without an error.
func (c *Collector) collectInvoice(ctx context.Context, cfg collect.Config, supplier market.Supplier, ingredients []market.Ingredient, imagePath string) ([]market.PriceObservation, error) {
	ocrCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
	defer cancel()

	text, err := c.engine.ExtractText(ocrCtx, imagePath)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var observations []market.PriceObservation

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		item, ok := parseLine(line)
		if !ok {
			continue
		}

		ingredient, ok := match.Best(item.Name, ingredients)
		if !ok {
			c.log.Debugw("OCR line item matched no ingredient",
				logger.FieldSupplier, supplier.Name,
				"item", item.Name)
			continue
		}

		// Shape 2 carries no unit of its own; fall back to the
		// ingredient's master-data unit.
		unit := item.Unit
		if unit == "" {
			unit = ingredient.Unit
		}

		observations = append(observations, market.PriceObservation{
			ID:           uuid.NewString(),
			IngredientID: ingredient.ID,
			SupplierID:   supplier.ID,
			Price:        item.UnitPrice,
			Unit:         unit,
			Source:       market.SourceDocument,
			Confidence:   item.Confidence,
			Note:         fmt.Sprintf("invoice %s line %d: %s", imagePath, lineNo+1, line),
			CollectedAt:  now,
			CreatedAt:    now,
		})
	}

	return observations, nil
}

// ValidateData filters raw observations for the document source,
// recording rejects in the collector's status.
func (c *Collector) ValidateData(obs []market.PriceObservation) []market.PriceObservation {
	accepted, rejected := validate.Filter(obs, market.SourceDocument)
	if rejected > 0 {
		c.tracker.RecordRejected(rejected)
		c.log.Debugw("Validator rejected document observations",
			logger.FieldRejected, rejected,
			logger.FieldAccepted, len(accepted))
	}
	return accepted
}
