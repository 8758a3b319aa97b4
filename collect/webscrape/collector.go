// Package webscrape acquires price observations by rendering supplier
// listing pages headlessly and reading listings through per-supplier
// CSS selector recipes.
package webscrape

import (
	"context"
	"regexp"
	"strconv"
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

// Collector implements collect.Collector for the web source.
type Collector struct {
	mu       sync.Mutex
	cfg      collect.Config
	pacer    *collect.Pacer
	registry Registry
	renderer renderer
	tracker  *status.Tracker
	log      *zap.SugaredLogger
}

// New creates a scraping collector over the given strategy registry.
// The browser session is acquired lazily on first collection and
// released by Close.
func New(registry Registry, log *zap.SugaredLogger) *Collector {
	if log == nil {
		log = logger.Logger
	}
	c := &Collector{
		registry: registry,
		renderer: newChromeRenderer(),
		tracker:  status.NewTracker(),
		log:      log,
	}
	c.Configure(collect.DefaultConfig())
	return c
}

// Kind identifies this collector's source kind.
func (c *Collector) Kind() market.SourceKind {
	return market.SourceWeb
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

// Close releases the renderer session. Safe before first use.
func (c *Collector) Close() error {
	return c.renderer.close()
}

// CollectPrices renders the supplier's search page once per target
// ingredient and resolves extracted listings to observations. A failure
// on one ingredient is logged and the pass continues with the next
// ingredient; it never aborts the whole supplier pass. A supplier with
// no registered strategy is a no-op.
func (c *Collector) CollectPrices(ctx context.Context, supplier market.Supplier, ingredients []market.Ingredient) ([]market.PriceObservation, error) {
	c.mu.Lock()
	cfg := c.cfg
	pacer := c.pacer
	strategy, ok := c.registry[supplier.Name]
	c.mu.Unlock()

	if !ok {
		c.log.Warnw("No scraping strategy registered for supplier, skipping",
			logger.FieldSupplier, supplier.Name)
		return nil, nil
	}

	c.tracker.SetRunning(true)
	defer c.tracker.SetRunning(false)

	var observations []market.PriceObservation
	for _, ingredient := range ingredients {
		if err := pacer.Wait(ctx); err != nil {
			return observations, err
		}

		obs, err := c.collectIngredient(ctx, cfg, strategy, supplier, ingredient, ingredients)
		if err != nil {
			c.tracker.RecordError(err, supplier.ID, ingredient.ID)
			c.log.Warnw("Scrape failed for ingredient, continuing",
				logger.FieldSupplier, supplier.Name,
				logger.FieldIngredient, ingredient.Name,
				logger.FieldIngredientID, ingredient.ID,
				logger.FieldError, err)
			continue
		}

		c.tracker.RecordSuccess()
		observations = append(observations, obs...)
	}

	c.log.Infow("Web collection finished",
		logger.FieldSupplier, supplier.Name,
		"ingredients", len(ingredients),
		logger.FieldObservations, len(observations))

	return observations, nil
}

// collectIngredient renders one search and maps its listings.
func (c *Collector) collectIngredient(ctx context.Context, cfg collect.Config, strategy Strategy, supplier market.Supplier, ingredient market.Ingredient, candidates []market.Ingredient) ([]market.PriceObservation, error) {
	if strategy.SearchURL == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "strategy for supplier %q has no URL builder", supplier.Name)
	}

	renderCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
	defer cancel()

	url := strategy.SearchURL(ingredient.Name)
	items, err := c.renderer.extract(renderCtx, url, strategy.Selectors)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var observations []market.PriceObservation

	for _, item := range items {
		if item.Name == "" {
			continue
		}

		matched, ok := match.Best(item.Name, candidates)
		if !ok {
			continue
		}

		price, ok := cleanPrice(item.Price)
		if !ok {
			c.log.Debugw("Listing price not parseable",
				logger.FieldSupplier, supplier.Name,
				"listing", item.Name,
				"price_text", item.Price)
			continue
		}

		unit := item.Unit
		if unit == "" {
			unit = matched.Unit
		}

		note := "listing: " + item.Name
		if item.Seller != "" {
			note += " (" + item.Seller + ")"
		}

		observations = append(observations, market.PriceObservation{
			ID:           uuid.NewString(),
			IngredientID: matched.ID,
			SupplierID:   supplier.ID,
			Price:        price,
			Unit:         unit,
			Source:       market.SourceWeb,
			Note:         note,
			CollectedAt:  now,
			CreatedAt:    now,
		})
	}

	return observations, nil
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// cleanPrice strips everything but digits from rendered price text
// ("8,500원" -> 8500). Decimal prices do not occur in this corpus; the
// strip also guards against currency marks and thousands separators.
func cleanPrice(text string) (float64, bool) {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidateData filters raw observations for the web source, recording
// rejects in the collector's status.
func (c *Collector) ValidateData(obs []market.PriceObservation) []market.PriceObservation {
	accepted, rejected := validate.Filter(obs, market.SourceWeb)
	if rejected > 0 {
		c.tracker.RecordRejected(rejected)
		c.log.Debugw("Validator rejected web observations",
			logger.FieldRejected, rejected,
			logger.FieldAccepted, len(accepted))
	}
	return accepted
}
