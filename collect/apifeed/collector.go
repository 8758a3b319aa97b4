// Package apifeed acquires price observations from partner HTTP APIs.
// Each supplier gets a declarative endpoint mapping; responses are read
// through gjson paths, so no per-supplier response structs exist.
package apifeed

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/foodcost/pricefeed/collect"
	"github.com/foodcost/pricefeed/errors"
	"github.com/foodcost/pricefeed/internal/httpclient"
	"github.com/foodcost/pricefeed/logger"
	"github.com/foodcost/pricefeed/market"
	"github.com/foodcost/pricefeed/match"
	"github.com/foodcost/pricefeed/status"
	"github.com/foodcost/pricefeed/validate"
)

// maxResponseBytes bounds how much of a partner response is read.
const maxResponseBytes = 8 << 20

// Collector implements collect.Collector for the api source.
type Collector struct {
	mu       sync.Mutex
	cfg      collect.Config
	pacer    *collect.Pacer
	client   *httpclient.SaferClient
	mappings map[string]EndpointMapping // keyed by supplier name
	tracker  *status.Tracker
	log      *zap.SugaredLogger
}

// New creates an API collector over the given per-supplier endpoint
// mappings, keyed by supplier name.
func New(mappings map[string]EndpointMapping, log *zap.SugaredLogger) *Collector {
	if log == nil {
		log = logger.Logger
	}
	c := &Collector{
		mappings: mappings,
		tracker:  status.NewTracker(),
		log:      log,
	}
	c.Configure(collect.DefaultConfig())
	return c
}

// Kind identifies this collector's source kind.
func (c *Collector) Kind() market.SourceKind {
	return market.SourceAPI
}

// Configure replaces the collector's runtime options and rebuilds the
// HTTP client with the new timeout and default headers.
func (c *Collector) Configure(cfg collect.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.pacer = collect.NewPacer(cfg.MaxCallsPerMinute)
	c.client = httpclient.NewSaferClient(cfg.CallTimeout())
	c.client.SetDefaultHeaders(cfg.Headers)
}

// SetClient swaps the HTTP client. Tests use this with
// httpclient.WrapClient to hit httptest servers on localhost.
func (c *Collector) SetClient(client *httpclient.SaferClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
}

// Status returns a snapshot of the collector's runtime state.
func (c *Collector) Status() status.Snapshot {
	return c.tracker.Snapshot()
}

// Close releases nothing: the HTTP client holds no scoped resource
// beyond idle connections, which its transport manages.
func (c *Collector) Close() error {
	return nil
}

// CollectPrices fetches the supplier's endpoint and maps the declared
// item paths to observations. A supplier without a mapping is a
// configuration error, returned immediately.
func (c *Collector) CollectPrices(ctx context.Context, supplier market.Supplier, ingredients []market.Ingredient) ([]market.PriceObservation, error) {
	c.mu.Lock()
	cfg := c.cfg
	pacer := c.pacer
	client := c.client
	mapping, ok := c.mappings[supplier.Name]
	c.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(errors.ErrNoMapping, "supplier %q", supplier.Name)
	}
	if mapping.Fields.Name == "" || mapping.Fields.Price == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "mapping for supplier %q missing name/price field paths", supplier.Name)
	}

	c.tracker.SetRunning(true)
	defer c.tracker.SetRunning(false)

	if err := pacer.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.fetchWithRetry(ctx, cfg, client, supplier, mapping)
	if err != nil {
		c.tracker.RecordError(err, supplier.ID, "")
		return nil, err
	}
	c.tracker.RecordSuccess()

	return c.mapItems(supplier, mapping, body, ingredients), nil
}

// fetchWithRetry fetches the mapped endpoint, retrying transient
// failures with exponential backoff up to cfg.RetryCount additional
// attempts. Timeouts surface as ErrTimeout, distinct from non-2xx
// responses.
func (c *Collector) fetchWithRetry(ctx context.Context, cfg collect.Config, client *httpclient.SaferClient, supplier market.Supplier, mapping EndpointMapping) ([]byte, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(cfg.RetryCount)),
		ctx,
	)

	var body []byte
	op := func() error {
		var err error
		body, err = c.fetch(ctx, cfg, client, mapping)
		if err != nil && errors.Is(err, errors.ErrInvalidRequest) {
			// Mapping problems do not heal on retry.
			return backoff.Permanent(err)
		}
		if err != nil {
			c.log.Debugw("API fetch attempt failed",
				logger.FieldSupplier, supplier.Name,
				logger.FieldURL, mapping.URL,
				logger.FieldError, err)
		}
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, errors.Wrapf(err, "API collection for supplier %q", supplier.Name)
	}
	return body, nil
}

// fetch performs one bounded request against the mapped endpoint.
func (c *Collector) fetch(ctx context.Context, cfg collect.Config, client *httpclient.SaferClient, mapping EndpointMapping) ([]byte, error) {
	reqURL, err := buildURL(mapping)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
	defer cancel()

	method := mapping.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(callCtx, method, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	if mapping.AuthHeader != "" {
		req.Header.Set(mapping.AuthHeader, mapping.AuthValue)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if callCtx.Err() != nil {
			// Timeout is a distinct failure mode from a bad response.
			return nil, errors.Wrapf(errors.ErrTimeout, "fetching %s: %v", reqURL, err)
		}
		return nil, errors.Wrapf(err, "fetching %s", reqURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("endpoint %s returned status %d", reqURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "reading response from %s", reqURL)
	}
	return body, nil
}

// buildURL appends the mapping's static query parameters.
func buildURL(mapping EndpointMapping) (string, error) {
	u, err := url.Parse(mapping.URL)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "endpoint URL %q: %v", mapping.URL, err)
	}
	if len(mapping.Query) > 0 {
		q := u.Query()
		for k, v := range mapping.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// mapItems walks the declared items path and builds observations from
// each item's field paths. Items that resolve to no known ingredient
// are skipped.
func (c *Collector) mapItems(supplier market.Supplier, mapping EndpointMapping, body []byte, ingredients []market.Ingredient) []market.PriceObservation {
	root := gjson.ParseBytes(body)
	items := root
	if mapping.Items != "" {
		items = root.Get(mapping.Items)
	}
	if !items.IsArray() {
		c.tracker.RecordError(
			errors.Newf("items path %q is not an array in response from %q", mapping.Items, supplier.Name),
			supplier.ID, "")
		return nil
	}

	now := time.Now()
	var observations []market.PriceObservation

	for _, item := range items.Array() {
		name := item.Get(mapping.Fields.Name).String()
		if name == "" {
			continue
		}

		ingredient, ok := match.Best(name, ingredients)
		if !ok {
			c.log.Debugw("API item matched no ingredient",
				logger.FieldSupplier, supplier.Name,
				"item", name)
			continue
		}

		collectedAt := now
		if mapping.Fields.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, item.Get(mapping.Fields.Timestamp).String()); err == nil {
				collectedAt = ts
			}
		}

		unit := item.Get(mapping.Fields.Unit).String()
		if unit == "" {
			unit = ingredient.Unit
		}

		observations = append(observations, market.PriceObservation{
			ID:           uuid.NewString(),
			IngredientID: ingredient.ID,
			SupplierID:   supplier.ID,
			Price:        item.Get(mapping.Fields.Price).Float(),
			Unit:         unit,
			Source:       market.SourceAPI,
			Grade:        item.Get(mapping.Fields.Quality).String(),
			Note:         "api:" + mapping.URL,
			CollectedAt:  collectedAt,
			CreatedAt:    now,
		})
	}

	return observations
}

// ValidateData filters raw observations for the api source, recording
// rejects in the collector's status.
func (c *Collector) ValidateData(obs []market.PriceObservation) []market.PriceObservation {
	accepted, rejected := validate.Filter(obs, market.SourceAPI)
	if rejected > 0 {
		c.tracker.RecordRejected(rejected)
		c.log.Debugw("Validator rejected API observations",
			logger.FieldRejected, rejected,
			logger.FieldAccepted, len(accepted))
	}
	return accepted
}

// HealthCheck probes the supplier's endpoint without collecting: a
// lightweight existence check for monitoring, separate from full
// collection.
func (c *Collector) HealthCheck(ctx context.Context, supplier market.Supplier) error {
	c.mu.Lock()
	client := c.client
	mapping, ok := c.mappings[supplier.Name]
	c.mu.Unlock()

	if !ok {
		return errors.Wrapf(errors.ErrNoMapping, "supplier %q", supplier.Name)
	}

	target := mapping.URL
	if mapping.HealthPath != "" {
		target = mapping.HealthPath
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, target, nil)
	if err != nil {
		return errors.Wrap(err, "building health probe")
	}
	if mapping.AuthHeader != "" {
		req.Header.Set(mapping.AuthHeader, mapping.AuthValue)
	}

	resp, err := client.Do(req)
	if err != nil {
		if probeCtx.Err() != nil {
			return errors.Wrapf(errors.ErrTimeout, "health probe of %q: %v", supplier.Name, err)
		}
		return errors.Wrapf(err, "health probe of %q", supplier.Name)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errors.Newf("supplier %q endpoint unhealthy: status %d", supplier.Name, resp.StatusCode)
	}
	return nil
}
