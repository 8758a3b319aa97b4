// Package config parses the host-side YAML file binding suppliers to
// collection recipes: API endpoint mappings for the apifeed collector
// and scraping profiles for the webscrape collector. Collectors take
// these records by injection; nothing in this package is ambient state.
package config

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foodcost/pricefeed/collect"
	"github.com/foodcost/pricefeed/collect/apifeed"
	"github.com/foodcost/pricefeed/collect/webscrape"
	"github.com/foodcost/pricefeed/errors"
)

// queryPlaceholder marks where the ingredient query is substituted in a
// scraper profile's search URL.
const queryPlaceholder = "{query}"

// ScraperProfile is the serializable form of a webscrape.Strategy. The
// search URL must contain the {query} placeholder.
type ScraperProfile struct {
	SearchURL string                   `yaml:"search_url"`
	Selectors webscrape.FieldSelectors `yaml:"selectors"`
}

// Duration decodes Go duration strings ("45s", "2m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Settings is the serializable subset of collect.Config.
type Settings struct {
	PollInterval      Duration          `yaml:"poll_interval,omitempty"`
	Timeout           Duration          `yaml:"timeout,omitempty"`
	RetryCount        *int              `yaml:"retry_count,omitempty"`
	Headers           map[string]string `yaml:"headers,omitempty"`
	MaxCallsPerMinute int               `yaml:"max_calls_per_minute,omitempty"`
}

// File is the top-level collection config document.
type File struct {
	Collect   Settings                           `yaml:"collect"`
	Endpoints map[string]apifeed.EndpointMapping `yaml:"endpoints"`
	Scrapers  map[string]ScraperProfile          `yaml:"scrapers"`
}

// Load reads and validates a collection config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(data)
}

// Parse validates a collection config document from raw YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse config YAML")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for supplier, m := range f.Endpoints {
		if m.URL == "" {
			return errors.Wrapf(errors.ErrInvalidRequest, "endpoint %q has no url", supplier)
		}
		if m.Fields.Name == "" || m.Fields.Price == "" {
			return errors.Wrapf(errors.ErrInvalidRequest, "endpoint %q is missing name/price field paths", supplier)
		}
	}
	for supplier, p := range f.Scrapers {
		if !strings.Contains(p.SearchURL, queryPlaceholder) {
			return errors.Wrapf(errors.ErrInvalidRequest, "scraper %q search_url has no %s placeholder", supplier, queryPlaceholder)
		}
		if p.Selectors.Item == "" || p.Selectors.Name == "" || p.Selectors.Price == "" {
			return errors.Wrapf(errors.ErrInvalidRequest, "scraper %q is missing item/name/price selectors", supplier)
		}
	}
	return nil
}

// CollectorConfig converts the settings block to a collect.Config,
// filling unset fields from the defaults.
func (f *File) CollectorConfig() collect.Config {
	cfg := collect.DefaultConfig()
	if f.Collect.PollInterval > 0 {
		cfg.PollInterval = time.Duration(f.Collect.PollInterval)
	}
	if f.Collect.Timeout > 0 {
		cfg.Timeout = time.Duration(f.Collect.Timeout)
	}
	if f.Collect.RetryCount != nil {
		cfg.RetryCount = *f.Collect.RetryCount
	}
	if f.Collect.MaxCallsPerMinute > 0 {
		cfg.MaxCallsPerMinute = f.Collect.MaxCallsPerMinute
	}
	if len(f.Collect.Headers) > 0 {
		cfg.Headers = make(http.Header, len(f.Collect.Headers))
		for k, v := range f.Collect.Headers {
			cfg.Headers.Set(k, v)
		}
	}
	return cfg
}

// Strategies converts the scraper profiles into a webscrape registry.
// The {query} placeholder is substituted with the URL-escaped
// ingredient query at search time.
func (f *File) Strategies() webscrape.Registry {
	reg := make(webscrape.Registry, len(f.Scrapers))
	for supplier, p := range f.Scrapers {
		template := p.SearchURL
		reg[supplier] = webscrape.Strategy{
			SearchURL: func(query string) string {
				return strings.ReplaceAll(template, queryPlaceholder, url.QueryEscape(query))
			},
			Selectors: p.Selectors,
		}
	}
	return reg
}
