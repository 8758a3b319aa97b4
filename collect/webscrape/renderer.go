package webscrape

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/foodcost/pricefeed/errors"
)

// scrapedItem is one listing extracted from a rendered page, still raw:
// price is uncleaned display text.
type scrapedItem struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Unit   string `json:"unit"`
	Seller string `json:"seller"`
}

// renderer is the scoped page-rendering resource behind the scraping
// collector. Implementations acquire their session lazily on first
// extract and release it in close.
type renderer interface {
	extract(ctx context.Context, url string, sel FieldSelectors) ([]scrapedItem, error)
	close() error
}

// chromeRenderer drives a headless Chrome via chromedp. The browser
// allocator and tab context are created on first use and live until
// close, so consecutive extractions reuse one browser.
type chromeRenderer struct {
	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	closed      bool
}

func newChromeRenderer() *chromeRenderer {
	return &chromeRenderer{}
}

// session returns the shared browser context, acquiring it on first use.
func (r *chromeRenderer) session() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("renderer is closed")
	}
	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	r.browserCtx, r.browserStop = chromedp.NewContext(r.allocCtx)

	return r.browserCtx, nil
}

func (r *chromeRenderer) extract(ctx context.Context, url string, sel FieldSelectors) ([]scrapedItem, error) {
	browserCtx, err := r.session()
	if err != nil {
		return nil, err
	}

	// Bound the whole render by the caller's deadline.
	runCtx, cancel := context.WithCancel(browserCtx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var items []scrapedItem
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(sel.Item, chromedp.ByQuery),
		chromedp.Evaluate(extractScript(sel), &items),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(errors.ErrTimeout, "rendering %s: %v", url, err)
		}
		return nil, errors.Wrapf(err, "rendering %s", url)
	}

	return items, nil
}

// extractScript builds the in-page extraction expression for a selector
// set. Missing optional fields evaluate to empty strings.
func extractScript(sel FieldSelectors) string {
	field := func(selector string) string {
		if selector == "" {
			return `''`
		}
		return fmt.Sprintf(`(el.querySelector(%q)?.textContent || '').trim()`, selector)
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => ({
		name: %s,
		price: %s,
		unit: %s,
		seller: %s
	}))`, sel.Item, field(sel.Name), field(sel.Price), field(sel.Unit), field(sel.Seller))
}

// close releases the browser session. Safe before first use and more
// than once.
func (r *chromeRenderer) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.browserStop != nil {
		r.browserStop()
		r.browserStop = nil
		r.browserCtx = nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCancel = nil
		r.allocCtx = nil
	}
	return nil
}
