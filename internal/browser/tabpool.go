package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// TabPool is a fixed set of pages reused for every detail fetch of one
// enrichment call. Each tab must be used by one goroutine at a time.
type TabPool struct {
	tabs []playwright.Page
	opts RenderOptions
}

// NewTabPool opens size tabs in bctx. Tabs opened before a failure are
// closed again.
func NewTabPool(bctx playwright.BrowserContext, size int, opts RenderOptions) (*TabPool, error) {
	if size < 1 {
		size = 1
	}
	pool := &TabPool{opts: opts}
	for i := 0; i < size; i++ {
		page, err := bctx.NewPage()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("could not open tab %d: %w", i, err)
		}
		pool.tabs = append(pool.tabs, page)
	}
	return pool, nil
}

func (p *TabPool) Size() int {
	return len(p.tabs)
}

// Fetch navigates tab to url and returns the rendered HTML.
func (p *TabPool) Fetch(ctx context.Context, tab int, url string) (string, error) {
	if tab < 0 || tab >= len(p.tabs) {
		return "", fmt.Errorf("tab %d out of range (pool size %d)", tab, len(p.tabs))
	}
	if err := ctx.Err(); err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	page := p.tabs[tab]
	if err := navigate(ctx, page, url, p.opts); err != nil {
		return "", err
	}
	html, err := page.Content()
	if err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	return html, nil
}

// Close closes every tab.
func (p *TabPool) Close() error {
	var errs []error
	for _, page := range p.tabs {
		if err := page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.tabs = nil
	return errors.Join(errs...)
}
