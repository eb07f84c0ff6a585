package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultReadySelectors hint that a listing page has rendered its results.
var DefaultReadySelectors = []string{`a[href*="/job"]`, `[class*="job"]`, `[class*="result"]`, "main"}

// RenderError is a navigation or page failure for one URL. Callers treat it
// as "stop this phase" or "skip this record", never as a crash.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

type RenderOptions struct {
	Timeout        time.Duration
	WaitUntil      *playwright.WaitUntilState
	Settle         time.Duration
	ReadySelectors []string
	ReadyTimeout   time.Duration
}

// ListingOptions waits for DOMContentLoaded only, which keeps listing
// navigations bounded.
func ListingOptions(timeout, settle time.Duration) RenderOptions {
	return RenderOptions{
		Timeout:        timeout,
		WaitUntil:      playwright.WaitUntilStateDomcontentloaded,
		Settle:         settle,
		ReadySelectors: DefaultReadySelectors,
		ReadyTimeout:   10 * time.Second,
	}
}

// DetailOptions waits for network idle since detail pages fill in late.
func DetailOptions(timeout, settle time.Duration) RenderOptions {
	return RenderOptions{
		Timeout:   timeout,
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Settle:    settle,
	}
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.WaitUntil == nil {
		o.WaitUntil = playwright.WaitUntilStateDomcontentloaded
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 10 * time.Second
	}
	return o
}

type Renderer struct {
	bctx playwright.BrowserContext
}

func NewRenderer(bctx playwright.BrowserContext) *Renderer {
	return &Renderer{bctx: bctx}
}

// Render navigates a fresh page to url and returns its serialized HTML. The
// page is closed on every path.
func (r *Renderer) Render(ctx context.Context, url string, opts RenderOptions) (string, error) {
	page, err := r.Open(ctx, url, opts)
	if err != nil {
		return "", err
	}
	defer page.Close()

	html, err := page.Content()
	if err != nil {
		return "", &RenderError{URL: url, Err: err}
	}
	return html, nil
}

// Open navigates a fresh page to url and hands it to the caller, who must
// close it.
func (r *Renderer) Open(ctx context.Context, url string, opts RenderOptions) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{URL: url, Err: err}
	}
	page, err := r.bctx.NewPage()
	if err != nil {
		return nil, &RenderError{URL: url, Err: err}
	}
	if err := navigate(ctx, page, url, opts); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

func navigate(ctx context.Context, page playwright.Page, url string, opts RenderOptions) error {
	opts = opts.withDefaults()
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: opts.WaitUntil,
		Timeout:   playwright.Float(float64(opts.Timeout.Milliseconds())),
	}); err != nil {
		return &RenderError{URL: url, Err: err}
	}

	//ready selectors are a hint, a miss never fails the navigation
	if len(opts.ReadySelectors) > 0 {
		err := page.Locator(strings.Join(opts.ReadySelectors, ", ")).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(opts.ReadyTimeout.Milliseconds())),
		})
		if err != nil {
			log.Printf("⚠️ No listing markers on %s yet: %v", url, err)
		}
	}

	if err := Sleep(ctx, opts.Settle); err != nil {
		return &RenderError{URL: url, Err: err}
	}
	return nil
}
