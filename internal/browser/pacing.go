package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ScrollToBottom scrolls the viewport to the end of the document so lazy
// loaders fire.
func ScrollToBottom(page playwright.Page) error {
	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
