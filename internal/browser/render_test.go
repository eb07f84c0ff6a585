package browser

import (
	"context"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockListing = `<html><body><main><div class="job-tile"><a href="/a/ABCDEFGH/job/">Tax Senior</a></div></main></body></html>`

//helper start browser, skip when the driver or browsers are not installed
func setupManager(t *testing.T) (*PlaywrightManager, playwright.BrowserContext) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pm, err := NewPlaywright(context.Background(), Options{})
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	t.Cleanup(func() { pm.Close() })

	bctx, err := pm.NewContext(nil)
	require.NoError(t, err)
	t.Cleanup(func() { bctx.Close() })

	//registered after the blocking route, so it answers every request
	require.NoError(t, bctx.Route("**/*", func(route playwright.Route) {
		route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        mockListing,
		})
	}))
	return pm, bctx
}

func TestRenderer_Render(t *testing.T) {
	_, bctx := setupManager(t)

	html, err := NewRenderer(bctx).Render(context.Background(), "https://careers.example.com/search", ListingOptions(10*time.Second, 0))

	require.NoError(t, err)
	assert.Contains(t, html, "Tax Senior")
	assert.Empty(t, bctx.Pages())
}

func TestTabPool_Fetch(t *testing.T) {
	_, bctx := setupManager(t)

	pool, err := NewTabPool(bctx, 2, RenderOptions{Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Size())

	html, err := pool.Fetch(context.Background(), 1, "https://careers.example.com/a/ABCDEFGH/job/")
	require.NoError(t, err)
	assert.Contains(t, html, "ABCDEFGH")

	_, err = pool.Fetch(context.Background(), 5, "https://careers.example.com/")
	assert.Error(t, err)

	require.NoError(t, pool.Close())
	assert.Empty(t, bctx.Pages())
}
