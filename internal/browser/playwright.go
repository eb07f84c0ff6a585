// Package browser owns the headless Chromium used for listing and detail
// pages: launch, contexts with a fixed User-Agent and resource blocking,
// rendering and a fixed-size tab pool.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	Headful          bool
	UserAgent        string
	BlockedResources []string
	ExecutablePath   string
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

// NewPlaywright starts the driver and launches Chromium. A failure here is
// fatal to a run: nothing can be scraped without a browser.
func NewPlaywright(ctx context.Context, opts Options) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BlockedResources == nil {
		opts.BlockedResources = DefaultBlockedResources
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.Headful),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	return &PlaywrightManager{pw: pw, browser: browser, opts: opts}, nil
}

// NewContext opens an isolated browser context with the configured
// User-Agent, the optional cookies and resource blocking installed.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(pm.opts.UserAgent),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			log.Printf("⚠️ Could not add cookies: %v", err)
		}
	}

	if err := BlockResources(bctx, pm.opts.BlockedResources); err != nil {
		bctx.Close()
		return nil, err
	}
	return bctx, nil
}

// Close closes the browser and stops the driver.
func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
