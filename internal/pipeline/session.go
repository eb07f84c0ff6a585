package pipeline

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"go-careers-scraper/internal/browser"
	"go-careers-scraper/internal/config"
	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/enrich"
	"go-careers-scraper/internal/extract"
	"go-careers-scraper/internal/filter"
	"go-careers-scraper/internal/paginate"
	"go-careers-scraper/internal/scraper"

	"github.com/playwright-community/playwright-go"
)

// Session owns the browser for one run. Close releases every page, the
// context and the browser process.
type Session struct {
	manager  *browser.PlaywrightManager
	bctx     playwright.BrowserContext
	Scraper  *scraper.CareersScraper
	Enricher *enrich.Enricher
}

// NewSession launches the browser and wires the scraper and enricher from
// cfg. Enricher is nil when detail enrichment is disabled.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	exclusion := filter.NewExclusion(cfg.ExcludeKeywords)
	extractor, err := extract.NewListingExtractor(cfg.BaseURL, cfg.Company, exclusion)
	if err != nil {
		return nil, err
	}

	manager, err := browser.NewPlaywright(ctx, browser.Options{
		Headful:          cfg.Headful,
		UserAgent:        cfg.UserAgent,
		BlockedResources: cfg.BlockedResources,
	})
	if err != nil {
		return nil, err
	}

	var cookies []playwright.OptionalCookie
	if cfg.CookiesPath != "" {
		cookies, err = browser.LoadCookies(cfg.CookiesPath)
		if err != nil {
			log.Printf("⚠️ Could not load cookies: %v. Continuing.", err)
		} else {
			log.Printf("🍪 Loaded %d cookies", len(cookies))
		}
	}

	bctx, err := manager.NewContext(cookies)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	s := &Session{manager: manager, bctx: bctx}
	s.Scraper = scraper.NewCareersScraper(browser.NewRenderer(bctx), extractor, scraper.CareersOptions{
		Name:          cfg.Company,
		Listing:       browser.ListingOptions(cfg.ListingTimeout, cfg.ListingSettle),
		Pagination:    PaginationOptions(cfg.Pagination),
		ScreenshotDir: cfg.ScreenshotDir,
	})

	if cfg.ShouldEnrich() {
		detail := browser.DetailOptions(cfg.DetailTimeout, cfg.DetailSettle)
		opener := func(size int) (enrich.Pool, error) {
			pool, err := browser.NewTabPool(bctx, size, detail)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
		s.Enricher = enrich.NewEnricher(opener, enrich.Options{
			Concurrency:   cfg.Concurrency,
			BatchDelay:    cfg.BatchDelay,
			DetailPattern: regexp.MustCompile(cfg.DetailURLPattern),
		})
	}

	log.Println("✅ Browser initialized successfully!")
	return s, nil
}

// NewRunner builds a runner over this session's scraper and enricher.
func (s *Session) NewRunner(cfg *config.Config, store *dedup.Store) *Runner {
	var enricher Enricher
	if s.Enricher != nil {
		enricher = s.Enricher
	}
	return NewRunner(store, s.Scraper, enricher, Options{
		Company:       cfg.Company,
		AnalysisPath:  cfg.AnalysisPath,
		RemovedPolicy: cfg.RemovedPolicy,
	})
}

func (s *Session) Close() error {
	if s.bctx != nil {
		if err := s.bctx.Close(); err != nil {
			log.Printf("⚠️ Failed to close browser context: %v", err)
		}
	}
	return s.manager.Close()
}

// PaginationOptions maps config onto driver options. Zero limits take the
// driver defaults.
func PaginationOptions(p config.Pagination) paginate.Options {
	opts := paginate.DefaultOptions()
	if p.MaxClicks > 0 {
		opts.MaxClicks = p.MaxClicks
	}
	if p.MaxScrolls > 0 {
		opts.MaxScrolls = p.MaxScrolls
	}
	if p.ClickStallLimit > 0 {
		opts.ClickStallLimit = p.ClickStallLimit
	}
	if p.ScrollStallLimit > 0 {
		opts.ScrollStallLimit = p.ScrollStallLimit
	}
	if p.InitialSettle > 0 {
		opts.InitialSettle = p.InitialSettle
	}
	if p.ClickSettle > 0 {
		opts.ClickSettle = p.ClickSettle
	}
	if p.ScrollSettle > 0 {
		opts.ScrollSettle = p.ScrollSettle
	}
	return opts
}
