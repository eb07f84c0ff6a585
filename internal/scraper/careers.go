package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go-careers-scraper/internal/browser"
	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/paginate"
	"go-careers-scraper/utils"

	"github.com/playwright-community/playwright-go"
)

var challengeTitles = []string{"Attention Required", "Just a moment", "Cloudflare", "Access Denied"}

// Extractor is what the careers scraper needs from the listing extractor.
type Extractor = paginate.Extractor

// CareersScraper walks a "load more" style careers listing.
type CareersScraper struct {
	name        string
	renderer    *browser.Renderer
	extractor   Extractor
	listing     browser.RenderOptions
	paging      paginate.Options
	screenshots *utils.ScreenShotDebugger
	challenge   time.Duration
}

type CareersOptions struct {
	Name          string
	Listing       browser.RenderOptions
	Pagination    paginate.Options
	ScreenshotDir string
}

func NewCareersScraper(renderer *browser.Renderer, extractor Extractor, opts CareersOptions) *CareersScraper {
	name := opts.Name
	if name == "" {
		name = "Careers"
	}
	return &CareersScraper{
		name:        name,
		renderer:    renderer,
		extractor:   extractor,
		listing:     opts.Listing,
		paging:      opts.Pagination,
		screenshots: utils.NewScreenShotDebugger(opts.ScreenshotDir),
		challenge:   7 * time.Second,
	}
}

func (s *CareersScraper) Name() string {
	return s.name
}

func (s *CareersScraper) Discover(ctx context.Context, startURL string, seen *dedup.SeenSet, sink paginate.Sink) (*Discovery, error) {
	log.Printf("📋 Opening %s listing: %s", s.name, startURL)
	page, err := s.renderer.Open(ctx, startURL, s.listing)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if s.challenged(ctx, page) {
		html, _ := page.Content()
		return &Discovery{Result: paginate.Result{State: paginate.StateDone}, FinalHTML: html}, nil
	}

	driver := paginate.NewDriver(NewLivePage(page), s.extractor, seen, sink, s.paging)
	res, runErr := driver.Run(ctx)
	if res == nil {
		return nil, fmt.Errorf("%s: pagination: %w", s.name, runErr)
	}

	disc := &Discovery{Result: *res}
	if len(res.Observed) == 0 {
		disc.FinalHTML, _ = page.Content()
		s.screenshots.CaptureAndLog(page, strings.ToLower(s.name)+"-no-results", fmt.Sprintf("🚨 %s: no jobs found on %s", s.name, startURL))
	}
	return disc, runErr
}

// challenged reports whether a bot challenge is still showing after one
// grace period.
func (s *CareersScraper) challenged(ctx context.Context, page playwright.Page) bool {
	if !isChallengeTitle(page) {
		return false
	}
	log.Printf("🛡️ Challenge page detected. Waiting %v...", s.challenge)
	if err := browser.Sleep(ctx, s.challenge); err != nil {
		return true
	}
	if !isChallengeTitle(page) {
		return false
	}
	log.Println("❌ Challenge not cleared. Skipping listing.")
	s.screenshots.CaptureAndLog(page, strings.ToLower(s.name)+"-challenge", fmt.Sprintf("🚨 %s: challenge page", s.name))
	return true
}

func isChallengeTitle(page playwright.Page) bool {
	title, _ := page.Title()
	for _, t := range challengeTitles {
		if strings.Contains(title, t) {
			return true
		}
	}
	return false
}
