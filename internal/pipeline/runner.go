// Package pipeline runs one scrape end to end: discover the listing, merge
// into the store, enrich detail pages, persist, then mirror and notify.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-careers-scraper/internal/config"
	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/enrich"
	"go-careers-scraper/internal/extract"
	"go-careers-scraper/internal/models"
	"go-careers-scraper/internal/reporter"
	"go-careers-scraper/internal/scraper"
)

type Enricher interface {
	Enrich(ctx context.Context, records []models.JobRecord) (*enrich.Result, error)
}

type Mirror interface {
	UpsertJobs(ctx context.Context, jobs []models.JobRecord) (int, error)
}

type Notifier interface {
	SendSummary(s reporter.Summary) error
	SendError(err error) error
}

type Options struct {
	Company       string
	AnalysisPath  string
	RemovedPolicy string
}

// Report is the outcome of one run.
type Report struct {
	StartURL string
	Observed []models.JobRecord
	New      []models.JobRecord
	Updated  []models.JobRecord
	Removed  []models.JobRecord
	Pruned   bool
	Stored   int

	Clicks  int
	Scrolls int

	Enriched int
	Failed   int
	Skipped  int

	// AnalysisPath is set when nothing was found and the page structure
	// analysis was written.
	AnalysisPath string
	Duration     time.Duration
}

// Summary converts r for the reporter.
func (r *Report) Summary(company string) reporter.Summary {
	return reporter.Summary{
		Company:       company,
		StartURL:      r.StartURL,
		Observed:      len(r.Observed),
		Stored:        r.Stored,
		Enriched:      r.Enriched,
		Failed:        r.Failed,
		Duration:      r.Duration,
		NewTitles:     titles(r.New),
		RemovedTitles: titles(r.Removed),
		Removed:       len(r.Removed),
		Pruned:        r.Pruned,
		AnalysisPath:  r.AnalysisPath,
	}
}

type Runner struct {
	store      *dedup.Store
	discoverer scraper.Scraper
	enricher   Enricher
	mirror     Mirror
	notifier   Notifier
	opts       Options
	now        func() time.Time
}

// NewRunner builds a runner. enricher may be nil to skip detail pages.
func NewRunner(store *dedup.Store, discoverer scraper.Scraper, enricher Enricher, opts Options) *Runner {
	if opts.RemovedPolicy == "" {
		opts.RemovedPolicy = config.RemovedRetain
	}
	if opts.Company == "" {
		opts.Company = discoverer.Name()
	}
	return &Runner{
		store:      store,
		discoverer: discoverer,
		enricher:   enricher,
		opts:       opts,
		now:        time.Now,
	}
}

func (r *Runner) WithMirror(m Mirror) *Runner {
	r.mirror = m
	return r
}

func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

// Run scrapes startURL once. A malformed store aborts before the browser is
// touched. Mirror and notification failures are only logged.
func (r *Runner) Run(ctx context.Context, startURL string) (*Report, error) {
	report, err := r.run(ctx, startURL)
	if err != nil && r.notifier != nil {
		if sendErr := r.notifier.SendError(err); sendErr != nil {
			log.Printf("⚠️ Failed to send error to Telegram: %v", sendErr)
		}
	}
	return report, err
}

func (r *Runner) run(ctx context.Context, startURL string) (*Report, error) {
	started := r.now()
	report := &Report{StartURL: startURL}

	stored, err := r.store.Load()
	if err != nil {
		return report, fmt.Errorf("load store: %w", err)
	}
	log.Printf("📂 Loaded %d stored jobs from %s", len(stored), r.store.Path())

	seen := dedup.NewSeenSet(dedup.Keys(stored)...)
	sink := func(ctx context.Context, fresh []models.JobRecord) error {
		_, err := r.store.Upsert(fresh)
		return err
	}

	disc, err := r.discoverer.Discover(ctx, startURL, seen, sink)
	if disc == nil {
		return report, fmt.Errorf("discover %s: %w", startURL, err)
	}
	if err != nil {
		//records found so far were already saved by the sink
		return report, fmt.Errorf("discover %s: %w", startURL, err)
	}
	report.Observed = disc.Observed
	report.Clicks, report.Scrolls = disc.Clicks, disc.Scrolls
	log.Printf("📦 Listing done: %d observed, %d new, %d clicks, %d scrolls", len(disc.Observed), len(disc.New), disc.Clicks, disc.Scrolls)

	if len(disc.Observed) == 0 {
		r.analyze(disc.FinalHTML, report)
		report.Stored = len(stored)
		report.Duration = r.now().Sub(started)
		r.notify(report)
		return report, nil
	}

	report.New, report.Updated, report.Removed = dedup.Diff(stored, disc.Observed)
	log.Printf("🔄 %d new, %d updated, %d removed", len(report.New), len(report.Updated), len(report.Removed))

	merged := r.store.Merge(stored, disc.Observed)
	if r.opts.RemovedPolicy == config.RemovedPrune && len(report.Removed) > 0 {
		merged = without(merged, report.Removed)
		report.Pruned = true
		log.Printf("🗑 Pruned %d removed jobs", len(report.Removed))
	}

	if r.enricher != nil {
		merged = r.enrich(ctx, merged, disc.Observed, report)
	}

	if err := r.store.Persist(merged); err != nil {
		return report, err
	}
	report.Stored = len(merged)
	log.Printf("💾 Saved %d jobs to %s", len(merged), r.store.Path())

	if r.mirror != nil {
		if n, err := r.mirror.UpsertJobs(ctx, merged); err != nil {
			log.Printf("⚠️ Failed to mirror jobs to database: %v", err)
		} else {
			log.Printf("🗄 Mirrored %d jobs to database", n)
		}
	}

	report.Duration = r.now().Sub(started)
	r.notify(report)
	return report, nil
}

// enrich visits detail pages for the observed records, using their merged
// copies so details kept from earlier runs count as done.
func (r *Runner) enrich(ctx context.Context, merged, observed []models.JobRecord, report *Report) []models.JobRecord {
	keys := make(map[string]bool, len(observed))
	for _, job := range observed {
		keys[job.Key()] = true
	}
	var targets []models.JobRecord
	for _, job := range merged {
		if keys[job.Key()] {
			targets = append(targets, job)
		}
	}

	res, err := r.enricher.Enrich(ctx, targets)
	if err != nil {
		log.Printf("⚠️ Enrichment stopped early: %v", err)
	}
	if res == nil {
		return merged
	}
	report.Enriched, report.Failed, report.Skipped = res.Enriched, res.Failed, res.Skipped
	return r.store.Merge(merged, res.Records)
}

func (r *Runner) analyze(finalHTML string, report *Report) {
	log.Println("🚨 No jobs found. Analyzing page structure...")
	if finalHTML == "" {
		log.Println("⚠️ No page HTML captured. Skipping analysis.")
		return
	}
	analysis, err := extract.AnalyzePageStructure(finalHTML)
	if err != nil {
		log.Printf("⚠️ Page analysis failed: %v", err)
		return
	}
	analysis.URL = report.StartURL
	if err := extract.WriteAnalysis(r.opts.AnalysisPath, analysis); err != nil {
		log.Printf("⚠️ %v", err)
		return
	}
	report.AnalysisPath = r.opts.AnalysisPath
}

func (r *Runner) notify(report *Report) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendSummary(report.Summary(r.opts.Company)); err != nil {
		log.Printf("⚠️ Failed to send summary to Telegram: %v", err)
	}
}

func without(records, drop []models.JobRecord) []models.JobRecord {
	keys := make(map[string]bool, len(drop))
	for _, job := range drop {
		keys[job.Key()] = true
	}
	out := make([]models.JobRecord, 0, len(records))
	for _, job := range records {
		if !keys[job.Key()] {
			out = append(out, job)
		}
	}
	return out
}

func titles(records []models.JobRecord) []string {
	out := make([]string, 0, len(records))
	for _, job := range records {
		title := job.Title
		if title == "" {
			title = job.Key()
		}
		out = append(out, title)
	}
	return out
}
