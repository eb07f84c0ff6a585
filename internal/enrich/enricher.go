// Package enrich visits detail pages for records that lack a description or
// qualifications and fills those fields in, a batch of tabs at a time.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"go-careers-scraper/internal/extract"
	"go-careers-scraper/internal/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrEnrichmentMiss means a detail page yielded neither a description nor
// qualifications. The record is kept as it was.
var ErrEnrichmentMiss = errors.New("enrich: detail page had no usable content")

// DefaultDetailPattern matches careers detail URLs.
var DefaultDetailPattern = regexp.MustCompile(`/job/`)

var (
	nonJobPaths     = []string{"/locations/", "/job-titles/"}
	navigationTitle = map[string]bool{"view all": true, "more": true, "see all": true}
)

// Pool is a fixed set of browser tabs. Tab indexes run from 0 to Size()-1 and
// each tab is driven by one goroutine at a time.
type Pool interface {
	Size() int
	Fetch(ctx context.Context, tab int, url string) (string, error)
	Close() error
}

// PoolOpener opens a pool of size tabs for one Enrich call.
type PoolOpener func(size int) (Pool, error)

type Options struct {
	Concurrency   int
	BatchDelay    time.Duration
	DetailPattern *regexp.Regexp
}

type Result struct {
	Records  []models.JobRecord
	Enriched int
	Failed   int
	Skipped  int
}

type Enricher struct {
	open  PoolOpener
	opts  Options
	parse func(html, pageURL string) (extract.Details, error)
}

func NewEnricher(open PoolOpener, opts Options) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.DetailPattern == nil {
		opts.DetailPattern = DefaultDetailPattern
	}
	return &Enricher{open: open, opts: opts, parse: extract.ParseDetail}
}

// SkipReason returns why job is not enriched, or "" when it should be.
func SkipReason(job models.JobRecord, detailPattern *regexp.Regexp) string {
	if job.HasFullDetails() {
		return "already enriched"
	}
	if strings.TrimSpace(job.URL) == "" {
		return "no detail url"
	}
	lower := strings.ToLower(job.URL)
	for _, p := range nonJobPaths {
		if strings.Contains(lower, p) {
			return "not a job page"
		}
	}
	if navigationTitle[strings.ToLower(strings.TrimSpace(job.Title))] {
		return "navigation link"
	}
	if detailPattern != nil && !detailPattern.MatchString(job.URL) {
		return "not a detail url"
	}
	return ""
}

// Partition returns the indexes of records to enrich and to skip.
func Partition(records []models.JobRecord, detailPattern *regexp.Regexp) (toEnrich, skipped []int) {
	for i, r := range records {
		if SkipReason(r, detailPattern) == "" {
			toEnrich = append(toEnrich, i)
		} else {
			skipped = append(skipped, i)
		}
	}
	return toEnrich, skipped
}

// Enrich returns a copy of records, in the same order, with detail fields
// filled where a detail page could be read. A failed record stays as it was.
// The returned error is only set when the pool cannot be opened or ctx ends;
// the result is valid in both cases.
func (e *Enricher) Enrich(ctx context.Context, records []models.JobRecord) (*Result, error) {
	res := &Result{Records: append([]models.JobRecord(nil), records...)}

	toEnrich, skipped := Partition(records, e.opts.DetailPattern)
	res.Skipped = len(skipped)
	if len(toEnrich) == 0 {
		log.Printf("✅ No jobs need detail enrichment (%d skipped)", res.Skipped)
		return res, nil
	}

	size := min(e.opts.Concurrency, len(toEnrich))
	pool, err := e.open(size)
	if err != nil {
		return res, fmt.Errorf("enrich: open tab pool: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			log.Printf("⚠️ Failed to close tab pool: %v", err)
		}
	}()
	size = pool.Size()

	batches := (len(toEnrich) + size - 1) / size
	log.Printf("🔍 Enriching %d jobs with %d tabs (%d batches)", len(toEnrich), size, batches)

	for b := 0; b < batches; b++ {
		if b > 0 {
			if err := pause(ctx, e.opts.BatchDelay); err != nil {
				return res, err
			}
		} else if err := ctx.Err(); err != nil {
			return res, err
		}
		start := b * size
		batch := toEnrich[start:min(start+size, len(toEnrich))]

		outcomes := make([]error, len(batch))
		var g errgroup.Group
		for tab, idx := range batch {
			tab, idx := tab, idx
			g.Go(func() error {
				job, err := e.enrichOne(ctx, pool, tab, records[idx])
				res.Records[idx] = job
				outcomes[tab] = err
				return nil
			})
		}
		g.Wait()

		for tab, err := range outcomes {
			if err != nil {
				res.Failed++
				log.Printf("⚠️ Could not enrich %s: %v", records[batch[tab]].URL, err)
				continue
			}
			res.Enriched++
		}
		log.Printf("📦 Batch %d/%d done (%d enriched, %d failed so far)", b+1, batches, res.Enriched, res.Failed)
	}

	log.Printf("✅ Enrichment finished: %d enriched, %d failed, %d skipped", res.Enriched, res.Failed, res.Skipped)
	return res, ctx.Err()
}

// pause blocks for d after a batch has fully finished, or until ctx ends.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	//a fresh limiter starts with one token, spend it so Wait takes the full d
	gap := rate.NewLimiter(rate.Every(d), 1)
	gap.Allow()
	return gap.Wait(ctx)
}

// enrichOne returns the enriched record, or job unchanged with an error.
func (e *Enricher) enrichOne(ctx context.Context, pool Pool, tab int, job models.JobRecord) (out models.JobRecord, err error) {
	out = job
	defer func() {
		if r := recover(); r != nil {
			out, err = job, fmt.Errorf("%w: panic: %v", ErrEnrichmentMiss, r)
		}
	}()

	html, err := pool.Fetch(ctx, tab, job.URL)
	if err != nil {
		return job, err
	}
	details, err := e.parse(html, job.URL)
	if err != nil {
		return job, err
	}
	if !details.HasContent() {
		return job, ErrEnrichmentMiss
	}
	if details.RequisitionID != "" && job.RequisitionID != "" && details.RequisitionID != job.RequisitionID {
		log.Printf("⚠️ Requisition id on %s reads %s, keeping %s", job.URL, details.RequisitionID, job.RequisitionID)
	}
	return details.ApplyTo(job), nil
}
