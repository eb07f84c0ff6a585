// Package paginate walks a listing page that loads results incrementally,
// first by clicking its "more" control and then by scrolling, until no new
// records turn up.
package paginate

import (
	"context"
	"log"
	"strings"
	"time"

	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/models"
)

// State is the driver's position in Loading → Clicking → Scrolling → Done.
type State int

const (
	StateLoading State = iota
	StateClicking
	StateScrolling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateClicking:
		return "clicking"
	case StateScrolling:
		return "scrolling"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// MoreVocabulary is the exact control text, lowercased, treated as a
// "load more" control. Any other short text containing "more" also counts.
var MoreVocabulary = []string{"more", "load more", "show more", "view more", "see more"}

// MaxMoreTextLen bounds the free-form "contains more" match.
const MaxMoreTextLen = 30

// IsMoreText reports whether a control's visible text reads like "load more".
func IsMoreText(text string) bool {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if t == "" {
		return false
	}
	for _, v := range MoreVocabulary {
		if t == v {
			return true
		}
	}
	return strings.Contains(t, "more") && len(t) < MaxMoreTextLen
}

// MoreControl identifies a located "more" control on the page.
type MoreControl struct {
	Selector string
	Text     string
}

// Page is the live listing page the driver works against.
type Page interface {
	FindMore(ctx context.Context) (MoreControl, bool, error)
	ClickMore(ctx context.Context, ctrl MoreControl) error
	ScrollToBottom(ctx context.Context) error
	Content(ctx context.Context) (string, error)
}

// Extractor turns the page HTML into summary records.
type Extractor interface {
	Extract(html string) ([]models.JobRecord, error)
}

// Sink receives the records first seen in one iteration.
type Sink func(ctx context.Context, fresh []models.JobRecord) error

type Options struct {
	MaxClicks        int
	MaxScrolls       int
	ClickStallLimit  int
	ScrollStallLimit int

	InitialSettle  time.Duration
	ClickSettle    time.Duration
	ScrollSettle   time.Duration
	ReappearSettle time.Duration
	FinalSettle    time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxClicks:        5000,
		MaxScrolls:       500,
		ClickStallLimit:  10,
		ScrollStallLimit: 5,
		InitialSettle:    2 * time.Second,
		ClickSettle:      400 * time.Millisecond,
		ScrollSettle:     800 * time.Millisecond,
		ReappearSettle:   500 * time.Millisecond,
		FinalSettle:      time.Second,
	}
}

// withDefaults fills zero limits. Zero delays are kept.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxClicks <= 0 {
		o.MaxClicks = def.MaxClicks
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = def.MaxScrolls
	}
	if o.ClickStallLimit <= 0 {
		o.ClickStallLimit = def.ClickStallLimit
	}
	if o.ScrollStallLimit <= 0 {
		o.ScrollStallLimit = def.ScrollStallLimit
	}
	return o
}

type Result struct {
	// Observed holds every record seen on the page this session, latest
	// values, in first-seen order.
	Observed []models.JobRecord
	// New is the subset of Observed whose key was not in the seen-set.
	New     []models.JobRecord
	Clicks  int
	Scrolls int
	State   State
}

// recordSet keeps first-seen order with last-write-wins values.
type recordSet struct {
	index   map[string]int
	records []models.JobRecord
}

func newRecordSet() *recordSet {
	return &recordSet{index: map[string]int{}}
}

func (s *recordSet) put(key string, job models.JobRecord) {
	if i, ok := s.index[key]; ok {
		s.records[i] = job
		return
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, job)
}

func (s *recordSet) has(key string) bool {
	_, ok := s.index[key]
	return ok
}

type Driver struct {
	page      Page
	extractor Extractor
	seen      *dedup.SeenSet
	sink      Sink
	opts      Options

	observed *recordSet
	fresh    *recordSet
	result   Result
}

// NewDriver wires a driver. seen is shared with the caller so keys loaded
// from the store count as already known; sink may be nil.
func NewDriver(page Page, extractor Extractor, seen *dedup.SeenSet, sink Sink, opts Options) *Driver {
	if seen == nil {
		seen = dedup.NewSeenSet()
	}
	return &Driver{
		page:      page,
		extractor: extractor,
		seen:      seen,
		sink:      sink,
		opts:      opts.withDefaults(),
	}
}

// Run drives the page to exhaustion. It returns what was gathered so far
// together with ctx.Err() when the context ends early.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	d.observed = newRecordSet()
	d.fresh = newRecordSet()
	d.result = Result{State: StateLoading}

	if err := sleepCtx(ctx, d.opts.InitialSettle); err != nil {
		return d.finish(), err
	}
	initial := d.step(ctx)
	log.Printf("📄 Initial page: %d new jobs (%d on page)", initial, len(d.observed.records))

	d.result.State = StateClicking
	if err := d.clickPhase(ctx); err != nil {
		return d.finish(), err
	}

	d.result.State = StateScrolling
	if err := d.scrollPhase(ctx); err != nil {
		return d.finish(), err
	}

	d.result.State = StateDone
	if err := sleepCtx(ctx, d.opts.FinalSettle); err != nil {
		return d.finish(), err
	}
	if n := d.step(ctx); n > 0 {
		log.Printf("📄 Final pass: %d late-rendered jobs", n)
	}

	res := d.finish()
	log.Printf("✅ Pagination done: %d clicks, %d scrolls, %d jobs observed, %d new",
		res.Clicks, res.Scrolls, len(res.Observed), len(res.New))
	return res, nil
}

func (d *Driver) clickPhase(ctx context.Context) error {
	stall := 0
	for d.result.Clicks < d.opts.MaxClicks && stall < d.opts.ClickStallLimit {
		if err := ctx.Err(); err != nil {
			return err
		}
		ctrl, ok, err := d.page.FindMore(ctx)
		if err != nil || !ok {
			log.Printf("🔚 No more button after %d clicks", d.result.Clicks)
			return nil
		}
		if err := d.page.ClickMore(ctx, ctrl); err != nil {
			log.Printf("⚠️ Could not click %q: %v", ctrl.Text, err)
			return nil
		}
		d.result.Clicks++

		if err := sleepCtx(ctx, d.opts.ClickSettle); err != nil {
			return err
		}
		n := d.step(ctx)
		if n == 0 {
			stall++
		} else {
			stall = 0
		}
		log.Printf("🖱️ Click %d: %d new jobs (total %d)", d.result.Clicks, n, len(d.observed.records))
	}
	if stall >= d.opts.ClickStallLimit {
		log.Printf("⏸️ %d clicks without new jobs, switching to scrolling", stall)
	}
	return nil
}

func (d *Driver) scrollPhase(ctx context.Context) error {
	stall := 0
	for d.result.Scrolls < d.opts.MaxScrolls && stall < d.opts.ScrollStallLimit {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.result.Scrolls++
		if err := d.page.ScrollToBottom(ctx); err != nil {
			log.Printf("⚠️ Scroll %d failed: %v", d.result.Scrolls, err)
			stall++
			continue
		}
		if err := sleepCtx(ctx, d.opts.ScrollSettle); err != nil {
			return err
		}
		n := d.step(ctx)

		//the control sometimes comes back after lazy content loads
		if d.result.Clicks < d.opts.MaxClicks {
			if ctrl, ok, err := d.page.FindMore(ctx); err == nil && ok {
				if d.page.ClickMore(ctx, ctrl) == nil {
					d.result.Clicks++
					if err := sleepCtx(ctx, d.opts.ReappearSettle); err != nil {
						return err
					}
					n += d.step(ctx)
				}
			}
		}

		if n == 0 {
			stall++
		} else {
			stall = 0
		}
		log.Printf("📜 Scroll %d: %d new jobs (total %d)", d.result.Scrolls, n, len(d.observed.records))
	}
	return nil
}

// step extracts the current page and returns how many unseen keys it added.
// Records first seen in this step go to the sink.
func (d *Driver) step(ctx context.Context) int {
	html, err := d.page.Content(ctx)
	if err != nil {
		log.Printf("⚠️ Could not read page content: %v", err)
		return 0
	}
	jobs, err := d.extractor.Extract(html)
	if err != nil {
		log.Printf("⚠️ Extraction failed: %v", err)
		return 0
	}

	batch := newRecordSet()
	for _, job := range jobs {
		key := job.Key()
		if key == "" {
			continue
		}
		d.observed.put(key, job)
		if d.seen.Add(key) {
			d.fresh.put(key, job)
			batch.put(key, job)
			continue
		}
		//a later duplicate within the session refreshes the pending record
		if d.fresh.has(key) {
			d.fresh.put(key, job)
		}
		if batch.has(key) {
			batch.put(key, job)
		}
	}

	if len(batch.records) > 0 && d.sink != nil {
		if err := d.sink(ctx, batch.records); err != nil {
			log.Printf("❌ Failed to persist %d new jobs: %v", len(batch.records), err)
		}
	}
	return len(batch.records)
}

func (d *Driver) finish() *Result {
	res := d.result
	res.Observed = append([]models.JobRecord(nil), d.observed.records...)
	res.New = append([]models.JobRecord(nil), d.fresh.records...)
	return &res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
