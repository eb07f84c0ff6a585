// Package scheduler repeats scrape runs on a cron spec. A run that is still
// going when the next tick fires makes that tick a no-op, so the store keeps
// a single writer.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the scrape loop.
type Scheduler struct {
	cron  *cron.Cron
	spec  string
	job   Job
	entry cron.EntryID

	//tracks the run kicked off by Start, which cron does not see
	wg sync.WaitGroup
}

// New creates a Scheduler firing job on spec, e.g. "0 */6 * * *" or "@every 6h".
func New(spec string, job Job) *Scheduler {
	logger := cron.VerbosePrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec: spec,
		job:  job,
	}
}

// Start registers the job, starts the scheduler and kicks off one run right
// away so the store is filled without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.entry = id

	s.cron.Start()
	log.Printf("⏰ Scheduler started. Spec: %s", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow()
	}()
	return nil
}

// RunNow runs the job through the same chain as a tick, so it is skipped
// when a run is already in progress.
func (s *Scheduler) RunNow() {
	entry := s.cron.Entry(s.entry)
	if !entry.Valid() {
		return
	}
	entry.WrappedJob.Run()
}

// Stop stops new ticks and waits for a running job to return, including the
// one started by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("⏰ Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Println("⏰ Scheduled scrape started")
	if err := s.job(ctx); err != nil {
		log.Printf("❌ Scheduled scrape failed: %v", err)
		return
	}
	log.Println("⏰ Scheduled scrape complete")
}
