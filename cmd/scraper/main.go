package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-careers-scraper/internal/config"
	"go-careers-scraper/internal/database"
	"go-careers-scraper/internal/dedup"
	"go-careers-scraper/internal/pipeline"
	"go-careers-scraper/internal/reporter"
	"go-careers-scraper/internal/scheduler"
)

func main() {
	//load config
	cfg := config.Load()

	//first arg overrides the listing url
	startURL := cfg.StartURL
	if len(os.Args) > 1 && os.Args[1] != "" {
		startURL = os.Args[1]
	}
	log.Printf("🔧 Config loaded. Listing: %s, store: %s", startURL, cfg.StorePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//optional telegram reporter
	var notifier pipeline.Notifier
	if cfg.TelegramEnabled() {
		rep, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram disabled: %v", err)
		} else {
			notifier = rep
			log.Println("🤖 Telegram reporter initialized.")
		}
	}

	//optional postgres mirror
	var mirror pipeline.Mirror
	if cfg.DatabaseURL != "" {
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️ Database mirror disabled: %v", err)
		} else {
			defer repo.Close()
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Printf("⚠️ Database mirror disabled: %v", err)
			} else {
				mirror = repo
				log.Println("🗄 Database mirror connected.")
			}
		}
	}

	store := dedup.NewStore(cfg.StorePath)
	runOnce := func(ctx context.Context) error {
		return scrape(ctx, cfg, store, startURL, mirror, notifier)
	}

	if cfg.Schedule == "" {
		log.Println("🚀 Starting careers scraper...")
		if err := runOnce(ctx); err != nil {
			log.Fatalf("❌ Scrape failed: %v", err)
		}
		log.Println("🏁 Execution finished.")
		return
	}

	sched := scheduler.New(cfg.Schedule, runOnce)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	sched.Stop()
}

//scrape opens a fresh browser session for one run
func scrape(ctx context.Context, cfg *config.Config, store *dedup.Store, startURL string, mirror pipeline.Mirror, notifier pipeline.Notifier) error {
	session, err := pipeline.NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("⚠️ Failed to close browser: %v", err)
		}
	}()

	runner := session.NewRunner(cfg, store)
	if mirror != nil {
		runner.WithMirror(mirror)
	}
	if notifier != nil {
		runner.WithNotifier(notifier)
	}

	report, err := runner.Run(ctx, startURL)
	if err != nil {
		return err
	}
	log.Printf("📊 %d observed, %d new, %d updated, %d removed, %d enriched. Store holds %d jobs (%s)",
		len(report.Observed), len(report.New), len(report.Updated), len(report.Removed), report.Enriched, report.Stored, report.Duration)
	return nil
}
