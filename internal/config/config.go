// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

const (
	RemovedRetain = "retain"
	RemovedPrune  = "prune"
)

type Pagination struct {
	MaxClicks        int           `yaml:"max_clicks"`
	MaxScrolls       int           `yaml:"max_scrolls"`
	ClickStallLimit  int           `yaml:"click_stall_limit"`
	ScrollStallLimit int           `yaml:"scroll_stall_limit"`
	InitialSettle    time.Duration `yaml:"initial_settle"`
	ClickSettle      time.Duration `yaml:"click_settle"`
	ScrollSettle     time.Duration `yaml:"scroll_settle"`
}

type Config struct {
	//Target site
	StartURL string `yaml:"start_url" env:"SCRAPER_START_URL"`
	BaseURL  string `yaml:"base_url"`
	Company  string `yaml:"company"`

	//Paths
	StorePath     string `yaml:"store_path" env:"SCRAPER_STORE_PATH"`
	AnalysisPath  string `yaml:"analysis_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	CookiesPath   string `yaml:"cookies_path"`

	//Browser
	UserAgent        string        `yaml:"user_agent"`
	Headful          bool          `yaml:"headful"`
	BlockedResources []string      `yaml:"blocked_resources"`
	ListingTimeout   time.Duration `yaml:"listing_timeout"`
	ListingSettle    time.Duration `yaml:"listing_settle"`
	DetailTimeout    time.Duration `yaml:"detail_timeout"`
	DetailSettle     time.Duration `yaml:"detail_settle"`

	//Filtering and paging
	ExcludeKeywords []string   `yaml:"exclude_keywords"`
	Pagination      Pagination `yaml:"pagination"`

	//Enrichment
	EnrichDetails    *bool         `yaml:"enrich_details"`
	DetailURLPattern string        `yaml:"detail_url_pattern"`
	Concurrency      int           `yaml:"concurrency" env:"SCRAPER_CONCURRENCY"`
	BatchDelay       time.Duration `yaml:"batch_delay"`

	RemovedPolicy string `yaml:"removed_policy"`
	Schedule      string `yaml:"schedule" env:"SCRAPER_SCHEDULE"`

	//Optional outputs
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
	ServerPort     string `yaml:"server_port" env:"PORT"`
}

// ShouldEnrich reports whether detail pages are visited. Unset means yes.
func (c *Config) ShouldEnrich() bool {
	return c.EnrichDetails == nil || *c.EnrichDetails
}

// TelegramEnabled reports whether run summaries can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Load reads .env and configs/config.yaml and exits on invalid config.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := LoadFrom(DefaultPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

// LoadFrom reads the YAML file at path, applies env overrides and defaults,
// then validates. A missing file only warns.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCRAPER_START_URL"); v != "" {
		c.StartURL = v
	}
	if v := os.Getenv("SCRAPER_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("SCRAPER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("SCRAPER_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if port := os.Getenv("PORT"); port != "" {
		c.ServerPort = port
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.StartURL == "" {
		c.StartURL = "https://ey.jobs/jobs/"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://ey.jobs"
	}
	if c.Company == "" {
		c.Company = "EY"
	}
	if c.StorePath == "" {
		c.StorePath = "ey_jobs.json"
	}
	if c.AnalysisPath == "" {
		c.AnalysisPath = "page_analysis.json"
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
	if c.BlockedResources == nil {
		c.BlockedResources = []string{"image", "stylesheet", "font", "media"}
	}
	if c.ListingTimeout == 0 {
		c.ListingTimeout = 30 * time.Second
	}
	if c.ListingSettle == 0 {
		c.ListingSettle = 2 * time.Second
	}
	if c.DetailTimeout == 0 {
		c.DetailTimeout = 25 * time.Second
	}
	if c.DetailSettle == 0 {
		c.DetailSettle = time.Second
	}
	if c.DetailURLPattern == "" {
		c.DetailURLPattern = "/job/"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 10
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	if c.RemovedPolicy == "" {
		c.RemovedPolicy = RemovedRetain
	}
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	//pagination zeros are filled by paginate.Options
}

// Validate checks values that would break a run halfway through.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"start_url": c.StartURL, "base_url": c.BaseURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.Concurrency < 1 || c.Concurrency > 50 {
		return fmt.Errorf("concurrency must be between 1 and 50, got %d", c.Concurrency)
	}
	if c.RemovedPolicy != RemovedRetain && c.RemovedPolicy != RemovedPrune {
		return fmt.Errorf("removed_policy must be %q or %q, got %q", RemovedRetain, RemovedPrune, c.RemovedPolicy)
	}
	if _, err := regexp.Compile(c.DetailURLPattern); err != nil {
		return fmt.Errorf("invalid detail_url_pattern: %w", err)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		log.Println("⚠️ Telegram needs both TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID. Notifications disabled.")
	}
	return nil
}
