package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./newstrack.db" description:"Path to the sqlite database file"`

	// News source configuration
	NewsSource   string `long:"news-source" env:"NEWS_SOURCE" default:"newsapi" choice:"newsapi" choice:"googlenews" description:"News search backend"`
	NewsAPIKey   string `long:"news-api-key" env:"NEWS_API_KEY" description:"API key for the News API backend"`
	NewsAPIUrl   string `long:"news-api-url" env:"NEWS_API_URL" default:"https://newsapi.org/v2/everything" description:"News API search endpoint"`
	NewsPageSize int    `long:"news-page-size" env:"NEWS_PAGE_SIZE" default:"10" description:"Number of articles requested per keyword search"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WatchlistFile     string `long:"watchlist-file" env:"WATCHLIST_FILE" description:"Optional YAML file with keywords to track at startup"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for story refreshing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduler interval in seconds"`
	SourceTimeout     int    `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"10" description:"Timeout in seconds for a single news source call"`
	ExtractContent    bool   `long:"extract-content" env:"EXTRACT_CONTENT" description:"Fetch and extract full article content in the background"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newstrack/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		NewsSource:        raw.NewsSource,
		NewsAPIKey:        raw.NewsAPIKey,
		NewsAPIUrl:        raw.NewsAPIUrl,
		NewsPageSize:      raw.NewsPageSize,
		Port:              raw.Port,
		WatchlistFile:     raw.WatchlistFile,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SourceTimeout:     raw.SourceTimeout,
		ExtractContent:    raw.ExtractContent,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Exposed for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
