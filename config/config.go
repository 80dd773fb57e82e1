package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"dario.cat/mergo"
)

const (
	defaultSearchURL = "https://civilinquiry.jud.ct.gov/PropertyAddressSearch.aspx"
	defaultDetailURL = "https://civilinquiry.jud.ct.gov/CaseDetail/PublicCaseDetail.aspx?DocketNo="
)

// Config represents the application configuration
type Config struct {
	// Judicial site
	SearchURL    string
	DetailURL    string
	DefaultState string

	// Browser session
	UseChrome    bool
	ChromeDBAddr string
	Headless     bool

	// Bounded waits and politeness
	FormWait        time.Duration
	BodyWait        time.Duration
	PolitenessDelay time.Duration

	// Worker
	Towns         []string
	CrawlInterval time.Duration
	ErrorLogFile  string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		SearchURL:            getEnv("SEARCH_URL", defaultSearchURL),
		DetailURL:            getEnv("DETAIL_URL", defaultDetailURL),
		DefaultState:         strings.ToUpper(getEnv("DEFAULT_STATE", "CT")),
		UseChrome:            getEnvBool("USE_CHROME", false),
		ChromeDBAddr:         getEnv("CHROMEDB_ADDR", ""),
		Headless:             getEnvBool("HEADLESS", true),
		FormWait:             time.Duration(getEnvInt("FORM_WAIT_SECONDS", 10)) * time.Second,
		BodyWait:             time.Duration(getEnvInt("BODY_WAIT_SECONDS", 5)) * time.Second,
		PolitenessDelay:      time.Duration(getEnvInt("POLITENESS_DELAY_MS", 1000)) * time.Millisecond,
		Towns:                splitList(getEnv("TOWNS", "")),
		CrawlInterval:        time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 86400)) * time.Second,
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "error.log"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "foreclosures"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 500)) * time.Second,
		Environment:          getEnv("FORECLOSURE_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run without
func (c Config) Validate() error {
	if c.SearchURL == "" {
		return apperrors.NewConfiguration("SEARCH_URL must not be empty", nil)
	}
	if c.DetailURL == "" {
		return apperrors.NewConfiguration("DETAIL_URL must not be empty", nil)
	}
	if len(c.DefaultState) != 2 {
		return apperrors.NewConfiguration(fmt.Sprintf("DEFAULT_STATE must be a 2-letter code, got %q", c.DefaultState), nil)
	}
	if c.FormWait <= 0 || c.BodyWait <= 0 {
		return apperrors.NewConfiguration("wait timeouts must be positive", nil)
	}
	if c.PolitenessDelay < 0 {
		return apperrors.NewConfiguration("POLITENESS_DELAY_MS must not be negative", nil)
	}
	if c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// Merge overlays the non-zero fields of override onto c, e.g. CLI flags
// over the environment.
func (c *Config) Merge(override Config) error {
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return apperrors.NewConfiguration("failed to merge overrides", err)
	}
	return nil
}

// IsProduction reports whether the worker runs in production mode
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
