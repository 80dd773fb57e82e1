package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/foreclosureworker/config"
	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/internal"
	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/extract"
	"sjsage522/foreclosureworker/internal/pipeline"
	"sjsage522/foreclosureworker/logger"
	"sjsage522/foreclosureworker/services/cache"
	"sjsage522/foreclosureworker/services/publisher"
	"sjsage522/foreclosureworker/services/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg       config.Config
	overrides config.Config
)

var rootCmd = &cobra.Command{
	Use:          "foreclosureworker",
	Short:        "Scrapes Connecticut foreclosure cases and their defendants by town.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if err := cfg.Merge(overrides); err != nil {
			return err
		}
		return cfg.Validate()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&overrides.UseChrome, "chrome", false, "drive a Chrome browser instead of posting the form over HTTP")
	flags.StringVar(&overrides.ChromeDBAddr, "chromedb", "", "remote Chrome DevTools endpoint (ws://...)")
	flags.DurationVar(&overrides.PolitenessDelay, "delay", 0, "pause between case detail requests")
	flags.StringVar(&overrides.DatabaseURL, "db", "", "Postgres DSN for reference towns and results")
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Set up context with cancellation on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeDependencies wires the services the commands share. A publisher
// is only connected when withPublisher is set.
func initializeDependencies(ctx context.Context, cfg config.Config, withPublisher bool) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{
		Journal: helpers.NewLogger(cfg.ErrorLogFile),
	}

	// Initialize cache service, falling back to process memory
	memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := memcache.Ping(); err != nil {
		logger.ForCache().WithError(err).Warn().Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, using in-memory rate-limit cache")
		deps.Cache = cache.NewMemoryCache()
	} else {
		deps.Cache = memcache
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	// Reference towns come from the database when one is configured
	var towns extract.TownSource = extract.ConnecticutTowns
	if cfg.DatabaseURL != "" {
		st, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.Store = st
		towns = st
		logger.Info("Connected to database")
	}
	validator, err := extract.LoadTownValidator(ctx, towns)
	if err != nil {
		deps.Cleanup()
		return nil, err
	}
	deps.Towns = validator

	if withPublisher {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			deps.Cleanup()
			return nil, err
		}
		deps.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.UseChrome {
		deps.Sessions = crawler.ChromeSessionOpener(crawler.ChromeOptions{
			RemoteAddr:    cfg.ChromeDBAddr,
			Headless:      cfg.Headless,
			SettleTimeout: cfg.FormWait,
		})
	} else {
		deps.Sessions = crawler.FormSessionOpener(cfg.FormWait + cfg.BodyWait)
	}

	return deps, nil
}

// newPipeline builds the town pipeline over deps
func newPipeline(cfg config.Config, deps *internal.Dependencies) *pipeline.TownScrapePipeline {
	opts := crawler.OptionsFromConfig(cfg)
	return pipeline.New(
		deps.Sessions,
		crawler.NewCaseDiscoveryCrawler(opts, deps.Cache),
		crawler.NewCaseDetailCrawler(opts, deps.Cache),
		deps.Towns,
		pipeline.WithDelay(cfg.PolitenessDelay),
		pipeline.WithJournal(deps.Journal),
	)
}
