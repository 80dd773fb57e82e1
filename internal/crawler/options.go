package crawler

import (
	"time"

	"sjsage522/foreclosureworker/config"
	"sjsage522/foreclosureworker/services/cache"
)

// RateLimitCacheKey is the memcache key holding the site's rate-limit block
const RateLimitCacheKey = "ct_judicial_rate_limited"

// Options configures the case crawlers
type Options struct {
	SearchURL    string
	DetailURL    string
	DefaultState string
	FormWait     time.Duration
	BodyWait     time.Duration
	BlockTime    time.Duration
}

// OptionsFromConfig derives crawler options from the application config
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SearchURL:    cfg.SearchURL,
		DetailURL:    cfg.DetailURL,
		DefaultState: cfg.DefaultState,
		FormWait:     cfg.FormWait,
		BodyWait:     cfg.BodyWait,
		BlockTime:    cfg.RateLimitBlock,
	}
}

func newBase(name string, opts Options, cacheSvc cache.CacheService) BaseCrawler {
	return BaseCrawler{
		Name:      name,
		CacheKey:  RateLimitCacheKey,
		CacheSvc:  cacheSvc,
		BlockTime: opts.BlockTime,
	}
}
