package crawler

import (
	"fmt"
	"strings"
	"time"

	"sjsage522/foreclosureworker/logger"
	apperrors "sjsage522/foreclosureworker/pkg/errors"
	"sjsage522/foreclosureworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// Provider names the judicial site in errors and logs
const Provider = "ct-judicial"

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	Name      string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// guard refuses to send requests while the site's rate-limit block is set.
func (c *BaseCrawler) guard() error {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return nil
	}
	if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
		return apperrors.NewRateLimit(Provider, fmt.Sprintf("%ds (blocked by %s)", int(c.BlockTime/time.Second), c.CacheKey))
	}
	return nil
}

// observe records a rate-limit block when err says the site throttled us.
// It returns err unchanged.
func (c *BaseCrawler) observe(err error) error {
	if err == nil || c.CacheSvc == nil || c.CacheKey == "" {
		return err
	}
	if apperrors.IsType(err, apperrors.ErrorTypeRateLimit) {
		value := []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second)))
		if setErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); setErr != nil {
			logger.ForCrawler(c.GetName()).WithError(setErr).Warn().Msg("failed to record rate limit block")
		} else {
			logger.ForCrawler(c.GetName()).Warn().Dur("block", c.BlockTime).Msg("rate limited, blocking further requests")
		}
	}
	return err
}

// createDocument creates a goquery document from page HTML
func (c *BaseCrawler) createDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.NewParsing(Provider, "failed to parse HTML", err)
	}
	return doc, nil
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Name
}

// GetProvider returns the provider name for the crawler
func (c *BaseCrawler) GetProvider() string {
	return Provider
}
