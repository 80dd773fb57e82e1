package internal

import (
	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/extract"
	"sjsage522/foreclosureworker/services/cache"
	"sjsage522/foreclosureworker/services/publisher"
	"sjsage522/foreclosureworker/services/store"
)

// Dependencies holds all service dependencies. Publisher and Store are nil
// when not configured.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     *store.Store
	Journal   *helpers.Logger
	Towns     *extract.TownValidator
	Sessions  crawler.SessionOpener
}

// Cleanup releases the connections held by the dependencies
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
	if d.Store != nil {
		if db, err := d.Store.DB.DB(); err == nil {
			db.Close()
		}
	}
}
