package worker

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/pipeline"
	"sjsage522/foreclosureworker/logger"
	"sjsage522/foreclosureworker/services/publisher"
)

// TownRunner scrapes a single town
type TownRunner interface {
	Run(ctx context.Context, town string) (*pipeline.Result, error)
}

// ResultStore persists a town's cases and defendant records
type ResultStore interface {
	SaveResult(ctx context.Context, cases []crawler.ScrapedCase, records []crawler.RawDefendantRecord) error
}

// Stats summarizes one pass over the configured towns
type Stats struct {
	Towns       int
	FailedTowns int
	Cases       int
	Defendants  int
	Published   int
}

// Worker handles the scraping, persisting and publishing process
type Worker struct {
	ctx           context.Context
	runner        TownRunner
	towns         []string
	store         ResultStore
	publisher     publisher.Publisher
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
}

// NewWorker creates a new worker. store and pub may be nil.
func NewWorker(
	ctx context.Context,
	runner TownRunner,
	towns []string,
	store ResultStore,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:           ctx,
		runner:        runner,
		towns:         towns,
		store:         store,
		publisher:     pub,
		logger:        logger,
		crawlInterval: crawlInterval,
	}
}

// Start runs a pass over every town, then sleeps for the crawl interval,
// until the context is cancelled.
func (w *Worker) Start() error {
	for {
		start := time.Now()
		stats := w.RunOnce()
		w.logger.LogInfo("pass finished in %s: %d towns (%d failed), %d cases, %d defendants, %d published",
			time.Since(start), stats.Towns, stats.FailedTowns, stats.Cases, stats.Defendants, stats.Published)

		timer := time.NewTimer(w.crawlInterval)
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce scrapes the towns one at a time and then trims the streams
func (w *Worker) RunOnce() Stats {
	var stats Stats
	for _, town := range w.towns {
		if w.ctx.Err() != nil {
			break
		}
		stats.Towns++

		result, err := w.runner.Run(w.ctx, town)
		if err != nil {
			stats.FailedTowns++
			w.logger.LogError("town:"+town, err)
			continue
		}

		stats.Cases += len(result.Cases)
		stats.Defendants += len(result.Defendants)
		w.persist(result)
		stats.Published += w.publish(result)
	}

	// Trim all streams after the pass
	if w.publisher != nil {
		if err := w.publisher.TrimStreams(w.ctx); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}
	return stats
}

func (w *Worker) persist(result *pipeline.Result) {
	if w.store == nil || len(result.Cases) == 0 {
		return
	}
	if err := w.store.SaveResult(w.ctx, result.Cases, result.Defendants); err != nil {
		w.logger.LogError("store:"+result.Town, err)
	}
}

// publish sends every case and defendant record and returns how many went out
func (w *Worker) publish(result *pipeline.Result) int {
	if w.publisher == nil {
		return 0
	}

	published := 0
	for i, c := range result.Cases {
		if w.send(result.Town, publisher.KeyCase, c) {
			published++
		}
		if i == 0 && logger.IsDebugEnabled() {
			logger.ForWorker().Debug().Interface("case", c).Msg("first case of town")
		}
	}
	for _, rec := range result.Defendants {
		if w.send(result.Town, publisher.KeyDefendant, rec) {
			published++
		}
	}
	return published
}

func (w *Worker) send(town, key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.LogError("publisher:"+town, err)
		return false
	}
	if err := w.publisher.Publish(w.ctx, key, data); err != nil {
		w.logger.LogError("publisher:"+town, err)
		return false
	}
	return true
}
