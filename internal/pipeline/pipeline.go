package pipeline

import (
	"context"
	"fmt"
	"time"

	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/extract"
	"sjsage522/foreclosureworker/logger"
)

// Phase names the step of a town run that failed
type Phase string

const (
	PhaseSession   Phase = "session"
	PhaseDiscovery Phase = "discovery"
	PhaseDetail    Phase = "detail"
)

// PhaseError is the single error a town run returns
type PhaseError struct {
	Phase Phase
	Town  string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed for %s: %v", e.Phase, e.Town, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// CaseFailure records a case whose detail page could not be processed
type CaseFailure struct {
	DocketNumber string
	DocketURL    string
	Err          error
}

// Result is the outcome of one town run
type Result struct {
	Town       string
	Cases      []crawler.ScrapedCase
	Defendants []crawler.RawDefendantRecord
	Failures   []CaseFailure
}

// TownScrapePipeline runs discovery and then every case's detail page for a
// town over one session, sequentially and with a fixed delay between detail
// requests.
type TownScrapePipeline struct {
	open       crawler.SessionOpener
	discoverer crawler.Discoverer
	details    crawler.DetailFetcher
	towns      *extract.TownValidator
	delay      time.Duration
	journal    helpers.LoggerInterface
}

// Option customizes a TownScrapePipeline
type Option func(*TownScrapePipeline)

// WithDelay sets the pause between successive detail fetches.
func WithDelay(d time.Duration) Option {
	return func(p *TownScrapePipeline) { p.delay = d }
}

// WithJournal records per-case failures in journal as well as the log.
func WithJournal(journal helpers.LoggerInterface) Option {
	return func(p *TownScrapePipeline) { p.journal = journal }
}

// New creates a pipeline. towns is shared read-only between runs.
func New(open crawler.SessionOpener, discoverer crawler.Discoverer, details crawler.DetailFetcher, towns *extract.TownValidator, opts ...Option) *TownScrapePipeline {
	p := &TownScrapePipeline{
		open:       open,
		discoverer: discoverer,
		details:    details,
		towns:      towns,
		delay:      time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scrapes one town. It returns either a (possibly empty) result or a
// *PhaseError naming the failed phase. A failing case is logged and skipped.
func (p *TownScrapePipeline) Run(ctx context.Context, town string) (*Result, error) {
	log := logger.ForPipeline(town)
	started := time.Now()

	session, err := p.open(ctx)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseSession, Town: town, Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn().Msg("failed to close session")
		}
	}()

	cases, err := p.discoverer.Discover(ctx, session, town)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseDiscovery, Town: town, Err: err}
	}

	result := &Result{Town: town, Cases: cases}
	if len(cases) == 0 {
		log.Info().Msg("no cases found")
		return result, nil
	}

	fetched := 0
	for _, c := range cases {
		if c.DocketURL == "" {
			continue
		}
		if fetched > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return nil, &PhaseError{Phase: PhaseDetail, Town: town, Err: err}
			}
		}
		fetched++

		records, err := p.details.FetchDetail(ctx, session, c.DocketURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &PhaseError{Phase: PhaseDetail, Town: town, Err: ctx.Err()}
			}
			p.recordFailure(log, town, c, err)
			result.Failures = append(result.Failures, CaseFailure{DocketNumber: c.DocketNumber, DocketURL: c.DocketURL, Err: err})
			continue
		}

		for i := range records {
			if records[i].DocketNumber == "" {
				records[i].DocketNumber = c.DocketNumber
			}
			p.normalize(&records[i])
		}
		result.Defendants = append(result.Defendants, records...)
	}

	log.Info().
		Int("cases", len(result.Cases)).
		Int("defendants", len(result.Defendants)).
		Int("failures", len(result.Failures)).
		Dur("elapsed", time.Since(started)).
		Msg("town scrape finished")
	return result, nil
}

func (p *TownScrapePipeline) recordFailure(log *logger.Logger, town string, c crawler.ScrapedCase, err error) {
	log.WithError(err).Warn().Str("docket", c.DocketNumber).Msg("skipping case")
	if p.journal != nil {
		p.journal.LogError("pipeline:"+town, fmt.Errorf("case %s: %w", c.DocketNumber, err))
	}
}

// normalize puts any alias into the "(aka ...)" suffix form and blanks a town
// outside the reference set.
func (p *TownScrapePipeline) normalize(rec *crawler.RawDefendantRecord) {
	rec.Address = extract.NormalizeAka(rec.Address)
	if rec.Town == "" || (p.towns != nil && p.towns.Valid(rec.Town)) {
		return
	}
	if p.towns != nil && logger.IsDebugEnabled() {
		if near, score := p.towns.Suggest(rec.Town); near != "" {
			logger.Debug("dropping unknown town %q for %s, closest is %q (%.2f)", rec.Town, rec.DocketNumber, near, score)
		}
	}
	rec.Town = ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
