package crawler

import (
	"context"

	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/internal/extract"
	"sjsage522/foreclosureworker/logger"
	apperrors "sjsage522/foreclosureworker/pkg/errors"
	"sjsage522/foreclosureworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// CaseDetailCrawler opens a case detail page and extracts its property
// address and defendants.
type CaseDetailCrawler struct {
	BaseCrawler
	opts Options
}

// NewCaseDetailCrawler creates a new detail crawler
func NewCaseDetailCrawler(opts Options, cacheSvc cache.CacheService) *CaseDetailCrawler {
	if opts.DefaultState == "" {
		opts.DefaultState = "CT"
	}
	return &CaseDetailCrawler{
		BaseCrawler: newBase("CaseDetailCrawler", opts, cacheSvc),
		opts:        opts,
	}
}

// FetchDetail returns the defendant records of the case at docketURL. A page
// without an address or defendants yields fewer fields or no records, never
// an error; only loading the page can fail.
func (c *CaseDetailCrawler) FetchDetail(ctx context.Context, s Session, docketURL string) ([]RawDefendantRecord, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	if err := s.Navigate(ctx, docketURL); err != nil {
		return nil, c.observe(apperrors.NewDetailFetchFailed(Provider, docketURL, err))
	}
	if err := s.WaitFor(ctx, "body", c.opts.BodyWait); err != nil {
		return nil, apperrors.NewDetailFetchFailed(Provider, docketURL, err)
	}
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, apperrors.NewDetailFetchFailed(Provider, docketURL, err)
	}
	doc, err := c.createDocument(html)
	if err != nil {
		return nil, err
	}

	docket := helpers.QueryParam(docketURL, "DocketNo")
	records := ExtractRecords(doc, docket, c.opts.DefaultState)

	logger.ForCrawler(c.GetName()).Debug().
		Str("docket", docket).
		Int("records", len(records)).
		Msg("extracted defendant records")
	return records, nil
}

// ExtractRecords turns a parsed case detail page into defendant records.
// The free-text layout yields one record per named defendant; the parties
// grid, or a page with an address but no names, yields one combined record.
func ExtractRecords(doc *goquery.Document, docket, defaultState string) []RawDefendantRecord {
	raw := extract.LocateAddress(doc)
	addr := extract.ParseAddress(raw)

	state := addr.State
	if state == "" {
		state = defaultState
	}
	base := RawDefendantRecord{
		DocketNumber: docket,
		Address:      addr.Street,
		Town:         addr.Town,
		State:        state,
		Zip:          addr.Zip,
	}

	strategy := extract.SelectStrategy(doc)
	slots := strategy.Extract(doc)

	if strategy.PerDefendant() && slots.Count() > 0 {
		records := make([]RawDefendantRecord, 0, slots.Count())
		for i, name := range slots {
			if name == "" {
				continue
			}
			rec := base
			rec.Name = name
			rec.SetSlot(i+1, name)
			records = append(records, rec)
		}
		return records
	}

	if raw == "" && slots.Count() == 0 {
		return nil
	}

	rec := base
	for i, name := range slots {
		rec.SetSlot(i+1, name)
	}
	return []RawDefendantRecord{rec}
}
