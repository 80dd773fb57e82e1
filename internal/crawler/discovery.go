package crawler

import (
	"context"
	"net/url"
	"strings"

	"sjsage522/foreclosureworker/helpers"
	"sjsage522/foreclosureworker/logger"
	apperrors "sjsage522/foreclosureworker/pkg/errors"
	"sjsage522/foreclosureworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

const (
	townInputSelector    = "#ctl00_ContentPlaceHolder1_txtCityTown"
	searchSubmitSelector = "#ctl00_ContentPlaceHolder1_btnSubmit"
	resultsTableSelector = "#ctl00_ContentPlaceHolder1_gvPropertyResults"
)

// Results grid columns read by the parser
const (
	colTown     = 0
	colCaseName = 3
	colDocket   = 4
)

var noResultsPhrases = []string{"No results found", "No records"}

// CaseDiscoveryCrawler submits the property address search for a town and
// reads the case rows of the results grid.
type CaseDiscoveryCrawler struct {
	BaseCrawler
	opts Options
}

// NewCaseDiscoveryCrawler creates a new discovery crawler
func NewCaseDiscoveryCrawler(opts Options, cacheSvc cache.CacheService) *CaseDiscoveryCrawler {
	return &CaseDiscoveryCrawler{
		BaseCrawler: newBase("CaseDiscoveryCrawler", opts, cacheSvc),
		opts:        opts,
	}
}

// Discover returns the cases listed for town, or an empty slice when the site
// reports that nothing matched. The town is sent to the form verbatim.
func (c *CaseDiscoveryCrawler) Discover(ctx context.Context, s Session, town string) ([]ScrapedCase, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	log := logger.ForCrawler(c.GetName()).WithField("town", town)

	if err := s.Navigate(ctx, c.opts.SearchURL); err != nil {
		return nil, c.observe(apperrors.NewDiscoveryFailed(Provider, "failed to load search form", err))
	}
	if err := s.WaitFor(ctx, townInputSelector, c.opts.FormWait); err != nil {
		return nil, apperrors.NewElementNotFound(Provider, townInputSelector, err)
	}
	if err := s.SetValue(ctx, townInputSelector, town); err != nil {
		return nil, apperrors.NewElementNotFound(Provider, townInputSelector, err)
	}
	if err := s.WaitFor(ctx, searchSubmitSelector, c.opts.FormWait); err != nil {
		return nil, apperrors.NewElementNotFound(Provider, searchSubmitSelector, err)
	}
	if err := s.Click(ctx, searchSubmitSelector); err != nil {
		return nil, c.observe(apperrors.NewDiscoveryFailed(Provider, "failed to submit search", err))
	}

	waitErr := s.WaitFor(ctx, resultsTableSelector, c.opts.FormWait)
	if waitErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	html, err := s.HTML(ctx)
	if err != nil {
		return nil, apperrors.NewDiscoveryFailed(Provider, "failed to read results page", err)
	}
	doc, err := c.createDocument(html)
	if err != nil {
		return nil, err
	}

	if waitErr != nil {
		if reportsNoResults(doc) {
			log.Info().Msg("search reported no results")
			return []ScrapedCase{}, nil
		}
		return nil, apperrors.NewDiscoveryFailed(Provider, "results table not found", waitErr)
	}

	pageURL, _ := s.URL(ctx)
	if pageURL == "" {
		pageURL = c.opts.SearchURL
	}
	cases := c.parseResults(doc, pageURL, town)
	log.Info().Int("cases", len(cases)).Msg("discovered cases")
	return cases, nil
}

func reportsNoResults(doc *goquery.Document) bool {
	text := doc.Find("body").Text()
	for _, phrase := range noResultsPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// parseResults reads the grid's own rows after the header. Nested tables,
// such as the pager, are not descended into, and rows without a docket number
// or with a non-http docket link are dropped.
func (c *CaseDiscoveryCrawler) parseResults(doc *goquery.Document, pageURL, town string) []ScrapedCase {
	base, _ := url.Parse(pageURL)
	cases := make([]ScrapedCase, 0)
	log := logger.ForCrawler(c.GetName())

	grid := doc.Find(resultsTableSelector).First()
	// the HTML parser always wraps rows in a tbody
	rows := grid.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.ChildrenFiltered("td")
		if cells.Length() <= colDocket {
			return
		}

		docketCell := cells.Eq(colDocket)
		docket := helpers.NormalizeSpace(docketCell.Text())
		if docket == "" {
			return
		}
		link, ok := c.docketURL(base, docketCell, docket)
		if !ok {
			log.Debug().Str("docket", docket).Msg("skipping row with non-http docket link")
			return
		}

		if rowTown := helpers.NormalizeSpace(cells.Eq(colTown).Text()); rowTown != "" && !strings.EqualFold(rowTown, strings.TrimSpace(town)) {
			log.Debug().Str("town", town).Str("row_town", rowTown).Str("docket", docket).Msg("result row lists a different town")
		}

		cases = append(cases, ScrapedCase{
			CaseName:     helpers.NormalizeSpace(cells.Eq(colCaseName).Text()),
			DocketNumber: docket,
			DocketURL:    link,
			Town:         town,
		})
	})
	return cases
}

// docketURL resolves the row's detail link, or builds it from the detail
// URL template when the row has none. It reports false for a link that does
// not resolve to an http(s) URL, such as a postback.
func (c *CaseDiscoveryCrawler) docketURL(base *url.URL, cell *goquery.Selection, docket string) (string, bool) {
	if href, ok := cell.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return "", false
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
			return "", false
		}
		return ref.String(), true
	}
	return c.opts.DetailURL + url.QueryEscape(strings.ReplaceAll(docket, "-", "")), true
}
