// Package crawlertest serves a fake civil inquiry site for tests: an ASP.NET
// style property address search form with postback validation and case
// detail pages keyed by docket number.
package crawlertest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	SearchPath = "/PropertyAddressSearch.aspx"
	DetailPath = "/CaseDetail/PublicCaseDetail.aspx"

	ViewState       = "dDwtMTI3OTMzNDM4NDs7Pg=="
	TownFieldName   = "ctl00$ContentPlaceHolder1$txtCityTown"
	SubmitFieldName = "ctl00$ContentPlaceHolder1$btnSubmit"
)

// Row is one line of the search results grid
type Row struct {
	Town     string
	Street   string
	Zip      string
	CaseName string
	Docket   string
	// NoLink leaves the docket cell as plain text.
	NoLink bool
}

// Site is the fake court site's content
type Site struct {
	// Results maps a submitted town to the markup placed under the form.
	Results map[string]string
	// Details maps a DocketNo query value to its page.
	Details map[string]string
	// Status maps a DocketNo to a forced HTTP status.
	Status map[string]int
	// SearchStatus, when set, is returned for every search request.
	SearchStatus int

	mu         sync.Mutex
	towns      []string
	detailHits []string
}

// NewServer starts an httptest server for site.
func NewServer(site *Site) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(SearchPath, site.search)
	mux.HandleFunc(DetailPath, site.detail)
	return httptest.NewServer(mux)
}

// SubmittedTowns returns the towns posted to the search form, in order.
func (s *Site) SubmittedTowns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.towns...)
}

// DetailHits returns the docket numbers requested from the detail page, in order.
func (s *Site) DetailHits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.detailHits...)
}

func (s *Site) search(w http.ResponseWriter, r *http.Request) {
	if s.SearchStatus != 0 {
		w.WriteHeader(s.SearchStatus)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodGet {
		fmt.Fprint(w, SearchForm(""))
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("__VIEWSTATE") != ViewState || r.PostForm.Get(SubmitFieldName) == "" {
		http.Error(w, "invalid postback", http.StatusBadRequest)
		return
	}

	town := r.PostForm.Get(TownFieldName)
	s.mu.Lock()
	s.towns = append(s.towns, town)
	s.mu.Unlock()

	fmt.Fprint(w, SearchForm(s.Results[town]))
}

func (s *Site) detail(w http.ResponseWriter, r *http.Request) {
	docket := r.URL.Query().Get("DocketNo")
	s.mu.Lock()
	s.detailHits = append(s.detailHits, docket)
	s.mu.Unlock()

	if status, ok := s.Status[docket]; ok {
		w.WriteHeader(status)
		return
	}
	page, ok := s.Details[docket]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

// SearchForm renders the search page with extra markup below the form controls.
func SearchForm(extra string) string {
	return `<html><head><title>Property Address Search</title></head><body>
<form method="post" action="./PropertyAddressSearch.aspx" id="aspnetForm">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="` + ViewState + `" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev" />
<input name="` + TownFieldName + `" type="text" id="ctl00_ContentPlaceHolder1_txtCityTown" />
<input type="submit" name="` + SubmitFieldName + `" value="Search" id="ctl00_ContentPlaceHolder1_btnSubmit" />
<input type="submit" name="ctl00$ContentPlaceHolder1$btnClear" value="Clear" id="ctl00_ContentPlaceHolder1_btnClear" />
` + extra + `
</form></body></html>`
}

// ResultsTable renders the results grid with a header row.
func ResultsTable(rows ...Row) string {
	return PagedResultsTable(0, rows...)
}

// PagedResultsTable renders the results grid followed by a GridView pager
// row linking to pages 2..pages. No pager is written when pages < 2.
func PagedResultsTable(pages int, rows ...Row) string {
	var b strings.Builder
	b.WriteString(`<table id="ctl00_ContentPlaceHolder1_gvPropertyResults">`)
	b.WriteString("<tr><th>Town</th><th>Address</th><th>Zip</th><th>Case Name</th><th>Docket No</th><th>Property Type</th><th>Disposition</th></tr>")
	for _, r := range rows {
		docket := html.EscapeString(r.Docket)
		if !r.NoLink && r.Docket != "" {
			docket = fmt.Sprintf(`<a href="CaseDetail/PublicCaseDetail.aspx?DocketNo=%s">%s</a>`, html.EscapeString(r.Docket), docket)
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>Residential</td><td></td></tr>",
			html.EscapeString(r.Town), html.EscapeString(r.Street), r.Zip, html.EscapeString(r.CaseName), docket)
	}
	if pages > 1 {
		b.WriteString(`<tr class="pager"><td colspan="7"><table><tr><td><span>1</span></td>`)
		for p := 2; p <= pages; p++ {
			fmt.Fprintf(&b, `<td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvPropertyResults','Page$%d')">%d</a></td>`, p, p)
		}
		b.WriteString("</tr></table></td></tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// DetailPage renders a case detail page with a property address row and a
// free-text party list of "D-0n name Non-Appearing" lines.
func DetailPage(address string, defendants ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>\n<table>")
	fmt.Fprintf(&b, `<tr id="ctl00_ContentPlaceHolder1_CaseDetailBasicInfo1_PropAddressRow"><td>Property Address:</td><td>%s</td></tr>`, html.EscapeString(address))
	b.WriteString("</table>\n<div>Party Information\n")
	for i, name := range defendants {
		fmt.Fprintf(&b, "D-%02d %s Non-Appearing\n", i+1, html.EscapeString(name))
	}
	b.WriteString("</div>\n<p>Click here to view documents</p>\n</body></html>")
	return b.String()
}
