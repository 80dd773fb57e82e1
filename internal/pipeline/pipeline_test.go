package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"sjsage522/foreclosureworker/internal/crawler"
	"sjsage522/foreclosureworker/internal/crawler/crawlertest"
	"sjsage522/foreclosureworker/internal/extract"
	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSession only tracks whether it was closed
type mockSession struct {
	closed bool
}

func (m *mockSession) Navigate(context.Context, string) error               { return nil }
func (m *mockSession) WaitFor(context.Context, string, time.Duration) error { return nil }
func (m *mockSession) SetValue(context.Context, string, string) error       { return nil }
func (m *mockSession) Click(context.Context, string) error                  { return nil }
func (m *mockSession) HTML(context.Context) (string, error)                 { return "", nil }
func (m *mockSession) URL(context.Context) (string, error)                  { return "", nil }

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

type mockDiscoverer struct {
	cases []crawler.ScrapedCase
	err   error
}

func (m *mockDiscoverer) Discover(context.Context, crawler.Session, string) ([]crawler.ScrapedCase, error) {
	return m.cases, m.err
}

func (m *mockDiscoverer) GetName() string { return "mockDiscoverer" }

type mockDetailFetcher struct {
	mu      sync.Mutex
	records map[string][]crawler.RawDefendantRecord
	errs    map[string]error
	calls   []time.Time
}

func (m *mockDetailFetcher) FetchDetail(_ context.Context, _ crawler.Session, url string) ([]crawler.RawDefendantRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, time.Now())
	m.mu.Unlock()
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	return m.records[url], nil
}

func (m *mockDetailFetcher) GetName() string { return "mockDetailFetcher" }

type mockJournal struct {
	errors []string
}

func (m *mockJournal) LogError(component string, err error) {
	m.errors = append(m.errors, component+": "+err.Error())
}

func (m *mockJournal) LogInfo(string, ...interface{}) {}

func openerFor(s *mockSession) crawler.SessionOpener {
	return func(context.Context) (crawler.Session, error) { return s, nil }
}

func TestRunNormalizesRecords(t *testing.T) {
	session := &mockSession{}
	discoverer := &mockDiscoverer{cases: []crawler.ScrapedCase{
		{DocketNumber: "A-1", DocketURL: "u1", Town: "Bethel"},
		{DocketNumber: "A-2", DocketURL: "", Town: "Bethel"},
		{DocketNumber: "A-3", DocketURL: "u3", Town: "Bethel"},
	}}
	details := &mockDetailFetcher{records: map[string][]crawler.RawDefendantRecord{
		"u1": {{DocketNumber: "A-1", Address: "12 Elm St a/k/a 14 Elm St", Town: "BETHEL", State: "CT"}},
		"u3": {{Address: "5 Deer Run", Town: "Unit 82", State: "CT"}},
	}}

	p := New(openerFor(session), discoverer, details, extract.NewTownValidator([]string{"Bethel"}), WithDelay(0))
	result, err := p.Run(context.Background(), "Bethel")
	require.NoError(t, err)

	assert.True(t, session.closed)
	assert.Len(t, result.Cases, 3)
	require.Len(t, result.Defendants, 2)

	assert.Equal(t, "12 Elm St (aka 14 Elm St)", result.Defendants[0].Address)
	assert.Equal(t, "BETHEL", result.Defendants[0].Town)

	assert.Equal(t, "A-3", result.Defendants[1].DocketNumber)
	assert.Equal(t, "", result.Defendants[1].Town)
	assert.Len(t, details.calls, 2)
}

func TestRunSkipsFailedCase(t *testing.T) {
	session := &mockSession{}
	journal := &mockJournal{}
	discoverer := &mockDiscoverer{cases: []crawler.ScrapedCase{
		{DocketNumber: "A-1", DocketURL: "u1"},
		{DocketNumber: "A-2", DocketURL: "u2"},
		{DocketNumber: "A-3", DocketURL: "u3"},
	}}
	details := &mockDetailFetcher{
		records: map[string][]crawler.RawDefendantRecord{
			"u1": {{DocketNumber: "A-1", Name: "John Smith"}},
			"u3": {{DocketNumber: "A-3", Name: "Jane Doe"}},
		},
		errs: map[string]error{"u2": apperrors.NewDetailFetchFailed("ct-judicial", "u2", errors.New("timeout"))},
	}

	p := New(openerFor(session), discoverer, details, extract.NewTownValidator(nil), WithDelay(0), WithJournal(journal))
	result, err := p.Run(context.Background(), "Bethel")
	require.NoError(t, err)

	assert.Len(t, result.Defendants, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "A-2", result.Failures[0].DocketNumber)
	assert.True(t, apperrors.IsType(result.Failures[0].Err, apperrors.ErrorTypeDetailFetchFailed))
	require.Len(t, journal.errors, 1)
	assert.Contains(t, journal.errors[0], "pipeline:Bethel: case A-2")
	assert.True(t, session.closed)
}

func TestRunDiscoveryFailure(t *testing.T) {
	session := &mockSession{}
	discoverer := &mockDiscoverer{err: apperrors.NewDiscoveryFailed("ct-judicial", "results table not found", nil)}

	p := New(openerFor(session), discoverer, &mockDetailFetcher{}, extract.NewTownValidator(nil))
	result, err := p.Run(context.Background(), "Bethel")
	assert.Nil(t, result)

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseDiscovery, phaseErr.Phase)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDiscoveryFailed))
	assert.True(t, session.closed)
}

func TestRunNoCases(t *testing.T) {
	session := &mockSession{}
	details := &mockDetailFetcher{}
	p := New(openerFor(session), &mockDiscoverer{cases: []crawler.ScrapedCase{}}, details, extract.NewTownValidator(nil))

	result, err := p.Run(context.Background(), "Union")
	require.NoError(t, err)
	assert.Empty(t, result.Cases)
	assert.Empty(t, result.Defendants)
	assert.Empty(t, details.calls)
	assert.True(t, session.closed)
}

func TestRunSessionFailure(t *testing.T) {
	open := func(context.Context) (crawler.Session, error) {
		return nil, apperrors.NewSession("chrome", "failed to start browser tab", nil)
	}
	p := New(open, &mockDiscoverer{}, &mockDetailFetcher{}, extract.NewTownValidator(nil))

	_, err := p.Run(context.Background(), "Bethel")
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseSession, phaseErr.Phase)
}

func TestRunPolitenessDelay(t *testing.T) {
	discoverer := &mockDiscoverer{cases: []crawler.ScrapedCase{
		{DocketNumber: "A-1", DocketURL: "u1"},
		{DocketNumber: "A-2", DocketURL: "u2"},
		{DocketNumber: "A-3", DocketURL: "u3"},
	}}
	details := &mockDetailFetcher{}

	delay := 30 * time.Millisecond
	p := New(openerFor(&mockSession{}), discoverer, details, extract.NewTownValidator(nil), WithDelay(delay))
	_, err := p.Run(context.Background(), "Bethel")
	require.NoError(t, err)

	require.Len(t, details.calls, 3)
	for i := 1; i < len(details.calls); i++ {
		assert.GreaterOrEqual(t, details.calls[i].Sub(details.calls[i-1]), delay)
	}
}

func TestRunCancelledBetweenCases(t *testing.T) {
	session := &mockSession{}
	discoverer := &mockDiscoverer{cases: []crawler.ScrapedCase{
		{DocketNumber: "A-1", DocketURL: "u1"},
		{DocketNumber: "A-2", DocketURL: "u2"},
	}}
	details := &mockDetailFetcher{}

	ctx, cancel := context.WithCancel(context.Background())
	p := New(openerFor(session), discoverer, details, extract.NewTownValidator(nil), WithDelay(time.Hour))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := p.Run(ctx, "Bethel")

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseDetail, phaseErr.Phase)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, details.calls, 1)
	assert.True(t, session.closed)
}

// End-to-end over the fake site: one of three detail pages fails, the other
// two cases still produce records.
func TestRunAgainstSite(t *testing.T) {
	site := &crawlertest.Site{
		Results: map[string]string{
			"Bethel": crawlertest.ResultsTable(
				crawlertest.Row{Town: "BETHEL", CaseName: "BANK v. SMITH", Docket: "DBD-CV23-1"},
				crawlertest.Row{Town: "BETHEL", CaseName: "BANK v. DOE", Docket: "DBD-CV23-2"},
				crawlertest.Row{Town: "BETHEL", CaseName: "BANK v. ROE", Docket: "DBD-CV23-3"},
			),
		},
		Details: map[string]string{
			"DBD-CV23-1": crawlertest.DetailPage("5 Deer Run, Unit 82, Bethel, CT 06801", "John Smith"),
			"DBD-CV23-3": crawlertest.DetailPage("7 Oak Ave aka 9 Oak Ave, Danbury, CT 06810", "Mary Roe", "Rick Roe"),
		},
		Status: map[string]int{"DBD-CV23-2": http.StatusBadGateway},
	}
	server := crawlertest.NewServer(site)
	defer server.Close()

	opts := crawler.Options{
		SearchURL:    server.URL + crawlertest.SearchPath,
		DetailURL:    server.URL + crawlertest.DetailPath + "?DocketNo=",
		DefaultState: "CT",
		FormWait:     time.Second,
		BodyWait:     time.Second,
	}
	p := New(
		crawler.FormSessionOpener(5*time.Second),
		crawler.NewCaseDiscoveryCrawler(opts, nil),
		crawler.NewCaseDetailCrawler(opts, nil),
		extract.NewTownValidator([]string{"Bethel"}),
		WithDelay(time.Millisecond),
	)

	result, err := p.Run(context.Background(), "Bethel")
	require.NoError(t, err)

	assert.Len(t, result.Cases, 3)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "DBD-CV23-2", result.Failures[0].DocketNumber)

	require.Len(t, result.Defendants, 3)
	assert.Equal(t, "John Smith", result.Defendants[0].Name)
	assert.Equal(t, "5 Deer Run Unit 82", result.Defendants[0].Address)
	assert.Equal(t, "Bethel", result.Defendants[0].Town)

	// The alias swallows the rest of the address, so no town is parsed
	assert.Equal(t, "7 Oak Ave (aka 9 Oak Ave, Danbury, CT 06810)", result.Defendants[1].Address)
	assert.Equal(t, "", result.Defendants[1].Town)
	assert.Equal(t, "Rick Roe", result.Defendants[2].Name)
	assert.Equal(t, "DBD-CV23-3", result.Defendants[2].DocketNumber)

	assert.Equal(t, []string{"DBD-CV23-1", "DBD-CV23-2", "DBD-CV23-3"}, site.DetailHits())
}
