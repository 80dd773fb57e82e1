package crawler

import (
	"context"
	"net/http"
	"testing"

	"sjsage522/foreclosureworker/internal/crawler/crawlertest"
	apperrors "sjsage522/foreclosureworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(stringsReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractRecordsPerDefendant(t *testing.T) {
	doc := parse(t, crawlertest.DetailPage("5 Deer Run, Unit 82, Bethel, CT 06801", "John Smith", "Jane Smith"))

	got := ExtractRecords(doc, "DBD-CV23-6045123-S", "CT")
	want := []RawDefendantRecord{
		{DocketNumber: "DBD-CV23-6045123-S", Address: "5 Deer Run Unit 82", Town: "Bethel", State: "CT", Zip: "06801", D01: strPtr("John Smith"), Name: "John Smith"},
		{DocketNumber: "DBD-CV23-6045123-S", Address: "5 Deer Run Unit 82", Town: "Bethel", State: "CT", Zip: "06801", D02: strPtr("Jane Smith"), Name: "Jane Smith"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractRecords mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "d_01", got[0].SlotKey())
	assert.Equal(t, "d_02", got[1].SlotKey())
}

func TestExtractRecordsAddressOnly(t *testing.T) {
	doc := parse(t, crawlertest.DetailPage("123 Main St, Hartford"))

	got := ExtractRecords(doc, "HHD-CV24-6012345-S", "CT")
	want := []RawDefendantRecord{
		{DocketNumber: "HHD-CV24-6012345-S", Address: "123 Main St", Town: "Hartford", State: "CT"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractRecords mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, CombinedSlotKey, got[0].SlotKey())
}

func TestExtractRecordsPartyTable(t *testing.T) {
	doc := parse(t, `<html><body>
	<table><tr id="ctl00_ContentPlaceHolder1_CaseDetailBasicInfo1_PropAddressRow"><td>Property Address:</td><td>9 Elm St, Enfield, CT 06082</td></tr></table>
	<table id="ctl00_ContentPlaceHolder1_CaseDetailParties1_gvParties">
		<tr><td>D-01</td><td><span id="ctl00_ContentPlaceHolder1_CaseDetailParties1_gvParties_ctl02_lblPtyPartyName">DOE, JOHN</span></td></tr>
		<tr><td>D-03</td><td><span id="ctl00_ContentPlaceHolder1_CaseDetailParties1_gvParties_ctl03_lblPtyPartyName">ROE, MARY</span></td></tr>
	</table></body></html>`)

	got := ExtractRecords(doc, "HHD-CV24-1", "CT")
	want := []RawDefendantRecord{
		{DocketNumber: "HHD-CV24-1", Address: "9 Elm St", Town: "Enfield", State: "CT", Zip: "06082", D01: strPtr("DOE, JOHN"), D03: strPtr("ROE, MARY")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractRecords mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractRecordsNothingFound(t *testing.T) {
	doc := parse(t, "<html><body><p>D-02 Click here to view documents</p></body></html>")
	assert.Empty(t, ExtractRecords(doc, "X", "CT"))
}

func TestExtractRecordsDefaultState(t *testing.T) {
	doc := parse(t, crawlertest.DetailPage("1 Oak Ave, Bristol", "Bob Roe"))
	got := ExtractRecords(doc, "X", "NY")
	require.Len(t, got, 1)
	assert.Equal(t, "NY", got[0].State)
}

func TestFetchDetail(t *testing.T) {
	site := &crawlertest.Site{
		Details: map[string]string{
			"DBD-CV23-6045123-S": crawlertest.DetailPage("5 Deer Run, Bethel, CT 06801", "John Smith"),
		},
		Status: map[string]int{"BROKEN": http.StatusInternalServerError},
	}
	server := crawlertest.NewServer(site)
	defer server.Close()

	crawler := NewCaseDetailCrawler(testOptions(server.URL), NewMockCacheService())
	session := NewFormSession(nil)

	records, err := crawler.FetchDetail(context.Background(), session, server.URL+crawlertest.DetailPath+"?DocketNo=DBD%2DCV23%2D6045123%2DS")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "DBD-CV23-6045123-S", records[0].DocketNumber)
	assert.Equal(t, "John Smith", records[0].Name)
	assert.Equal(t, "Bethel", records[0].Town)

	_, err = crawler.FetchDetail(context.Background(), session, server.URL+crawlertest.DetailPath+"?DocketNo=BROKEN")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDetailFetchFailed))
	assert.Contains(t, err.Error(), "DocketNo=BROKEN")
}

func TestFetchDetailRateLimitSetsBlock(t *testing.T) {
	site := &crawlertest.Site{Status: map[string]int{"X": http.StatusTooManyRequests}}
	server := crawlertest.NewServer(site)
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := NewCaseDetailCrawler(testOptions(server.URL), mockCache)

	_, err := crawler.FetchDetail(context.Background(), NewFormSession(nil), server.URL+crawlertest.DetailPath+"?DocketNo=X")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))
	assert.Contains(t, mockCache.cache, RateLimitCacheKey)
}

func TestRawDefendantRecordSlots(t *testing.T) {
	var rec RawDefendantRecord
	for i := 1; i <= 5; i++ {
		rec.SetSlot(i, "name")
		require.NotNil(t, rec.Slot(i))
	}
	rec.SetSlot(3, "")
	assert.Nil(t, rec.D03)
	assert.Nil(t, rec.Slot(6))
	assert.Equal(t, CombinedSlotKey, rec.SlotKey())
}
