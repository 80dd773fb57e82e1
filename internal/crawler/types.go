package crawler

import (
	"context"

	"sjsage522/foreclosureworker/internal/extract"
)

// ScrapedCase represents one row of a town's case search results
type ScrapedCase struct {
	CaseName     string `json:"case_name"`
	DocketNumber string `json:"docket_number"`
	DocketURL    string `json:"docket_url"`
	Town         string `json:"town"`
}

// RawDefendantRecord represents one extracted (address, defendant) tuple of a case.
// A per-defendant record has Name set and exactly one slot populated; a
// combined record leaves Name empty and carries all five slots.
type RawDefendantRecord struct {
	DocketNumber string  `json:"docket_number"`
	Address      string  `json:"address"`
	Town         string  `json:"town"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	D01          *string `json:"d_01"`
	D02          *string `json:"d_02"`
	D03          *string `json:"d_03"`
	D04          *string `json:"d_04"`
	D05          *string `json:"d_05"`
	Name         string  `json:"name,omitempty"`
}

// CombinedSlotKey identifies a combined record among a case's defendant rows.
const CombinedSlotKey = "combined"

// Slot returns the name held in slot i (1-based).
func (r *RawDefendantRecord) Slot(i int) *string {
	switch i {
	case 1:
		return r.D01
	case 2:
		return r.D02
	case 3:
		return r.D03
	case 4:
		return r.D04
	case 5:
		return r.D05
	}
	return nil
}

// SetSlot stores name in slot i (1-based). An empty name clears the slot.
func (r *RawDefendantRecord) SetSlot(i int, name string) {
	var v *string
	if name != "" {
		v = &name
	}
	switch i {
	case 1:
		r.D01 = v
	case 2:
		r.D02 = v
	case 3:
		r.D03 = v
	case 4:
		r.D04 = v
	case 5:
		r.D05 = v
	}
}

// SlotKey returns "d_0n" for a per-defendant record and CombinedSlotKey otherwise.
func (r *RawDefendantRecord) SlotKey() string {
	if r.Name != "" {
		for i := 1; i <= extract.MaxDefendants; i++ {
			if s := r.Slot(i); s != nil && *s == r.Name {
				return extract.SlotKey(i)
			}
		}
	}
	return CombinedSlotKey
}

// Discoverer finds the cases filed for a town
type Discoverer interface {
	Discover(ctx context.Context, s Session, town string) ([]ScrapedCase, error)
	GetName() string
}

// DetailFetcher extracts defendant records from a case detail page
type DetailFetcher interface {
	FetchDetail(ctx context.Context, s Session, docketURL string) ([]RawDefendantRecord, error)
	GetName() string
}
