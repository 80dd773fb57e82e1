package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sjsage522/foreclosureworker/helpers"

	"github.com/PuerkitoBio/goquery"
)

// MaxDefendants is the number of positional defendant slots on a case.
const MaxDefendants = 5

const (
	partiesTableSelector = "#ctl00_ContentPlaceHolder1_CaseDetailParties1_gvParties"
	partyNameSelector    = "[id$='lblPtyPartyName']"
)

// Slots holds defendant names by position; "" means the slot is unset.
type Slots [MaxDefendants]string

// Count returns the number of populated slots.
func (s Slots) Count() int {
	n := 0
	for _, name := range s {
		if name != "" {
			n++
		}
	}
	return n
}

// SlotCode returns the party code of slot i (1-based), e.g. "D-01".
func SlotCode(i int) string {
	return fmt.Sprintf("D-%02d", i)
}

// SlotKey returns the record key of slot i (1-based), e.g. "d_01".
func SlotKey(i int) string {
	return fmt.Sprintf("d_%02d", i)
}

// DefendantStrategy extracts defendant names from one page layout.
type DefendantStrategy interface {
	Name() string
	Extract(doc *goquery.Document) Slots
	// PerDefendant reports whether results should be emitted as one record
	// per populated slot rather than one combined record.
	PerDefendant() bool
}

// TextSlotStrategy scans the page text for "D-0n <name>" entries.
type TextSlotStrategy struct{}

func (TextSlotStrategy) Name() string       { return "text-slots" }
func (TextSlotStrategy) PerDefendant() bool { return true }

func (TextSlotStrategy) Extract(doc *goquery.Document) Slots {
	return ExtractSlotsFromText(doc.Find("body").Text())
}

// ExtractSlotsFromText runs the slot patterns over free text.
func ExtractSlotsFromText(text string) Slots {
	var slots Slots
	for i, variants := range slotPatterns {
		for _, p := range variants {
			m := p.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if name, ok := CleanName(m[1]); ok {
				slots[i] = name
				break
			}
		}
	}
	return slots
}

// PartyTableStrategy reads the parties grid, where each row carries a party
// code cell and a party name label.
type PartyTableStrategy struct{}

func (PartyTableStrategy) Name() string       { return "party-table" }
func (PartyTableStrategy) PerDefendant() bool { return false }

func (PartyTableStrategy) Extract(doc *goquery.Document) Slots {
	var slots Slots
	partyRows(doc).Each(func(_ int, row *goquery.Selection) {
		idx, codeCell := partyCode(row)
		if idx == 0 || slots[idx-1] != "" {
			return
		}

		raw := row.Find(partyNameSelector).First().Text()
		if strings.TrimSpace(raw) == "" && codeCell != nil {
			raw = codeCell.Next().Text()
		}
		if name, ok := CleanName(raw); ok {
			slots[idx-1] = name
		}
	})
	return slots
}

func partyRows(doc *goquery.Document) *goquery.Selection {
	return doc.Find(partiesTableSelector).First().Find("tr")
}

// partyCode returns the 1-based defendant slot of a parties row and the cell
// holding the code, or 0 when the row is not a D-0n defendant.
func partyCode(row *goquery.Selection) (int, *goquery.Selection) {
	var (
		idx  int
		cell *goquery.Selection
	)
	row.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		m := partyCodeRegex.FindStringSubmatch(helpers.NormalizeSpace(td.Text()))
		if m == nil {
			return true
		}
		idx = int(m[1][0] - '0')
		cell = td
		return false
	})
	return idx, cell
}

// SelectStrategy picks the extraction strategy from the page shape: a parties
// grid with at least one defendant code uses the table, anything else falls
// back to free text.
func SelectStrategy(doc *goquery.Document) DefendantStrategy {
	found := false
	partyRows(doc).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if idx, _ := partyCode(row); idx > 0 {
			found = true
			return false
		}
		return true
	})
	if found {
		return PartyTableStrategy{}
	}
	return TextSlotStrategy{}
}

// CleanName normalizes a captured defendant name and rejects boilerplate.
func CleanName(raw string) (string, bool) {
	name := helpers.NormalizeSpace(raw)
	name = strings.TrimSpace(trailingStatusRegex.ReplaceAllString(name, ""))

	if n := utf8.RuneCountInString(name); n <= 2 || n >= 100 {
		return "", false
	}
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(name, phrase) {
			return "", false
		}
	}
	return name, true
}
