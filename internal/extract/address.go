package extract

import (
	"regexp"
	"strings"

	"sjsage522/foreclosureworker/helpers"

	"github.com/PuerkitoBio/goquery"
)

const (
	propAddressRowSelector   = "#ctl00_ContentPlaceHolder1_CaseDetailBasicInfo1_PropAddressRow"
	propAddressLabelSelector = "#ctl00_ContentPlaceHolder1_CaseDetailBasicInfo1_lblPropertyAddress"
)

var propertyAddressLabelRegex = regexp.MustCompile(`(?i)Property Address[:\s]*`)

// AddressComponents is the decomposed property address of a case.
type AddressComponents struct {
	Street string
	Town   string
	State  string
	Zip    string
}

// IsEmpty reports whether no component was found.
func (a AddressComponents) IsEmpty() bool {
	return a.Street == "" && a.Town == "" && a.State == "" && a.Zip == ""
}

// LocateAddress returns the raw property address of a case detail page,
// or "" when the page does not show one.
func LocateAddress(doc *goquery.Document) string {
	if addr := fromAddressRow(doc); addr != "" {
		return addr
	}

	if span := doc.Find(propAddressLabelSelector).First(); span.Length() > 0 {
		if addr := cleanAddressValue(span.Text()); addr != "" {
			return addr
		}
	}

	text := doc.Find("body").Text()
	for _, p := range addressLabelPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil && m[1] != "" {
			if addr := cleanAddressValue(m[1]); addr != "" {
				return addr
			}
		}
	}
	return ""
}

func fromAddressRow(doc *goquery.Document) string {
	row := doc.Find(propAddressRowSelector).First()
	if row.Length() == 0 {
		return ""
	}

	cells := row.Find("td")
	var raw string
	switch {
	case cells.Length() >= 2:
		raw = cells.Eq(1).Text()
	case cells.Length() == 1:
		raw = propertyAddressLabelRegex.ReplaceAllString(cells.Text(), "")
	default:
		raw = propertyAddressLabelRegex.ReplaceAllString(row.Text(), "")
	}
	return cleanAddressValue(raw)
}

func cleanAddressValue(raw string) string {
	addr := helpers.NormalizeSpace(raw)
	switch addr {
	case "-", "--", "N/A":
		return ""
	}
	return addr
}

// ParseAddress decomposes a full address into street, town, state and zip.
// An alias suffix is split off first and re-attached to the final street as
// "(aka alias)". The decision tree is keyed on comma count and the apartment
// pattern and never revisits a branch once taken.
func ParseAddress(full string) AddressComponents {
	var c AddressComponents
	full = helpers.NormalizeSpace(full)
	if full == "" {
		return c
	}

	primary, alias := SplitAka(full)
	parts := splitParts(primary)
	if len(parts) == 0 {
		c.Street = FormatAka("", alias)
		return c
	}

	c.Street = parts[0]
	rest := parts[1:]

	if len(rest) > 0 && apartmentRegex.MatchString(rest[0]) {
		c.Street = c.Street + " " + rest[0]
		rest = rest[1:]
	}

	switch len(rest) {
	case 0:
	case 1:
		townWithTrailingStateZip(rest[0], &c)
	default:
		setTown(rest[0], &c)
		applyStateZip(rest[1], &c)
	}

	c.Street = FormatAka(DropAkaMarkers(c.Street), alias)
	return c
}

func splitParts(s string) []string {
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// townWithTrailingStateZip handles a lone part after the street: "Hartford"
// is a town, "Hartford CT 06103" is a town followed by state and zip.
func townWithTrailingStateZip(part string, c *AddressComponents) {
	if m := trailingStateZipRegex.FindStringSubmatch(part); m != nil {
		setTown(m[1], c)
		c.State = m[2]
		c.Zip = m[3]
		return
	}
	setTown(part, c)
}

func setTown(part string, c *AddressComponents) {
	part = strings.TrimSpace(part)
	if containsAka(part) {
		return
	}
	c.Town = part
}

func applyStateZip(part string, c *AddressComponents) {
	for _, rule := range stateZipRules {
		m := rule.re.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		rule.apply(m, c)
		if rule.exclusive {
			return
		}
	}
}
