package extract

import (
	"regexp"
	"strings"
)

// akaRegex finds the first "also known as" marker followed by a non-empty
// remainder. Spaces, colons and dashes may separate the two; a remainder
// starting at a comma belongs to the next address part. The optional "(" lets
// an already normalized "street (aka alias)" split back into the same halves.
var akaRegex = regexp.MustCompile(`(?i)\s*(\()?\b(?:aka|a/k/a|a\.k\.a)\b\.?[\s:\-]*([^,.:\-\s].*)$`)

var akaFragmentRegex = regexp.MustCompile(`(?i)\b(?:aka|a/k/a|a\.k\.a)\b`)

// danglingAkaRegex matches a marker left without an alias, e.g. "12 Elm St aka".
var danglingAkaRegex = regexp.MustCompile(`(?i)\s*\b(?:aka|a/k/a|a\.k\.a)\b\.?[\s:\-]*`)

// SplitAka separates an alias suffix from a primary address.
// When no marker is present the address is returned unchanged with a nil alias.
func SplitAka(address string) (string, *string) {
	loc := akaRegex.FindStringSubmatchIndex(address)
	if loc == nil {
		return address, nil
	}

	alias := strings.TrimSpace(address[loc[4]:loc[5]])
	if loc[2] >= 0 {
		alias = strings.TrimSpace(strings.TrimSuffix(alias, ")"))
	}
	if alias == "" {
		return address, nil
	}

	clean := strings.TrimSpace(address[:loc[0]])
	return clean, &alias
}

// FormatAka re-attaches an alias to a street as a parenthetical suffix.
func FormatAka(street string, alias *string) string {
	if alias == nil || *alias == "" {
		return street
	}
	if street == "" {
		return "(aka " + *alias + ")"
	}
	return street + " (aka " + *alias + ")"
}

// NormalizeAka rewrites any alias notation in address into the canonical
// "street (aka alias)" form and drops markers that carry no alias. Applying
// it twice gives the same result.
func NormalizeAka(address string) string {
	clean, alias := SplitAka(address)
	return FormatAka(DropAkaMarkers(clean), alias)
}

// DropAkaMarkers removes alias markers from s, which must not hold an alias
// worth keeping; SplitAka it first.
func DropAkaMarkers(s string) string {
	if !containsAka(s) {
		return s
	}
	return strings.TrimSpace(danglingAkaRegex.ReplaceAllString(s, ""))
}

func containsAka(part string) bool {
	return akaFragmentRegex.MatchString(part)
}
