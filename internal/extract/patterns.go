package extract

import (
	"fmt"
	"regexp"
)

// labelPattern is one entry of an ordered, first-match-wins fallback chain.
type labelPattern struct {
	tag string
	re  *regexp.Regexp
}

// addressLabelPatterns are tried against the page text in order when the
// dedicated address elements are missing.
var addressLabelPatterns = []labelPattern{
	{"property-address", regexp.MustCompile(`(?i)Property\s+Address[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)},
	{"subject-property", regexp.MustCompile(`(?i)Subject\s+Property[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)},
	{"premises", regexp.MustCompile(`(?i)Premises[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)},
	{"located-at", regexp.MustCompile(`(?i)Located\s+at[:\s]+([^\n]+?)(?:\s{2,}|\n|$)`)},
}

// stateZipRule fills state and/or zip from a matched part. An exclusive rule
// that matches ends the chain; non-exclusive rules all get a chance.
type stateZipRule struct {
	tag       string
	re        *regexp.Regexp
	exclusive bool
	apply     func(m []string, c *AddressComponents)
}

var stateZipRules = []stateZipRule{
	{
		tag:       "state+zip",
		re:        regexp.MustCompile(`([A-Z]{2})\s+(\d{5}(?:-\d{4})?)`),
		exclusive: true,
		apply: func(m []string, c *AddressComponents) {
			c.State = m[1]
			c.Zip = m[2]
		},
	},
	{
		tag:   "state",
		re:    regexp.MustCompile(`([A-Z]{2})`),
		apply: func(m []string, c *AddressComponents) { c.State = m[1] },
	},
	{
		tag:   "zip",
		re:    regexp.MustCompile(`(\d{5}(?:-\d{4})?)`),
		apply: func(m []string, c *AddressComponents) { c.Zip = m[1] },
	},
}

// trailingStateZipRegex splits "Hartford CT 06103" into town and state/zip.
var trailingStateZipRegex = regexp.MustCompile(`^(.*?)\s*\b([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)

var apartmentRegex = regexp.MustCompile(`(?i)^(?:APT|APARTMENT|UNIT|SUITE|STE|#)\s*[\w-]+$`)

// slotTerminator ends a free-text defendant name.
const slotTerminator = `(?:\s+Non-Appearing|\s+Defendant|\s+Self-Represented|$)`

// slotPatterns holds, per defendant slot, the ordered regex variants tried
// against the page text.
var slotPatterns = buildSlotPatterns()

func buildSlotPatterns() [MaxDefendants][]labelPattern {
	var out [MaxDefendants][]labelPattern
	for i := range out {
		code := SlotCode(i + 1)
		out[i] = []labelPattern{
			{"code-space", regexp.MustCompile(fmt.Sprintf(`(?i)%s\s+([^\n]+?)%s`, regexp.QuoteMeta(code), slotTerminator))},
			{"code-colon", regexp.MustCompile(fmt.Sprintf(`(?i)%s[:\s]+([^\n]+?)%s`, regexp.QuoteMeta(code), slotTerminator))},
		}
	}
	return out
}

var (
	trailingStatusRegex = regexp.MustCompile(`(?i)\s+(?:Non-Appearing|Defendant|Self-Represented)$`)
	partyCodeRegex      = regexp.MustCompile(`^D-0([1-5])$`)
)

// boilerplatePhrases mark instructional page text captured in place of a name.
var boilerplatePhrases = []string{"Viewing Documents", "If there is", "Click here"}
