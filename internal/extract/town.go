package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// MinSuggestSimilarity is the Jaro-Winkler score below which Suggest gives up.
const MinSuggestSimilarity = 0.88

// TownSource supplies the reference set of valid municipality names.
type TownSource interface {
	ListTowns(ctx context.Context) ([]string, error)
}

// TownValidator is a case-insensitive membership test against a fixed set of
// town names. It is safe for concurrent use.
type TownValidator struct {
	towns map[string]string // lowercased -> canonical spelling
}

// NewTownValidator builds a validator from towns.
func NewTownValidator(towns []string) *TownValidator {
	set := make(map[string]string, len(towns))
	for _, t := range towns {
		name := strings.TrimSpace(t)
		if name != "" {
			set[strings.ToLower(name)] = name
		}
	}
	return &TownValidator{towns: set}
}

// LoadTownValidator builds a validator from a TownSource.
func LoadTownValidator(ctx context.Context, src TownSource) (*TownValidator, error) {
	towns, err := src.ListTowns(ctx)
	if err != nil {
		return nil, err
	}
	return NewTownValidator(towns), nil
}

// Valid reports whether town is in the reference set. Empty input is invalid.
func (v *TownValidator) Valid(town string) bool {
	key := strings.ToLower(strings.TrimSpace(town))
	if key == "" {
		return false
	}
	_, ok := v.towns[key]
	return ok
}

// Suggest returns the reference town closest to town by Jaro-Winkler
// similarity, or "" when nothing scores at least MinSuggestSimilarity. An
// exact (case-insensitive) match returns its canonical spelling with score 1.
func (v *TownValidator) Suggest(town string) (string, float64) {
	key := strings.ToLower(strings.TrimSpace(town))
	if key == "" {
		return "", 0
	}
	if name, ok := v.towns[key]; ok {
		return name, 1
	}

	var best string
	var bestScore float64
	for k, name := range v.towns {
		score := matchr.JaroWinkler(key, k, false)
		if score > bestScore || (score == bestScore && name < best) {
			best, bestScore = name, score
		}
	}
	if bestScore < MinSuggestSimilarity {
		return "", bestScore
	}
	return best, bestScore
}

// Names returns the canonical town names in alphabetical order.
func (v *TownValidator) Names() []string {
	names := make([]string, 0, len(v.towns))
	for _, name := range v.towns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the size of the reference set.
func (v *TownValidator) Len() int {
	return len(v.towns)
}

// StaticTowns is a TownSource backed by an in-memory list.
type StaticTowns []string

func (s StaticTowns) ListTowns(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// ConnecticutTowns lists the 169 towns of Connecticut. It is the reference
// set when no database is configured.
var ConnecticutTowns = StaticTowns{
	"Andover", "Ansonia", "Ashford", "Avon", "Barkhamsted", "Beacon Falls", "Berlin", "Bethany",
	"Bethel", "Bethlehem", "Bloomfield", "Bolton", "Bozrah", "Branford", "Bridgeport", "Bridgewater",
	"Bristol", "Brookfield", "Brooklyn", "Burlington", "Canaan", "Canterbury", "Canton", "Chaplin",
	"Cheshire", "Chester", "Clinton", "Colchester", "Colebrook", "Columbia", "Cornwall", "Coventry",
	"Cromwell", "Danbury", "Darien", "Deep River", "Derby", "Durham", "East Granby", "East Haddam",
	"East Hampton", "East Hartford", "East Haven", "East Lyme", "East Windsor", "Eastford", "Easton", "Ellington",
	"Enfield", "Essex", "Fairfield", "Farmington", "Franklin", "Glastonbury", "Goshen", "Granby",
	"Greenwich", "Griswold", "Groton", "Guilford", "Haddam", "Hamden", "Hampton", "Hartford",
	"Hartland", "Harwinton", "Hebron", "Kent", "Killingly", "Killingworth", "Lebanon", "Ledyard",
	"Lisbon", "Litchfield", "Lyme", "Madison", "Manchester", "Mansfield", "Marlborough", "Meriden",
	"Middlebury", "Middlefield", "Middletown", "Milford", "Monroe", "Montville", "Morris", "Naugatuck",
	"New Britain", "New Canaan", "New Fairfield", "New Hartford", "New Haven", "New London", "New Milford", "Newington",
	"Newtown", "Norfolk", "North Branford", "North Canaan", "North Haven", "North Stonington", "Norwalk", "Norwich",
	"Old Lyme", "Old Saybrook", "Orange", "Oxford", "Plainfield", "Plainville", "Plymouth", "Pomfret",
	"Portland", "Preston", "Prospect", "Putnam", "Redding", "Ridgefield", "Rocky Hill", "Roxbury",
	"Salem", "Salisbury", "Scotland", "Seymour", "Sharon", "Shelton", "Sherman", "Simsbury",
	"Somers", "South Windsor", "Southbury", "Southington", "Sprague", "Stafford", "Stamford", "Sterling",
	"Stonington", "Stratford", "Suffield", "Thomaston", "Thompson", "Tolland", "Torrington", "Trumbull",
	"Union", "Vernon", "Voluntown", "Wallingford", "Warren", "Washington", "Waterbury", "Waterford",
	"Watertown", "West Hartford", "West Haven", "Westbrook", "Weston", "Westport", "Wethersfield", "Willington",
	"Wilton", "Winchester", "Windham", "Windsor", "Windsor Locks", "Wolcott", "Woodbridge", "Woodbury",
	"Woodstock",
}
