package identity

import "strings"

// NotFound is the explicit pin value recording that a provider was searched
// and the game confirmed absent. Distinct from an empty pin, which means
// "not yet resolved".
const NotFound = "__NOT_FOUND__"

// TypeTag classifies what kind of store entry a candidate is.
type TypeTag string

const (
	TypeGame       TypeTag = "game"
	TypeDLC        TypeTag = "dlc"
	TypeDemo       TypeTag = "demo"
	TypeSoundtrack TypeTag = "soundtrack"
	TypeOther      TypeTag = "other"
)

// Candidate is one provider's proposed match for a search query.
type Candidate struct {
	ID           string   `json:"id"`
	DisplayTitle string   `json:"display_title"`
	Year         int      `json:"year,omitempty"` // 0 when the provider reported no release year
	Platforms    []string `json:"platforms,omitempty"`
	Type         TypeTag  `json:"type,omitempty"`
}

// Detail is the full provider record behind one stable candidate id, fetched
// after selection (or directly when the row is already pinned).
type Detail struct {
	ID           string   `json:"id"`
	DisplayTitle string   `json:"display_title"`
	Year         int      `json:"year,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	Developers   []string `json:"developers,omitempty"`
	Publishers   []string `json:"publishers,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	Type         TypeTag  `json:"type,omitempty"`
}

// Adjustment names one scoring step and the delta it applied.
type Adjustment struct {
	Name  string `json:"name"`
	Delta int    `json:"delta"`
}

// MatchResult is a scored candidate with the ordered breakdown of every
// adjustment that produced the final score.
type MatchResult struct {
	Candidate Candidate    `json:"candidate"`
	Score     int          `json:"score"`
	Base      int          `json:"base"`
	Breakdown []Adjustment `json:"breakdown,omitempty"`
}

// Alternative is a rejected candidate surfaced for human review when no
// candidate cleared the acceptance threshold.
type Alternative struct {
	DisplayTitle string `json:"display_title"`
	Score        int    `json:"score"`
}

// ResolvedIdentity is the chosen identity for one (row, provider) pair, or
// an unresolved marker when no candidate was acceptable. Superseded by later
// runs, never mutated in place.
type ResolvedIdentity struct {
	Provider string `json:"provider"`
	Resolved bool   `json:"resolved"`
	// Pinned marks identities taken from a user pin rather than a search.
	Pinned     bool        `json:"pinned,omitempty"`
	Match      MatchResult `json:"match,omitempty"`
	Title      string      `json:"title,omitempty"`
	Year       int         `json:"year,omitempty"`
	Platforms  []string    `json:"platforms,omitempty"`
	Developers []string    `json:"developers,omitempty"`
	Publishers []string    `json:"publishers,omitempty"`
	Aliases    []string    `json:"aliases,omitempty"`
	// Alternatives is populated only when Resolved is false and the search
	// returned candidates that all fell below the threshold.
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// Row is one catalog entry to resolve. RowID is the only stable join key;
// Title may be edited by the user without invalidating RowID.
type Row struct {
	RowID        string
	Title        string
	YearHint     int
	PlatformHint string
	// Pins maps provider name to a stable id, NotFound, or "" (unpinned).
	// Pins are user-owned; only the repin policy may clear a non-empty pin.
	Pins map[string]string
}

// Pin returns the pin value for provider, "" when absent.
func (r Row) Pin(provider string) string {
	if r.Pins == nil {
		return ""
	}
	return strings.TrimSpace(r.Pins[provider])
}

// Pinned reports whether the row carries a real id pin for provider
// (explicit NotFound does not count).
func (r Row) Pinned(provider string) bool {
	pin := r.Pin(provider)
	return pin != "" && pin != NotFound
}
