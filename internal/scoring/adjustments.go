package scoring

import (
	"strings"

	"gamepin/internal/textutil"
)

// editionTokens are title decorations that do not change game identity.
// A candidate differing from the query only by these (or a year) is treated
// as the same game in a different packaging.
var editionTokens = map[string]struct{}{
	"remake": {}, "hd": {}, "classic": {}, "definitive": {}, "remastered": {},
	"ultimate": {}, "goty": {}, "anniversary": {}, "complete": {},
	"collection": {}, "edition": {}, "enhanced": {}, "redux": {}, "vr": {},
	"directors": {}, "director": {}, "cut": {}, "deluxe": {}, "gold": {},
	"game": {}, "of": {}, "the": {}, "year": {},
}

// dlcTokens mark store entries that are not the base game.
var dlcTokens = map[string]struct{}{
	"dlc": {}, "soundtrack": {}, "demo": {}, "beta": {}, "expansion": {},
	"pack": {}, "season": {}, "pass": {}, "trial": {},
}

const (
	sequelWhenQueryPlainPenalty = 15
	sequelMismatchPenalty       = 35
	numberedPrefixBonus         = 25
	dlcTokenPenalty             = 20
	missingYearPenalty          = 8
)

// adjustment names must stay stable: they appear in score breakdowns that
// reviewers read and tests assert on.
const (
	adjBase             = "base_similarity"
	adjPartialAllowance = "partial_allowance"
	adjSequelPlain      = "sequel_without_query_number"
	adjSequelMismatch   = "series_number_mismatch"
	adjNumberedPrefix   = "numbered_prefix"
	adjDLCTokens        = "dlc_like_tokens"
	adjYearMissing      = "candidate_year_missing"
	adjYearProximity    = "year_proximity"
	adjExactTokenSet    = "exact_token_set"
	adjClamp            = "clamp"
)

type scoreState struct {
	queryNorm      string
	queryTokens    map[string]struct{}
	querySeries    map[int]struct{}
	queryHasNumber bool
	yearHint       int

	candNorm   string
	candTokens map[string]struct{}
	candSeries map[int]struct{}
	candYear   int
}

func newScoreState(queryNorm string, yearHint int, candTitle string, candYear int) scoreState {
	queryNorm = textutil.Normalize(queryNorm)
	queryTokens := tokenSetOf(queryNorm)
	hasNumber := false
	for tok := range queryTokens {
		if isPlainNumber(tok) && !textutil.IsYearToken(tok) {
			hasNumber = true
			break
		}
	}
	candNorm := textutil.Normalize(candTitle)
	return scoreState{
		queryNorm:      queryNorm,
		queryTokens:    queryTokens,
		querySeries:    textutil.SeriesNumbers(queryNorm),
		queryHasNumber: hasNumber,
		yearHint:       yearHint,
		candNorm:       candNorm,
		candTokens:     tokenSetOf(candNorm),
		candSeries:     textutil.SeriesNumbers(candNorm),
		candYear:       candYear,
	}
}

func tokenSetOf(normalized string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		out[tok] = struct{}{}
	}
	return out
}

func isPlainNumber(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// partialAllowed reports whether the only token-set difference between query
// and candidate is year tokens or edition tokens on exactly one side. Those
// are the "Doom" vs "Doom 2016" and "base game" vs "Definitive Edition"
// cases where a strict-superset partial score is trustworthy.
func (s scoreState) partialAllowed() bool {
	extraQ := diffTokens(s.queryTokens, s.candTokens)
	extraC := diffTokens(s.candTokens, s.queryTokens)

	yearOnly := func(tokens []string) bool {
		if len(tokens) == 0 {
			return false
		}
		for _, tok := range tokens {
			if !textutil.IsYearToken(tok) {
				return false
			}
		}
		return true
	}
	editionOnly := func(tokens []string) bool {
		if len(tokens) == 0 {
			return false
		}
		for _, tok := range tokens {
			if _, ok := editionTokens[tok]; !ok {
				return false
			}
		}
		return true
	}

	return (yearOnly(extraQ) && len(extraC) == 0) ||
		(yearOnly(extraC) && len(extraQ) == 0) ||
		(editionOnly(extraQ) && len(extraC) == 0) ||
		(editionOnly(extraC) && len(extraQ) == 0)
}

// dlcTokenCount counts denylist tokens present in the candidate but absent
// from the query.
func (s scoreState) dlcTokenCount() int {
	count := 0
	for tok := range s.candTokens {
		if _, bad := dlcTokens[tok]; !bad {
			continue
		}
		if _, inQuery := s.queryTokens[tok]; inQuery {
			continue
		}
		count++
	}
	return count
}

func (s scoreState) exactTokenSet() bool {
	if len(s.queryTokens) == 0 || len(s.queryTokens) != len(s.candTokens) {
		return false
	}
	for tok := range s.queryTokens {
		if _, ok := s.candTokens[tok]; !ok {
			return false
		}
	}
	return true
}

func (s scoreState) seriesDisjoint() bool {
	if len(s.querySeries) == 0 || len(s.candSeries) == 0 {
		return false
	}
	for n := range s.querySeries {
		if _, ok := s.candSeries[n]; ok {
			return false
		}
	}
	return true
}

func diffTokens(a, b map[string]struct{}) []string {
	var out []string
	for tok := range a {
		if _, ok := b[tok]; !ok {
			out = append(out, tok)
		}
	}
	return out
}
