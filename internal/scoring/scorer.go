package scoring

import (
	"gamepin/internal/identity"
	"gamepin/internal/textutil"
)

// AcceptThreshold is the minimum score a candidate needs to be selected on a
// normal resolution pass.
const AcceptThreshold = 65

// StrictThreshold is the stricter bar used when re-resolving a pin that
// diagnostics flagged as likely wrong, and for title agreement grouping.
const StrictThreshold = 90

// Score rates one candidate against a query title. yearHint of 0 means no
// hint. The returned breakdown lists every adjustment that fired, in
// pipeline order.
func Score(query string, yearHint int, c identity.Candidate) identity.MatchResult {
	state := newScoreState(query, yearHint, c.DisplayTitle, c.Year)

	base := textutil.TokenSortRatio(state.queryNorm, state.candNorm)
	breakdown := []identity.Adjustment{{Name: adjBase, Delta: base}}

	if state.partialAllowed() {
		if partial := textutil.PartialRatio(state.queryNorm, state.candNorm); partial > base {
			breakdown = append(breakdown, identity.Adjustment{Name: adjPartialAllowance, Delta: partial - base})
			base = partial
		}
	}

	score := base
	apply := func(name string, delta int) {
		if delta == 0 {
			return
		}
		score += delta
		breakdown = append(breakdown, identity.Adjustment{Name: name, Delta: delta})
	}

	// Sequel-number handling. A candidate carrying a series number the query
	// lacks is probably a sequel; disjoint numbers on both sides are near
	// certainly different games.
	switch {
	case len(state.querySeries) == 0 && len(state.candSeries) > 0:
		apply(adjSequelPlain, -sequelWhenQueryPlainPenalty)
	case state.seriesDisjoint():
		apply(adjSequelMismatch, -sequelMismatchPenalty)
	}

	// Numbered-prefix preference: "Postal 4" should match "POSTAL 4: No
	// Regerts" even though the subtitle drags the token-sort ratio down.
	if state.queryHasNumber && state.queryNorm != "" &&
		len(state.candNorm) > len(state.queryNorm) &&
		state.candNorm[:len(state.queryNorm)] == state.queryNorm {
		apply(adjNumberedPrefix, numberedPrefixBonus)
	}

	if n := state.dlcTokenCount(); n > 0 {
		apply(adjDLCTokens, -dlcTokenPenalty*n)
	}

	if yearHint > 0 {
		if c.Year == 0 {
			// A hinted query should prefer candidates that report a year at
			// all; yearless entries are often upcoming/placeholder records.
			apply(adjYearMissing, -missingYearPenalty)
		} else {
			apply(adjYearProximity, yearDelta(yearHint, c.Year))
		}
	}

	if score < 0 {
		breakdown = append(breakdown, identity.Adjustment{Name: adjClamp, Delta: -score})
		score = 0
	}

	// Exact normalized token sets beat every soft signal, year included: the
	// base title as an exact match must never lose to an edition or a
	// re-release promoted by year proximity.
	if state.exactTokenSet() {
		if score != 100 {
			breakdown = append(breakdown, identity.Adjustment{Name: adjExactTokenSet, Delta: 100 - score})
			score = 100
		}
	} else if score > 100 {
		breakdown = append(breakdown, identity.Adjustment{Name: adjClamp, Delta: 100 - score})
		score = 100
	}

	return identity.MatchResult{
		Candidate: c,
		Score:     score,
		Base:      base,
		Breakdown: breakdown,
	}
}

func yearDelta(hint, year int) int {
	d := hint - year
	if d < 0 {
		d = -d
	}
	switch {
	case d == 0:
		return 10
	case d <= 1:
		return 6
	case d <= 2:
		return 3
	case d >= 15:
		return -14
	case d >= 10:
		return -10
	case d >= 5:
		return -6
	default:
		return 0
	}
}
