package scoring

import (
	"sort"

	"gamepin/internal/identity"
)

// Selection is the outcome of ranking one query's candidates.
type Selection struct {
	// Best is set when a candidate cleared the threshold.
	Best     *identity.MatchResult
	Accepted bool
	// Alternatives holds the top rejected candidates (at most 3) when
	// nothing was acceptable, so a human can review instead of the system
	// silently picking the best of a bad lot.
	Alternatives []identity.Alternative
}

const alternativesLimit = 3

type rankedCandidate struct {
	result    identity.MatchResult
	exact     bool
	yearDelta int
	dlcLike   bool
	order     int
}

// Select scores every candidate and picks the max-scoring one if it clears
// AcceptThreshold. An empty candidate list or an all-below-threshold list
// yields an unaccepted Selection, not an error.
func Select(query string, yearHint int, candidates []identity.Candidate) Selection {
	return SelectAt(query, yearHint, candidates, AcceptThreshold)
}

// SelectAt is Select with a caller-supplied acceptance threshold. The repin
// policy uses StrictThreshold here.
func SelectAt(query string, yearHint int, candidates []identity.Candidate, threshold int) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}

	ranked := make([]rankedCandidate, 0, len(candidates))
	for i, c := range candidates {
		result := Score(query, yearHint, c)
		state := newScoreState(query, yearHint, c.DisplayTitle, c.Year)
		delta := 1 << 30
		if yearHint > 0 && c.Year > 0 {
			delta = yearHint - c.Year
			if delta < 0 {
				delta = -delta
			}
		}
		ranked = append(ranked, rankedCandidate{
			result:    result,
			exact:     state.exactTokenSet(),
			yearDelta: delta,
			dlcLike:   state.dlcTokenCount() > 0,
			order:     i,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		if a.exact != b.exact {
			return a.exact
		}
		if a.result.Base != b.result.Base {
			return a.result.Base > b.result.Base
		}
		if a.yearDelta != b.yearDelta {
			return a.yearDelta < b.yearDelta
		}
		if a.dlcLike != b.dlcLike {
			return !a.dlcLike
		}
		return a.order < b.order
	})

	best := ranked[0]
	if best.result.Score >= threshold {
		result := best.result
		return Selection{Best: &result, Accepted: true}
	}

	var alts []identity.Alternative
	for _, rc := range ranked {
		if rc.result.Score <= 0 {
			continue
		}
		alts = append(alts, identity.Alternative{
			DisplayTitle: rc.result.Candidate.DisplayTitle,
			Score:        rc.result.Score,
		})
		if len(alts) == alternativesLimit {
			break
		}
	}
	return Selection{Alternatives: alts}
}
