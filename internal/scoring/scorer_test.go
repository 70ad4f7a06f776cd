package scoring

import (
	"testing"

	"gamepin/internal/identity"
)

func game(id, title string, year int) identity.Candidate {
	return identity.Candidate{ID: id, DisplayTitle: title, Year: year, Type: identity.TypeGame}
}

func TestScoreExactMatch(t *testing.T) {
	result := Score("Mafia", 0, game("1", "Mafia", 2002))
	if result.Score != 100 {
		t.Errorf("exact match score = %d, want 100", result.Score)
	}
}

func TestExactnessBeatsSubtitle(t *testing.T) {
	exact := Score("Mafia", 0, game("1", "Mafia", 2002))
	subtitle := Score("Mafia", 0, game("2", "Mafia: The City of Lost Heaven", 2002))
	if exact.Score < subtitle.Score {
		t.Errorf("exact %d must be >= subtitle %d", exact.Score, subtitle.Score)
	}

	sel := Select("Mafia", 0, []identity.Candidate{
		game("2", "Mafia: The City of Lost Heaven", 2002),
		game("1", "Mafia", 2002),
	})
	if !sel.Accepted {
		t.Fatal("expected accepted selection")
	}
	if sel.Best.Candidate.ID != "1" {
		t.Errorf("selected %q, want the plain Mafia candidate", sel.Best.Candidate.DisplayTitle)
	}
}

func TestYearHintBreaksIdenticalTitleTie(t *testing.T) {
	sel := Select("Doom", 2016, []identity.Candidate{
		game("1993", "Doom", 1993),
		game("2016", "Doom", 2016),
		game("2020", "Doom Eternal", 2020),
	})
	if !sel.Accepted {
		t.Fatal("expected accepted selection")
	}
	if sel.Best.Candidate.ID != "2016" {
		t.Errorf("selected %q (%d), want the 2016 entry",
			sel.Best.Candidate.DisplayTitle, sel.Best.Candidate.Year)
	}
}

func TestNumberedPrefixAccepted(t *testing.T) {
	result := Score("Postal 4", 0, game("1", "POSTAL 4: No Regerts", 2022))
	if result.Score < AcceptThreshold {
		t.Errorf("numbered-prefix score = %d, want >= %d", result.Score, AcceptThreshold)
	}
	found := false
	for _, adj := range result.Breakdown {
		if adj.Name == "numbered_prefix" && adj.Delta > 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("breakdown missing numbered_prefix bonus: %+v", result.Breakdown)
	}
}

func TestSeriesMismatchRejected(t *testing.T) {
	result := Score("Postal 4", 0, game("1", "Postal 2", 2003))
	if result.Score >= AcceptThreshold {
		t.Errorf("series mismatch score = %d, want < %d", result.Score, AcceptThreshold)
	}

	// The raw ratio for a cross-number sequel pair sits well above the
	// accept threshold, so the penalty alone must carry the rejection.
	var base, mismatch int
	for _, adj := range result.Breakdown {
		switch adj.Name {
		case "base_similarity":
			base = adj.Delta
		case "series_number_mismatch":
			mismatch = adj.Delta
		}
	}
	if base < AcceptThreshold {
		t.Fatalf("base similarity = %d, fixture no longer exercises the penalty", base)
	}
	if base+mismatch >= AcceptThreshold {
		t.Errorf("penalty %d leaves %d, still above the accept threshold %d", mismatch, base+mismatch, AcceptThreshold)
	}
}

func TestSequelPenaltyWhenQueryPlain(t *testing.T) {
	plain := Score("Doom", 0, game("1", "Doom", 1993))
	sequel := Score("Doom", 0, game("2", "Doom 3", 2004))
	if sequel.Score >= plain.Score {
		t.Errorf("sequel %d should score below base title %d", sequel.Score, plain.Score)
	}
}

func TestDLCTokenPenalty(t *testing.T) {
	base := Score("Stellar Drift", 0, game("1", "Stellar Drift", 2020))
	dlc := Score("Stellar Drift", 0, game("2", "Stellar Drift Soundtrack", 2020))
	if dlc.Score >= base.Score {
		t.Errorf("soundtrack %d should score below base %d", dlc.Score, base.Score)
	}
	found := false
	for _, adj := range dlc.Breakdown {
		if adj.Name == "dlc_like_tokens" && adj.Delta < 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("breakdown missing dlc_like_tokens penalty: %+v", dlc.Breakdown)
	}
}

func TestPartialAllowanceForYearSuffix(t *testing.T) {
	result := Score("Doom", 0, game("1", "Doom 2016", 2016))
	if result.Score < AcceptThreshold {
		t.Errorf("year-suffix superset score = %d, want >= %d", result.Score, AcceptThreshold)
	}
}

func TestYearNeverVetoesExactMatch(t *testing.T) {
	// A 23-year drift must not drop an exact token match below threshold.
	result := Score("Doom", 2016, game("1", "Doom", 1993))
	if result.Score != 100 {
		t.Errorf("exact match with year drift = %d, want 100", result.Score)
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	sel := Select("Anything", 0, nil)
	if sel.Accepted || sel.Best != nil {
		t.Error("empty candidate list must yield an unaccepted selection")
	}
	if len(sel.Alternatives) != 0 {
		t.Errorf("empty list should carry no alternatives, got %v", sel.Alternatives)
	}
}

func TestSelectBelowThresholdReturnsAlternatives(t *testing.T) {
	sel := Select("Chrono Blade", 0, []identity.Candidate{
		game("1", "Chrono Cross", 1999),
		game("2", "Soul Blade", 1996),
		game("3", "Blades of Time", 2012),
	})
	if sel.Accepted {
		t.Fatalf("expected rejection, got %+v", sel.Best)
	}
	if len(sel.Alternatives) == 0 || len(sel.Alternatives) > 3 {
		t.Errorf("alternatives = %d entries, want 1..3", len(sel.Alternatives))
	}
	for i := 1; i < len(sel.Alternatives); i++ {
		if sel.Alternatives[i].Score > sel.Alternatives[i-1].Score {
			t.Error("alternatives must be ordered best first")
		}
	}
}

func TestSelectTieBreakFirstSeen(t *testing.T) {
	sel := Select("Mirror Fall", 0, []identity.Candidate{
		game("a", "Mirror Fall", 0),
		game("b", "Mirror Fall", 0),
	})
	if !sel.Accepted || sel.Best.Candidate.ID != "a" {
		t.Errorf("tie must resolve to first-seen candidate, got %+v", sel.Best)
	}
}

func TestBreakdownStartsWithBase(t *testing.T) {
	result := Score("Doom", 2016, game("1", "Doom Eternal", 2020))
	if len(result.Breakdown) == 0 || result.Breakdown[0].Name != "base_similarity" {
		t.Errorf("breakdown must start with base_similarity, got %+v", result.Breakdown)
	}
	sum := 0
	for _, adj := range result.Breakdown {
		sum += adj.Delta
	}
	if sum != result.Score {
		t.Errorf("breakdown deltas sum to %d, score is %d", sum, result.Score)
	}
}
