package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gamepin/internal/identity"
	"gamepin/internal/providercache"
)

type fakeAdapter struct {
	name        string
	candidates  map[string][]identity.Candidate // keyed by query
	details     map[string]identity.Detail
	searchErr   error
	searchCalls int
	searchHints []SearchHints
	detailCalls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(_ context.Context, query string, hints SearchHints) ([]identity.Candidate, error) {
	f.searchCalls++
	f.searchHints = append(f.searchHints, hints)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates[query], nil
}

func (f *fakeAdapter) FetchDetail(_ context.Context, id string) (identity.Detail, error) {
	f.detailCalls++
	d, ok := f.details[id]
	if !ok {
		return identity.Detail{}, fmt.Errorf("%w: no detail for %s", ErrTransient, id)
	}
	return d, nil
}

func provider(a *fakeAdapter) Provider {
	return Provider{Adapter: a, Cache: providercache.New(a.name, "", nil)}
}

func TestResolveRowSearchesScoresAndFetchesDetail(t *testing.T) {
	adapter := &fakeAdapter{
		name: "steam",
		candidates: map[string][]identity.Candidate{
			"Mafia": {
				{ID: "40990", DisplayTitle: "Mafia", Year: 2002},
				{ID: "50130", DisplayTitle: "Mafia II", Year: 2010},
			},
		},
		details: map[string]identity.Detail{
			"40990": {
				ID: "40990", DisplayTitle: "Mafia", Year: 2002,
				Platforms: []string{"PC"}, Developers: []string{"Illusion Softworks"},
			},
		},
	}
	r := New([]Provider{provider(adapter)}, nil)

	result := r.ResolveRow(context.Background(), identity.Row{RowID: "rid:1", Title: "Mafia"})
	if result.Failed() {
		t.Fatalf("failures: %v", result.Failures)
	}
	ri := result.Identities["steam"]
	if !ri.Resolved || ri.Title != "Mafia" || ri.Year != 2002 {
		t.Fatalf("resolved identity = %+v", ri)
	}
	if ri.Match.Candidate.ID != "40990" {
		t.Errorf("matched candidate = %+v", ri.Match.Candidate)
	}
	if len(ri.Developers) != 1 {
		t.Errorf("detail fields not carried over: %+v", ri)
	}
}

func TestPinnedRowSkipsSearch(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "steam",
		details: map[string]identity.Detail{"40990": {ID: "40990", DisplayTitle: "Mafia", Year: 2002}},
	}
	r := New([]Provider{provider(adapter)}, nil)

	row := identity.Row{RowID: "rid:2", Title: "Mafia", Pins: map[string]string{"steam": "40990"}}
	result := r.ResolveRow(context.Background(), row)
	ri := result.Identities["steam"]
	if !ri.Resolved || !ri.Pinned {
		t.Fatalf("identity = %+v, want pinned resolution", ri)
	}
	if adapter.searchCalls != 0 {
		t.Errorf("search called %d times for a pinned row", adapter.searchCalls)
	}
}

func TestNotFoundPinSkipsProviderEntirely(t *testing.T) {
	adapter := &fakeAdapter{name: "hltb"}
	r := New([]Provider{provider(adapter)}, nil)

	row := identity.Row{RowID: "rid:3", Title: "Obscure Indie Game", Pins: map[string]string{"hltb": identity.NotFound}}
	result := r.ResolveRow(context.Background(), row)
	ri := result.Identities["hltb"]
	if ri.Resolved {
		t.Fatalf("identity = %+v, want unresolved", ri)
	}
	if !ri.Pinned {
		t.Error("explicit not-found pin should be marked pinned")
	}
	if adapter.searchCalls != 0 || adapter.detailCalls != 0 {
		t.Error("a not-found pin must not trigger provider calls")
	}
}

func TestTransientFailureIsolatedPerProvider(t *testing.T) {
	good := &fakeAdapter{
		name:       "steam",
		candidates: map[string][]identity.Candidate{"Doom": {{ID: "1", DisplayTitle: "Doom", Year: 2016}}},
		details:    map[string]identity.Detail{"1": {ID: "1", DisplayTitle: "Doom", Year: 2016}},
	}
	bad := &fakeAdapter{name: "rawg", searchErr: fmt.Errorf("%w: 503", ErrTransient)}
	r := New([]Provider{provider(good), provider(bad)}, nil)

	result := r.ResolveRow(context.Background(), identity.Row{RowID: "rid:4", Title: "Doom"})
	if !result.Failed() {
		t.Fatal("expected a recorded failure")
	}
	if err := result.Failures["rawg"]; !errors.Is(err, ErrTransient) {
		t.Errorf("rawg failure = %v, want ErrTransient", err)
	}
	if ri := result.Identities["steam"]; !ri.Resolved {
		t.Errorf("steam should resolve despite rawg failing: %+v", ri)
	}
	if _, ok := result.Identities["rawg"]; ok {
		t.Error("a failed provider must not appear among identities")
	}
}

func TestBelowThresholdYieldsAlternatives(t *testing.T) {
	adapter := &fakeAdapter{
		name: "igdb",
		candidates: map[string][]identity.Candidate{
			"Chrono Blade": {
				{ID: "1", DisplayTitle: "Chrono Cross", Year: 1999},
				{ID: "2", DisplayTitle: "Soul Blade", Year: 1996},
			},
		},
	}
	r := New([]Provider{provider(adapter)}, nil)

	result := r.ResolveRow(context.Background(), identity.Row{RowID: "rid:5", Title: "Chrono Blade"})
	ri := result.Identities["igdb"]
	if ri.Resolved {
		t.Fatalf("identity = %+v, want unresolved", ri)
	}
	if len(ri.Alternatives) == 0 {
		t.Error("rejection should surface alternatives for review")
	}
	if adapter.detailCalls != 0 {
		t.Error("no detail fetch without an accepted candidate")
	}
}

func TestCrossHintRetriesUnresolvedProviders(t *testing.T) {
	// steam knows the game under its full name; hltb only finds the full
	// name, not the user's shorthand.
	steam := &fakeAdapter{
		name: "steam",
		candidates: map[string][]identity.Candidate{
			"TW3": {{ID: "292030", DisplayTitle: "The Witcher 3: Wild Hunt", Year: 2015}},
		},
		details: map[string]identity.Detail{
			"292030": {ID: "292030", DisplayTitle: "The Witcher 3: Wild Hunt", Year: 2015},
		},
	}
	// Force steam's acceptance through a pin so the shorthand does not have
	// to clear the threshold on its own.
	hltb := &fakeAdapter{
		name: "hltb",
		candidates: map[string][]identity.Candidate{
			"The Witcher 3: Wild Hunt": {{ID: "10270", DisplayTitle: "The Witcher 3: Wild Hunt", Year: 2015}},
		},
		details: map[string]identity.Detail{
			"10270": {ID: "10270", DisplayTitle: "The Witcher 3: Wild Hunt", Year: 2015},
		},
	}
	r := New([]Provider{provider(steam), provider(hltb)}, nil, WithCrossHints())

	row := identity.Row{
		RowID: "rid:6", Title: "TW3",
		Pins: map[string]string{"steam": "292030"},
	}
	result := r.ResolveRow(context.Background(), row)
	if result.Failed() {
		t.Fatalf("failures: %v", result.Failures)
	}
	if ri := result.Identities["hltb"]; !ri.Resolved {
		t.Errorf("hltb should resolve via the cross-provider hint: %+v", ri)
	}
}

func TestRepeatedResolveHitsCache(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "steam",
		candidates: map[string][]identity.Candidate{"Doom": {{ID: "1", DisplayTitle: "Doom", Year: 2016}}},
		details:    map[string]identity.Detail{"1": {ID: "1", DisplayTitle: "Doom", Year: 2016}},
	}
	r := New([]Provider{provider(adapter)}, nil)

	row := identity.Row{RowID: "rid:7", Title: "Doom"}
	for i := 0; i < 3; i++ {
		if result := r.ResolveRow(context.Background(), row); result.Failed() {
			t.Fatalf("pass %d: %v", i, result.Failures)
		}
	}
	if adapter.searchCalls != 1 || adapter.detailCalls != 1 {
		t.Errorf("provider called search=%d detail=%d times, want 1 each", adapter.searchCalls, adapter.detailCalls)
	}
}

func TestPlatformHintKeysSearchCache(t *testing.T) {
	adapter := &fakeAdapter{
		name: "steam",
		candidates: map[string][]identity.Candidate{
			"Tomb Raider": {{ID: "203160", DisplayTitle: "Tomb Raider", Year: 2013}},
		},
		details: map[string]identity.Detail{
			"203160": {ID: "203160", DisplayTitle: "Tomb Raider", Year: 2013},
		},
	}
	r := New([]Provider{provider(adapter)}, nil)

	pc := identity.Row{RowID: "rid:8", Title: "Tomb Raider", PlatformHint: "PC"}
	ps1 := identity.Row{RowID: "rid:9", Title: "Tomb Raider", PlatformHint: "PS1"}
	for _, row := range []identity.Row{pc, ps1} {
		if result := r.ResolveRow(context.Background(), row); result.Failed() {
			t.Fatalf("%s: %v", row.RowID, result.Failures)
		}
	}

	if adapter.searchCalls != 2 {
		t.Fatalf("search called %d times; rows with different platform hints must not share a cache entry", adapter.searchCalls)
	}
	if adapter.searchHints[0].Platform != "PC" || adapter.searchHints[1].Platform != "PS1" {
		t.Errorf("search hints = %+v", adapter.searchHints)
	}
}

func TestFlushPersistsProviderCaches(t *testing.T) {
	adapter := &fakeAdapter{
		name:       "steam",
		candidates: map[string][]identity.Candidate{"Doom": {{ID: "1", DisplayTitle: "Doom", Year: 2016}}},
		details:    map[string]identity.Detail{"1": {ID: "1", DisplayTitle: "Doom", Year: 2016}},
	}
	path := filepath.Join(t.TempDir(), "steam.json")
	r := New([]Provider{{Adapter: adapter, Cache: providercache.New("steam", path, nil)}}, nil)

	if result := r.ResolveRow(context.Background(), identity.Row{RowID: "rid:10", Title: "Doom"}); result.Failed() {
		t.Fatalf("failures: %v", result.Failures)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove cache file: %v", err)
	}

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("flushed cache file missing: %v", err)
	}
}
