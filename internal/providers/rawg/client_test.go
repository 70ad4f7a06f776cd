package rawg_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamepin/internal/providers/rawg"
	"gamepin/internal/resolve"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := rawg.New(" "); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchMapsCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "key" {
			t.Fatalf("expected key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("dates") == "" {
			t.Fatal("year hint should narrow the release window")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":32,"name":"DOOM (2016)","released":"2016-05-13",
			 "platforms":[{"platform":{"name":"PC"}},{"platform":{"name":"PlayStation 4"}}]}
		]}`))
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", rawg.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	candidates, err := client.Search(context.Background(), "Doom", resolve.SearchHints{Year: 2016})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %+v", candidates)
	}
	if candidates[0].Year != 2016 || len(candidates[0].Platforms) != 2 {
		t.Errorf("candidate = %+v", candidates[0])
	}
}

func TestFetchDetailMapsCompaniesAndAliases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/32" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":32,"name":"DOOM (2016)","released":"2016-05-13",
			"platforms":[{"platform":{"name":"PC"}}],
			"developers":[{"name":"id Software"}],
			"publishers":[{"name":"Bethesda Softworks"}],
			"alternative_names":["Doom 4"]}`))
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", rawg.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	detail, err := client.FetchDetail(context.Background(), "32")
	if err != nil {
		t.Fatalf("FetchDetail returned error: %v", err)
	}
	if detail.Year != 2016 || len(detail.Developers) != 1 || len(detail.Publishers) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
	if len(detail.Aliases) != 1 || detail.Aliases[0] != "Doom 4" {
		t.Errorf("aliases = %v", detail.Aliases)
	}
}

func TestRateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := rawg.New("key", rawg.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Search(context.Background(), "Doom", resolve.SearchHints{})
	if !errors.Is(err, resolve.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}
