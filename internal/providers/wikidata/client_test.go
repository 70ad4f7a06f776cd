package wikidata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gamepin/internal/providers/wikidata"
	"gamepin/internal/resolve"
)

func TestSearchFiltersNonGameEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "wbsearchentities" {
			t.Fatalf("unexpected action %q", r.URL.Query().Get("action"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"search":[
			{"id":"Q513867","label":"Doom","description":"1993 video game"},
			{"id":"Q19887878","label":"Doom","description":"2016 video game"},
			{"id":"Q217220","label":"Doom","description":"2005 film by Andrzej Bartkowiak"}
		]}`))
	}))
	t.Cleanup(server.Close)

	client := wikidata.New(wikidata.WithAPIURL(server.URL))
	candidates, err := client.Search(context.Background(), "Doom", resolve.SearchHints{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %+v", candidates)
	}
	if candidates[0].Type != "game" || candidates[1].Type != "game" {
		t.Errorf("video game descriptions should tag as game: %+v", candidates[:2])
	}
	if candidates[2].Type != "other" {
		t.Errorf("the film should tag as other, got %q", candidates[2].Type)
	}
}

func TestFetchDetailFoldsBindingRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if !strings.Contains(query, "wd:Q19887878") {
			t.Fatalf("query should reference the entity: %s", query)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"bindings":[
			{"title":{"value":"Doom"},"year":{"value":"2016"},
			 "platformLabel":{"value":"Microsoft Windows"},
			 "developerLabel":{"value":"id Software"},
			 "publisherLabel":{"value":"Bethesda Softworks"}},
			{"title":{"value":"Doom"},"year":{"value":"2016"},
			 "platformLabel":{"value":"PlayStation 4"},
			 "developerLabel":{"value":"id Software"},
			 "publisherLabel":{"value":"Bethesda Softworks"}}
		]}}`))
	}))
	t.Cleanup(server.Close)

	client := wikidata.New(wikidata.WithSPARQLURL(server.URL))
	detail, err := client.FetchDetail(context.Background(), "Q19887878")
	if err != nil {
		t.Fatalf("FetchDetail returned error: %v", err)
	}
	if detail.DisplayTitle != "Doom" || detail.Year != 2016 {
		t.Fatalf("detail = %+v", detail)
	}
	if len(detail.Platforms) != 2 {
		t.Errorf("platforms should deduplicate across rows: %v", detail.Platforms)
	}
	if len(detail.Developers) != 1 || detail.Developers[0] != "id Software" {
		t.Errorf("developers = %v", detail.Developers)
	}
}

func TestFetchDetailRejectsMalformedID(t *testing.T) {
	client := wikidata.New()
	if _, err := client.FetchDetail(context.Background(), "1020"); err == nil {
		t.Fatal("expected error for a non-entity id")
	}
	if _, err := client.FetchDetail(context.Background(), "Qabc"); err == nil {
		t.Fatal("expected error for a malformed entity id")
	}
}

func TestEmptyBindingsIsNotTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"bindings":[]}}`))
	}))
	t.Cleanup(server.Close)

	client := wikidata.New(wikidata.WithSPARQLURL(server.URL))
	_, err := client.FetchDetail(context.Background(), "Q1")
	if err == nil {
		t.Fatal("expected error for unknown entity")
	}
	if errors.Is(err, resolve.ErrTransient) {
		t.Error("a definitive miss must not look retryable")
	}
}

func TestSPARQLTimeoutIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := wikidata.New(wikidata.WithSPARQLURL(server.URL))
	_, err := client.FetchDetail(context.Background(), "Q1")
	if !errors.Is(err, resolve.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}
