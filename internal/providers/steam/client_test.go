package steam_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamepin/internal/providers/steam"
	"gamepin/internal/resolve"
)

func TestSearchFiltersNonGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") != "Doom" {
			t.Fatalf("unexpected query: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":379720,"type":"app","name":"DOOM"},
			{"id":512830,"type":"dlc","name":"DOOM - Unto the Evil"},
			{"id":512831,"type":"music","name":"DOOM Soundtrack"},
			{"id":512832,"type":"demo","name":"DOOM Demo"}
		]}`))
	}))
	t.Cleanup(server.Close)

	client := steam.New(steam.WithBaseURL(server.URL))
	candidates, err := client.Search(context.Background(), "Doom", resolve.SearchHints{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "379720" {
		t.Fatalf("candidates = %+v, want only the base game", candidates)
	}
}

func TestFetchDetailParsesAppData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appids") != "379720" {
			t.Fatalf("unexpected query: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"379720":{"success":true,"data":{
			"name":"DOOM","type":"game",
			"release_date":{"coming_soon":false,"date":"12 May, 2016"},
			"platforms":{"windows":true,"mac":false,"linux":true},
			"developers":["id Software"],"publishers":["Bethesda Softworks"]
		}}}`))
	}))
	t.Cleanup(server.Close)

	client := steam.New(steam.WithBaseURL(server.URL))
	detail, err := client.FetchDetail(context.Background(), "379720")
	if err != nil {
		t.Fatalf("FetchDetail returned error: %v", err)
	}
	if detail.DisplayTitle != "DOOM" || detail.Year != 2016 {
		t.Fatalf("detail = %+v", detail)
	}
	if len(detail.Platforms) != 2 {
		t.Errorf("platforms = %v, want PC and Linux", detail.Platforms)
	}
	if len(detail.Developers) != 1 || detail.Developers[0] != "id Software" {
		t.Errorf("developers = %v", detail.Developers)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := steam.New(steam.WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), "Doom", resolve.SearchHints{})
	if !errors.Is(err, resolve.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestUnsuccessfulDetailIsNotTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"999":{"success":false}}`))
	}))
	t.Cleanup(server.Close)

	client := steam.New(steam.WithBaseURL(server.URL))
	_, err := client.FetchDetail(context.Background(), "999")
	if err == nil {
		t.Fatal("expected error for unavailable app")
	}
	if errors.Is(err, resolve.ErrTransient) {
		t.Error("a definitive miss must not look retryable")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client := steam.New()
	if _, err := client.Search(context.Background(), "  ", resolve.SearchHints{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}
