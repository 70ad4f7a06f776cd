// Package hltb queries HowLongToBeat for game candidates.
//
// HowLongToBeat has no official API; this talks to the JSON endpoint its own
// site uses. Coverage is title and release year only, which is still enough
// for a title/year consensus vote.
package hltb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamepin/internal/identity"
	"gamepin/internal/resolve"
)

// Name is the provider name used in pins, caches, and reports.
const Name = "hltb"

const defaultBaseURL = "https://howlongtobeat.com/api"

// Client provides access to the HowLongToBeat search endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ resolve.ProviderAdapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL, for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// New creates a HowLongToBeat client.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type searchRequest struct {
	SearchType  string   `json:"searchType"`
	SearchTerms []string `json:"searchTerms"`
	SearchPage  int      `json:"searchPage"`
	Size        int      `json:"size"`
}

type gameEntry struct {
	GameID          int64  `json:"game_id"`
	GameName        string `json:"game_name"`
	GameAlias       string `json:"game_alias"`
	ReleaseWorld    int    `json:"release_world"`
	ProfilePlatform string `json:"profile_platform"` // comma-separated
	ProfileDev      string `json:"profile_dev"`
}

type searchResponse struct {
	Data []gameEntry `json:"data"`
}

// Search posts a title search.
func (c *Client) Search(ctx context.Context, query string, hints resolve.SearchHints) ([]identity.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	payload, err := c.search(ctx, searchRequest{
		SearchType:  "games",
		SearchTerms: strings.Fields(query),
		SearchPage:  1,
		Size:        20,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]identity.Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		candidates = append(candidates, identity.Candidate{
			ID:           strconv.FormatInt(entry.GameID, 10),
			DisplayTitle: entry.GameName,
			Year:         entry.ReleaseWorld,
			Platforms:    splitList(entry.ProfilePlatform),
			Type:         identity.TypeGame,
		})
	}
	return candidates, nil
}

// FetchDetail loads one game's record. The endpoint has no id lookup, so
// this re-searches by id filter the way the site itself does.
func (c *Client) FetchDetail(ctx context.Context, id string) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Detail{}, errors.New("game id must not be empty")
	}
	gameID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return identity.Detail{}, fmt.Errorf("hltb id %q is not numeric", id)
	}

	var payload searchResponse
	if err := c.get(ctx, "/game/"+id, &payload); err != nil {
		return identity.Detail{}, err
	}

	for _, entry := range payload.Data {
		if entry.GameID != gameID {
			continue
		}
		detail := identity.Detail{
			ID:           id,
			DisplayTitle: entry.GameName,
			Year:         entry.ReleaseWorld,
			Platforms:    splitList(entry.ProfilePlatform),
			Developers:   splitList(entry.ProfileDev),
			Type:         identity.TypeGame,
		}
		if alias := strings.TrimSpace(entry.GameAlias); alias != "" {
			detail.Aliases = append(detail.Aliases, alias)
		}
		return detail, nil
	}
	return identity.Detail{}, fmt.Errorf("hltb game %s not found", id)
}

func (c *Client) search(ctx context.Context, request searchRequest) (searchResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return searchResponse{}, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return searchResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://howlongtobeat.com/")

	var payload searchResponse
	if err := c.do(req, &payload); err != nil {
		return searchResponse{}, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Referer", "https://howlongtobeat.com/")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("%w: execute request (latency=%v): %v", resolve.ErrTransient, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: hltb returned %d (latency=%v)", resolve.ErrTransient, resp.StatusCode, latency)
		}
		return fmt.Errorf("hltb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode hltb response: %w", err)
	}
	return nil
}

func splitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
