// Package rawg queries the RAWG video game database API.
package rawg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamepin/internal/identity"
	"gamepin/internal/resolve"
)

// Name is the provider name used in pins, caches, and reports.
const Name = "rawg"

const defaultBaseURL = "https://api.rawg.io/api"

// Client provides access to the RAWG API.
type Client struct {
	apiKey     string
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

// New creates a RAWG client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("rawg api key required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type platformRef struct {
	Platform struct {
		Name string `json:"name"`
	} `json:"platform"`
}

type gameRecord struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Released  string        `json:"released"` // "2016-05-13"
	Platforms []platformRef `json:"platforms"`
}

type searchResponse struct {
	Results []gameRecord `json:"results"`
}

// Search queries /games. The optional year hint narrows the release window,
// mirroring how a human would filter RAWG's own search page.
func (c *Client) Search(ctx context.Context, query string, hints resolve.SearchHints) ([]identity.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("search", query)
	params.Set("page_size", "20")
	if hints.Year > 0 {
		params.Set("dates", fmt.Sprintf("%d-01-01,%d-12-31", hints.Year-1, hints.Year+1))
	}

	var payload searchResponse
	if err := c.get(ctx, "/games?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	candidates := make([]identity.Candidate, 0, len(payload.Results))
	for _, result := range payload.Results {
		candidates = append(candidates, identity.Candidate{
			ID:           strconv.FormatInt(result.ID, 10),
			DisplayTitle: result.Name,
			Year:         releasedYear(result.Released),
			Platforms:    platformNames(result.Platforms),
			Type:         identity.TypeGame,
		})
	}
	return candidates, nil
}

type detailRecord struct {
	gameRecord
	Developers []struct {
		Name string `json:"name"`
	} `json:"developers"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	AlternativeNames []string `json:"alternative_names"`
}

// FetchDetail loads the full game record for one RAWG id.
func (c *Client) FetchDetail(ctx context.Context, id string) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Detail{}, errors.New("game id must not be empty")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)

	var payload detailRecord
	if err := c.get(ctx, "/games/"+url.PathEscape(id)+"?"+params.Encode(), &payload); err != nil {
		return identity.Detail{}, err
	}

	detail := identity.Detail{
		ID:           id,
		DisplayTitle: payload.Name,
		Year:         releasedYear(payload.Released),
		Platforms:    platformNames(payload.Platforms),
		Aliases:      payload.AlternativeNames,
		Type:         identity.TypeGame,
	}
	for _, dev := range payload.Developers {
		detail.Developers = append(detail.Developers, dev.Name)
	}
	for _, pub := range payload.Publishers {
		detail.Publishers = append(detail.Publishers, pub.Name)
	}
	return detail, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("%w: execute request (latency=%v): %v", resolve.ErrTransient, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: rawg returned %d (latency=%v)", resolve.ErrTransient, resp.StatusCode, latency)
		}
		return fmt.Errorf("rawg returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rawg response: %w", err)
	}
	return nil
}

func platformNames(refs []platformRef) []string {
	var out []string
	for _, ref := range refs {
		if name := strings.TrimSpace(ref.Platform.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// releasedYear extracts the year from RAWG's ISO release dates.
func releasedYear(released string) int {
	if len(released) < 4 {
		return 0
	}
	year, err := strconv.Atoi(released[:4])
	if err != nil || year < 1900 || year > 2100 {
		return 0
	}
	return year
}
