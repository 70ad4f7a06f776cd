// Package steam queries the Steam storefront API for game candidates.
package steam

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
const Name = "steam"

const defaultBaseURL = "https://store.steampowered.com/api"

// Client provides access to the Steam storefront API.
type Client struct {
	baseURL    string
	country    string
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

// New creates a Steam client. The storefront API needs no key.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		country:    "us",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type searchResponse struct {
	Items []struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"items"`
}

// Search queries the storefront search. Store entries that are plainly not
// base games (DLC, demos, soundtracks) are dropped here so they never reach
// scoring.
func (c *Client) Search(ctx context.Context, query string, hints resolve.SearchHints) ([]identity.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("cc", c.country)
	params.Set("l", "en")

	var payload searchResponse
	if err := c.get(ctx, "/storesearch/?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	candidates := make([]identity.Candidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		tag := typeTag(item.Type)
		if tag != identity.TypeGame {
			continue
		}
		candidates = append(candidates, identity.Candidate{
			ID:           strconv.FormatInt(item.ID, 10),
			DisplayTitle: item.Name,
			Type:         tag,
		})
	}
	return candidates, nil
}

type detailResponse map[string]struct {
	Success bool `json:"success"`
	Data    struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		ReleaseDate struct {
			ComingSoon bool   `json:"coming_soon"`
			Date       string `json:"date"` // "12 May, 2016"
		} `json:"release_date"`
		Platforms struct {
			Windows bool `json:"windows"`
			Mac     bool `json:"mac"`
			Linux   bool `json:"linux"`
		} `json:"platforms"`
		Developers []string `json:"developers"`
		Publishers []string `json:"publishers"`
	} `json:"data"`
}

// FetchDetail loads the full app record for one Steam app id.
func (c *Client) FetchDetail(ctx context.Context, id string) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Detail{}, errors.New("app id must not be empty")
	}

	params := url.Values{}
	params.Set("appids", id)
	params.Set("cc", c.country)
	params.Set("l", "en")

	var payload detailResponse
	if err := c.get(ctx, "/appdetails?"+params.Encode(), &payload); err != nil {
		return identity.Detail{}, err
	}

	entry, ok := payload[id]
	if !ok || !entry.Success {
		return identity.Detail{}, fmt.Errorf("steam app %s not available", id)
	}

	var platforms []string
	if entry.Data.Platforms.Windows {
		platforms = append(platforms, "PC")
	}
	if entry.Data.Platforms.Mac {
		platforms = append(platforms, "macOS")
	}
	if entry.Data.Platforms.Linux {
		platforms = append(platforms, "Linux")
	}

	return identity.Detail{
		ID:           id,
		DisplayTitle: entry.Data.Name,
		Year:         releaseYear(entry.Data.ReleaseDate.Date),
		Platforms:    platforms,
		Developers:   entry.Data.Developers,
		Publishers:   entry.Data.Publishers,
		Type:         typeTag(entry.Data.Type),
	}, nil
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
			return fmt.Errorf("%w: steam returned %d (latency=%v)", resolve.ErrTransient, resp.StatusCode, latency)
		}
		return fmt.Errorf("steam returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode steam response: %w", err)
	}
	return nil
}

func typeTag(storeType string) identity.TypeTag {
	switch strings.ToLower(strings.TrimSpace(storeType)) {
	case "app", "game", "":
		return identity.TypeGame
	case "dlc":
		return identity.TypeDLC
	case "demo":
		return identity.TypeDemo
	case "music", "soundtrack":
		return identity.TypeSoundtrack
	default:
		return identity.TypeOther
	}
}

// releaseYear extracts the year from Steam's human-readable release dates
// ("12 May, 2016", "May 2016", "2016").
func releaseYear(date string) int {
	fields := strings.Fields(strings.ReplaceAll(date, ",", " "))
	for i := len(fields) - 1; i >= 0; i-- {
		if year, err := strconv.Atoi(fields[i]); err == nil && year >= 1900 && year <= 2100 {
			return year
		}
	}
	return 0
}
