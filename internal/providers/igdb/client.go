// Package igdb queries the IGDB API (Twitch-hosted) for game candidates.
//
// IGDB speaks Apicalypse: every request is a POST whose body selects fields
// and filters, authenticated with a Twitch client id and app access token.
package igdb

import (
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
const Name = "igdb"

const defaultBaseURL = "https://api.igdb.com/v4"

// Client provides access to the IGDB API.
type Client struct {
	clientID    string
	accessToken string
	baseURL     string
	httpClient  *http.Client
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

// New creates an IGDB client.
func New(clientID, accessToken string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	accessToken = strings.TrimSpace(accessToken)
	if clientID == "" || accessToken == "" {
		return nil, errors.New("igdb client id and access token required")
	}
	client := &Client{
		clientID:    clientID,
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type gameRecord struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	FirstReleaseDate int64  `json:"first_release_date"` // unix seconds
	Category         int    `json:"category"`
	Platforms        []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	AlternativeNames []struct {
		Name string `json:"name"`
	} `json:"alternative_names"`
	InvolvedCompanies []struct {
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
		Company   struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"involved_companies"`
}

// Search queries /games with a fuzzy title search.
func (c *Client) Search(ctx context.Context, query string, hints resolve.SearchHints) ([]identity.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	body := fmt.Sprintf(`search %q; fields name,first_release_date,category,platforms.name; limit 20;`, query)
	var payload []gameRecord
	if err := c.post(ctx, "/games", body, &payload); err != nil {
		return nil, err
	}

	candidates := make([]identity.Candidate, 0, len(payload))
	for _, record := range payload {
		candidates = append(candidates, identity.Candidate{
			ID:           strconv.FormatInt(record.ID, 10),
			DisplayTitle: record.Name,
			Year:         unixYear(record.FirstReleaseDate),
			Platforms:    record.platformNames(),
			Type:         categoryTag(record.Category),
		})
	}
	return candidates, nil
}

// FetchDetail loads the full game record for one IGDB id.
func (c *Client) FetchDetail(ctx context.Context, id string) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Detail{}, errors.New("game id must not be empty")
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return identity.Detail{}, fmt.Errorf("igdb id %q is not numeric", id)
	}

	body := fmt.Sprintf(
		`fields name,first_release_date,category,platforms.name,alternative_names.name,`+
			`involved_companies.developer,involved_companies.publisher,involved_companies.company.name; where id = %s;`, id)
	var payload []gameRecord
	if err := c.post(ctx, "/games", body, &payload); err != nil {
		return identity.Detail{}, err
	}
	if len(payload) == 0 {
		return identity.Detail{}, fmt.Errorf("igdb game %s not found", id)
	}

	record := payload[0]
	detail := identity.Detail{
		ID:           id,
		DisplayTitle: record.Name,
		Year:         unixYear(record.FirstReleaseDate),
		Platforms:    record.platformNames(),
		Type:         categoryTag(record.Category),
	}
	for _, alt := range record.AlternativeNames {
		if name := strings.TrimSpace(alt.Name); name != "" {
			detail.Aliases = append(detail.Aliases, name)
		}
	}
	for _, company := range record.InvolvedCompanies {
		name := strings.TrimSpace(company.Company.Name)
		if name == "" {
			continue
		}
		if company.Developer {
			detail.Developers = append(detail.Developers, name)
		}
		if company.Publisher {
			detail.Publishers = append(detail.Publishers, name)
		}
	}
	return detail, nil
}

func (c *Client) post(ctx context.Context, path, body string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("%w: execute request (latency=%v): %v", resolve.ErrTransient, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: igdb returned %d (latency=%v)", resolve.ErrTransient, resp.StatusCode, latency)
		}
		return fmt.Errorf("igdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode igdb response: %w", err)
	}
	return nil
}

func (r gameRecord) platformNames() []string {
	var out []string
	for _, platform := range r.Platforms {
		if name := strings.TrimSpace(platform.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// categoryTag maps IGDB's game category enum onto the candidate type.
// Remakes, remasters, and standalone expansions count as games; they are
// legitimate identities of their own.
func categoryTag(category int) identity.TypeTag {
	switch category {
	case 0, 4, 8, 9, 10, 11:
		return identity.TypeGame
	case 1, 2:
		return identity.TypeDLC
	default:
		return identity.TypeOther
	}
}

func unixYear(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return time.Unix(seconds, 0).UTC().Year()
}
