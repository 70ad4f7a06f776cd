// Package wikidata queries Wikidata for game candidates.
//
// Search goes through the wbsearchentities action API; detail goes through
// the SPARQL endpoint, which is the only way to get release year, platforms,
// and companies in one round trip. Wikidata entity ids (Q…) are the pins.
package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"gamepin/internal/identity"
	"gamepin/internal/resolve"
)

// Name is the provider name used in pins, caches, and reports.
const Name = "wikidata"

const (
	defaultAPIURL    = "https://www.wikidata.org/w/api.php"
	defaultSPARQLURL = "https://query.wikidata.org/sparql"
)

// Client provides access to Wikidata's search and SPARQL endpoints.
type Client struct {
	apiURL     string
	sparqlURL  string
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

// WithAPIURL overrides the action API URL, for tests.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if apiURL = strings.TrimSpace(apiURL); apiURL != "" {
			c.apiURL = apiURL
		}
	}
}

// WithSPARQLURL overrides the SPARQL endpoint URL, for tests.
func WithSPARQLURL(sparqlURL string) Option {
	return func(c *Client) {
		if sparqlURL = strings.TrimSpace(sparqlURL); sparqlURL != "" {
			c.sparqlURL = sparqlURL
		}
	}
}

// New creates a Wikidata client. No credentials are required.
func New(opts ...Option) *Client {
	client := &Client{
		apiURL:     defaultAPIURL,
		sparqlURL:  defaultSPARQLURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type searchResponse struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"search"`
}

// Search queries wbsearchentities. Entity search returns labels only; the
// year stays 0 here and is filled in by FetchDetail after selection.
func (c *Client) Search(ctx context.Context, query string, hints resolve.SearchHints) ([]identity.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("format", "json")
	params.Set("language", "en")
	params.Set("type", "item")
	params.Set("limit", "20")
	params.Set("search", query)

	var payload searchResponse
	if err := c.get(ctx, c.apiURL+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	candidates := make([]identity.Candidate, 0, len(payload.Search))
	for _, entity := range payload.Search {
		if entity.ID == "" || entity.Label == "" {
			continue
		}
		candidates = append(candidates, identity.Candidate{
			ID:           entity.ID,
			DisplayTitle: entity.Label,
			Type:         typeFromDescription(entity.Description),
		})
	}
	return candidates, nil
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// FetchDetail runs a SPARQL query over the entity. Multi-valued properties
// come back as one binding row per combination; the rows are folded into a
// single Detail.
func (c *Client) FetchDetail(ctx context.Context, id string) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if !validEntityID(id) {
		return identity.Detail{}, fmt.Errorf("wikidata id %q is not an entity id", id)
	}

	query := fmt.Sprintf(`SELECT ?title ?year ?platformLabel ?developerLabel ?publisherLabel WHERE {
  wd:%s rdfs:label ?title . FILTER(LANG(?title) = "en")
  OPTIONAL { wd:%s wdt:P577 ?published . BIND(YEAR(?published) AS ?year) }
  OPTIONAL { wd:%s wdt:P400 ?platform . }
  OPTIONAL { wd:%s wdt:P178 ?developer . }
  OPTIONAL { wd:%s wdt:P123 ?publisher . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}`, id, id, id, id, id)

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	var payload sparqlResponse
	if err := c.get(ctx, c.sparqlURL+"?"+params.Encode(), &payload); err != nil {
		return identity.Detail{}, err
	}
	if len(payload.Results.Bindings) == 0 {
		return identity.Detail{}, fmt.Errorf("wikidata entity %s not found", id)
	}

	detail := identity.Detail{ID: id, Type: identity.TypeGame}
	platforms := map[string]bool{}
	developers := map[string]bool{}
	publishers := map[string]bool{}
	for _, binding := range payload.Results.Bindings {
		if detail.DisplayTitle == "" {
			detail.DisplayTitle = binding["title"].Value
		}
		if detail.Year == 0 {
			if year, err := strconv.Atoi(binding["year"].Value); err == nil {
				detail.Year = year
			}
		}
		collect(platforms, binding["platformLabel"].Value)
		collect(developers, binding["developerLabel"].Value)
		collect(publishers, binding["publisherLabel"].Value)
	}
	detail.Platforms = sortedKeys(platforms)
	detail.Developers = sortedKeys(developers)
	detail.Publishers = sortedKeys(publishers)
	return detail, nil
}

func (c *Client) get(ctx context.Context, requestURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
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
			return fmt.Errorf("%w: wikidata returned %d (latency=%v)", resolve.ErrTransient, resp.StatusCode, latency)
		}
		return fmt.Errorf("wikidata returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode wikidata response: %w", err)
	}
	return nil
}

// typeFromDescription is a coarse filter over the free-text entity
// description. Wikidata search cannot constrain by class, so this keeps
// obvious non-game entities from outscoring the game.
func typeFromDescription(description string) identity.TypeTag {
	description = strings.ToLower(description)
	switch {
	case strings.Contains(description, "downloadable content"), strings.Contains(description, "expansion pack"):
		return identity.TypeDLC
	case strings.Contains(description, "soundtrack"):
		return identity.TypeSoundtrack
	case strings.Contains(description, "video game"):
		return identity.TypeGame
	case description == "":
		return identity.TypeGame
	default:
		return identity.TypeOther
	}
}

func validEntityID(id string) bool {
	if len(id) < 2 || id[0] != 'Q' {
		return false
	}
	_, err := strconv.ParseInt(id[1:], 10, 64)
	return err == nil
}

func collect(set map[string]bool, value string) {
	if value = strings.TrimSpace(value); value != "" {
		set[value] = true
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
