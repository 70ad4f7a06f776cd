package providercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gamepin/internal/identity"
	"gamepin/internal/logging"
)

// QueryKey builds the cache key for one search call. Every input that
// changes what the provider would return must be part of the key, so a
// hinted search never collides with an unhinted one.
func QueryKey(query string, yearHint int, platformHint string) string {
	return fmt.Sprintf("q=%s|y=%d|p=%s",
		strings.ToLower(strings.TrimSpace(query)),
		yearHint,
		strings.ToLower(strings.TrimSpace(platformHint)))
}

type queryEntry struct {
	Candidates []identity.Candidate `json:"candidates"`
	CachedAt   time.Time            `json:"cached_at"`
}

type detailEntry struct {
	Detail   identity.Detail `json:"detail"`
	CachedAt time.Time       `json:"cached_at"`
}

type cacheFile struct {
	Queries map[string]queryEntry  `json:"queries"`
	Details map[string]detailEntry `json:"details"`
}

// call tracks one in-flight fetch so concurrent workers asking for the same
// key share a single provider request.
type call struct {
	done       chan struct{}
	candidates []identity.Candidate
	detail     identity.Detail
	err        error
}

// Cache is a thread-safe search/detail cache for one provider.
type Cache struct {
	provider string
	path     string
	logger   *slog.Logger

	mu       sync.Mutex
	queries  map[string]queryEntry
	details  map[string]detailEntry
	inflight map[string]*call
}

// New creates a cache for provider backed by the file at path. An empty path
// keeps the cache memory-only. A corrupt or unreadable file is logged and
// treated as empty rather than failing the run.
func New(provider, path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "providercache")

	c := &Cache{
		provider: provider,
		path:     path,
		logger:   logger,
		queries:  make(map[string]queryEntry),
		details:  make(map[string]detailEntry),
		inflight: make(map[string]*call),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load provider cache",
			logging.String(logging.FieldEventType, "providercache_load_failed"),
			logging.String(logging.FieldProvider, provider),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "previously cached searches will be re-fetched"))
	}

	return c
}

// Provider returns the provider name this cache serves.
func (c *Cache) Provider() string {
	return c.provider
}

// GetOrFetchCandidates returns the cached candidate list for key, or calls
// fetch exactly once to populate it. A cached empty list is a hit. When fetch
// fails nothing is stored and every waiter for that key receives the error.
func (c *Cache) GetOrFetchCandidates(ctx context.Context, key string, fetch func(context.Context) ([]identity.Candidate, error)) ([]identity.Candidate, error) {
	flightKey := "q:" + key

	c.mu.Lock()
	if entry, ok := c.queries[key]; ok {
		c.mu.Unlock()
		return cloneCandidates(entry.Candidates), nil
	}
	if cl, ok := c.inflight[flightKey]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-cl.done:
		}
		if cl.err != nil {
			return nil, cl.err
		}
		return cloneCandidates(cl.candidates), nil
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[flightKey] = cl
	c.mu.Unlock()

	candidates, err := fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, flightKey)
	cl.candidates = candidates
	cl.err = err
	close(cl.done)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if candidates == nil {
		candidates = []identity.Candidate{}
	}
	c.queries[key] = queryEntry{Candidates: candidates, CachedAt: time.Now().UTC()}
	c.persistLocked()
	c.mu.Unlock()

	c.logger.Debug("cached search result",
		logging.String(logging.FieldProvider, c.provider),
		logging.String(logging.FieldQuery, key),
		logging.Int("candidate_count", len(candidates)))

	return cloneCandidates(candidates), nil
}

// GetOrFetchDetail returns the cached detail record for id, or calls fetch
// exactly once to populate it. Fetch failures are never cached.
func (c *Cache) GetOrFetchDetail(ctx context.Context, id string, fetch func(context.Context) (identity.Detail, error)) (identity.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Detail{}, errors.New("detail id cannot be empty")
	}
	flightKey := "d:" + id

	c.mu.Lock()
	if entry, ok := c.details[id]; ok {
		c.mu.Unlock()
		return entry.Detail, nil
	}
	if cl, ok := c.inflight[flightKey]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return identity.Detail{}, ctx.Err()
		case <-cl.done:
		}
		return cl.detail, cl.err
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[flightKey] = cl
	c.mu.Unlock()

	detail, err := fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, flightKey)
	cl.detail = detail
	cl.err = err
	close(cl.done)
	if err != nil {
		c.mu.Unlock()
		return identity.Detail{}, err
	}
	c.details[id] = detailEntry{Detail: detail, CachedAt: time.Now().UTC()}
	c.persistLocked()
	c.mu.Unlock()

	c.logger.Debug("cached detail record",
		logging.String(logging.FieldProvider, c.provider),
		logging.String("detail_id", id))

	return detail, nil
}

// Counts returns the number of cached queries and detail records.
func (c *Cache) Counts() (queries, details int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries), len(c.details)
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queries = make(map[string]queryEntry)
	c.details = make(map[string]detailEntry)

	if c.path == "" {
		return nil
	}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// Flush forces a write of the current state to disk.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// persistLocked saves after a successful store. A disk failure must not turn
// a good fetch into a run failure, so it is logged and the in-memory entry
// kept.
func (c *Cache) persistLocked() {
	if c.path == "" {
		return
	}
	if err := c.save(); err != nil {
		c.logger.Warn("failed to persist provider cache",
			logging.String(logging.FieldEventType, "providercache_save_failed"),
			logging.String(logging.FieldProvider, c.provider),
			logging.Error(err),
			logging.String(logging.FieldImpact, "entries survive only for this run"))
	}
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	if file.Queries != nil {
		c.queries = file.Queries
	}
	if file.Details != nil {
		c.details = file.Details
	}

	c.logger.Debug("loaded provider cache",
		logging.String(logging.FieldProvider, c.provider),
		logging.Int("query_count", len(c.queries)),
		logging.Int("detail_count", len(c.details)),
		logging.String("path", c.path))

	return nil
}

// save writes the cache to disk atomically. Callers hold c.mu.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(cacheFile{Queries: c.queries, Details: c.details}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func cloneCandidates(in []identity.Candidate) []identity.Candidate {
	out := make([]identity.Candidate, len(in))
	copy(out, in)
	return out
}
