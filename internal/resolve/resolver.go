package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gamepin/internal/identity"
	"gamepin/internal/logging"
	"gamepin/internal/providercache"
	"gamepin/internal/scoring"
	"gamepin/internal/textutil"
)

// Provider pairs an adapter with its cache.
type Provider struct {
	Adapter ProviderAdapter
	Cache   *providercache.Cache
}

// RowResult is the outcome of resolving one row across all providers.
// Identities holds every provider that completed, resolved or not; Failures
// holds providers whose fetch failed transiently and must be retried on a
// later run.
type RowResult struct {
	RowID      string
	Identities map[string]identity.ResolvedIdentity
	Failures   map[string]error
}

// Failed reports whether any provider failed transiently.
func (r RowResult) Failed() bool {
	return len(r.Failures) > 0
}

// Resolver resolves rows against a fixed provider set.
type Resolver struct {
	providers  []Provider
	logger     *slog.Logger
	crossHints bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCrossHints enables the optional second pass where unresolved providers
// retry using the title a sibling provider resolved to.
func WithCrossHints() Option {
	return func(r *Resolver) { r.crossHints = true }
}

// New builds a Resolver over providers.
func New(providers []Provider, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{
		providers: providers,
		logger:    logging.NewComponentLogger(logger, "resolve"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Providers returns the configured provider names, sorted.
func (r *Resolver) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Adapter.Name())
	}
	sort.Strings(names)
	return names
}

// Flush persists every provider cache. Entries whose incremental save
// failed mid-run (disk full, directory missing) get a second chance here
// before the caches go out of scope.
func (r *Resolver) Flush() error {
	var errs []error
	for _, p := range r.providers {
		if err := p.Cache.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Adapter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Searcher returns a cache-backed search function for one provider, for the
// repin policy's corrective retries. Returns nil for unknown providers.
func (r *Resolver) Searcher(provider string) *CachedSearcher {
	for _, p := range r.providers {
		if p.Adapter.Name() == provider {
			return &CachedSearcher{provider: p}
		}
	}
	return nil
}

// CachedSearcher runs provider searches through the provider's cache.
type CachedSearcher struct {
	provider Provider
}

// Search looks up or fetches candidates for query.
func (s *CachedSearcher) Search(ctx context.Context, query string, yearHint int) ([]identity.Candidate, error) {
	key := providercache.QueryKey(query, yearHint, "")
	return s.provider.Cache.GetOrFetchCandidates(ctx, key, func(ctx context.Context) ([]identity.Candidate, error) {
		return s.provider.Adapter.Search(ctx, query, SearchHints{Year: yearHint})
	})
}

// ResolveRow resolves row against every provider concurrently. Providers
// with a pin fetch the pinned detail directly; the rest search and score.
func (r *Resolver) ResolveRow(ctx context.Context, row identity.Row) RowResult {
	result := RowResult{
		RowID:      row.RowID,
		Identities: make(map[string]identity.ResolvedIdentity, len(r.providers)),
		Failures:   make(map[string]error),
	}

	yearHint := row.YearHint
	if yearHint == 0 {
		yearHint = textutil.ExtractYearHint(row.Title)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range r.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := p.Adapter.Name()
			ri, err := r.resolveProvider(ctx, row, p, row.Title, yearHint)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[name] = err
				return
			}
			result.Identities[name] = ri
		}()
	}
	wg.Wait()

	if r.crossHints {
		r.applyCrossHints(ctx, row, yearHint, &result)
	}

	return result
}

// resolveProvider handles one (row, provider) pair.
func (r *Resolver) resolveProvider(ctx context.Context, row identity.Row, p Provider, query string, yearHint int) (identity.ResolvedIdentity, error) {
	name := p.Adapter.Name()

	if pin := row.Pin(name); pin == identity.NotFound {
		// Confirmed absent by a human: do not search again.
		return identity.ResolvedIdentity{Provider: name, Pinned: true}, nil
	} else if pin != "" {
		detail, err := p.Cache.GetOrFetchDetail(ctx, pin, func(ctx context.Context) (identity.Detail, error) {
			return p.Adapter.FetchDetail(ctx, pin)
		})
		if err != nil {
			return identity.ResolvedIdentity{}, fmt.Errorf("fetch pinned detail %q: %w", pin, err)
		}
		ri := identityFromDetail(name, detail)
		ri.Pinned = true
		return ri, nil
	}

	key := providercache.QueryKey(query, yearHint, row.PlatformHint)
	candidates, err := p.Cache.GetOrFetchCandidates(ctx, key, func(ctx context.Context) ([]identity.Candidate, error) {
		return p.Adapter.Search(ctx, query, SearchHints{Year: yearHint, Platform: row.PlatformHint})
	})
	if err != nil {
		return identity.ResolvedIdentity{}, fmt.Errorf("search %q: %w", query, err)
	}

	sel := scoring.Select(query, yearHint, candidates)
	if !sel.Accepted {
		r.logger.Debug("no acceptable candidate",
			logging.String(logging.FieldRowID, row.RowID),
			logging.String(logging.FieldProvider, name),
			logging.String(logging.FieldQuery, query),
			logging.Int("candidate_count", len(candidates)))
		return identity.ResolvedIdentity{
			Provider:     name,
			Alternatives: sel.Alternatives,
		}, nil
	}

	detail, err := p.Cache.GetOrFetchDetail(ctx, sel.Best.Candidate.ID, func(ctx context.Context) (identity.Detail, error) {
		return p.Adapter.FetchDetail(ctx, sel.Best.Candidate.ID)
	})
	if err != nil {
		return identity.ResolvedIdentity{}, fmt.Errorf("fetch detail %q: %w", sel.Best.Candidate.ID, err)
	}

	ri := identityFromDetail(name, detail)
	ri.Match = *sel.Best
	r.logger.Debug("resolved",
		logging.String(logging.FieldRowID, row.RowID),
		logging.String(logging.FieldProvider, name),
		logging.Int(logging.FieldScore, sel.Best.Score),
		logging.String("title", ri.Title))
	return ri, nil
}

// applyCrossHints gives unresolved providers one more search using the best
// resolved sibling's title. A hint, not a dependency: failures here leave
// the original unresolved outcome in place.
func (r *Resolver) applyCrossHints(ctx context.Context, row identity.Row, yearHint int, result *RowResult) {
	hint := bestResolvedTitle(result.Identities)
	if hint == "" || textutil.Normalize(hint) == textutil.Normalize(row.Title) {
		return
	}

	for _, p := range r.providers {
		name := p.Adapter.Name()
		ri, ok := result.Identities[name]
		if !ok || ri.Resolved || ri.Pinned {
			continue
		}
		retried, err := r.resolveProvider(ctx, row, p, hint, yearHint)
		if err != nil || !retried.Resolved {
			continue
		}
		r.logger.Debug("cross-provider hint resolved",
			logging.String(logging.FieldRowID, row.RowID),
			logging.String(logging.FieldProvider, name),
			logging.String(logging.FieldQuery, hint))
		result.Identities[name] = retried
	}
}

// bestResolvedTitle picks the hint donor: the resolved identity with the
// highest match score, pins first. Ties break by provider name for
// determinism.
func bestResolvedTitle(identities map[string]identity.ResolvedIdentity) string {
	names := make([]string, 0, len(identities))
	for name := range identities {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestScore := -1
	for _, name := range names {
		ri := identities[name]
		if !ri.Resolved || ri.Title == "" {
			continue
		}
		score := ri.Match.Score
		if ri.Pinned {
			score = 101
		}
		if score > bestScore {
			best = ri.Title
			bestScore = score
		}
	}
	return best
}

func identityFromDetail(provider string, d identity.Detail) identity.ResolvedIdentity {
	return identity.ResolvedIdentity{
		Provider:   provider,
		Resolved:   true,
		Title:      d.DisplayTitle,
		Year:       d.Year,
		Platforms:  d.Platforms,
		Developers: d.Developers,
		Publishers: d.Publishers,
		Aliases:    d.Aliases,
	}
}
