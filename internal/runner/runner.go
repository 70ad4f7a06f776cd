package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gamepin/internal/catalog"
	"gamepin/internal/consensus"
	"gamepin/internal/identity"
	"gamepin/internal/logging"
	"gamepin/internal/repin"
	"gamepin/internal/resolve"
	"gamepin/internal/textutil"
)

// providerPreference orders providers for canonical-title suggestions.
var providerPreference = []string{"steam", "rawg", "igdb", "hltb", "wikidata"}

const defaultWorkers = 4

// Runner coordinates resolution and repin passes over a catalog.
type Runner struct {
	store    *catalog.Store
	resolver *resolve.Resolver
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock
	workers  int
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets how many rows resolve concurrently.
func WithWorkers(workers int) Option {
	return func(r *Runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// New constructs a runner. lockPath guards the data directory against
// concurrent runs.
func New(store *catalog.Store, resolver *resolve.Resolver, lockPath string, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if store == nil || resolver == nil {
		return nil, errors.New("runner requires store and resolver")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		store:    store,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "runner"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RowOutcome is the per-row summary of one resolution run.
type RowOutcome struct {
	RowID      string
	Title      string
	Confidence consensus.Confidence
	Tags       []string
	// SuggestedTitle is the canonical display title drawn from the majority
	// group, set only for rows that need review.
	SuggestedTitle string
	// Failures maps provider name to the transient error that kept the row
	// out of this run's results.
	Failures map[string]string

	saveErr error
}

// Failed reports whether any provider failed transiently for this row.
func (o RowOutcome) Failed() bool { return len(o.Failures) > 0 }

// NeedsReview reports whether the row's diagnosis asks for human attention.
func (o RowOutcome) NeedsReview() bool {
	return !o.Failed() && o.Confidence != consensus.ConfidenceHigh
}

// Summary is the outcome of one full resolution run. Failed rows are never
// folded into Resolved or Review.
type Summary struct {
	RunID    string
	Resolved int
	Review   int
	Failed   int
	Outcomes []RowOutcome
}

// Resolve runs a full resolution pass over every catalog row.
func (r *Runner) Resolve(ctx context.Context) (Summary, error) {
	unlock, err := r.acquireLock()
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	runID, err := r.store.StartRun(ctx)
	if err != nil {
		return Summary{}, err
	}

	rows, err := r.store.ListRows(ctx)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]RowOutcome, len(rows))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.resolveRow(ctx, runID, rows[i])
			}
		}()
	}
	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	summary := Summary{RunID: runID, Outcomes: outcomes}
	var errs []error
	for _, outcome := range outcomes {
		switch {
		case outcome.Failed():
			summary.Failed++
		case outcome.NeedsReview():
			summary.Review++
		default:
			summary.Resolved++
		}
		if outcome.saveErr != nil {
			errs = append(errs, outcome.saveErr)
		}
	}

	if err := r.store.FinishRun(ctx, runID, summary.Resolved, summary.Review, summary.Failed); err != nil {
		errs = append(errs, err)
	}

	// Run end is the cache lifetime boundary: flush so the next run starts
	// from everything this one fetched.
	if err := r.resolver.Flush(); err != nil {
		r.logger.Warn("provider cache flush failed",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldEventType, "cache_flush_failed"),
			logging.Error(err))
	}

	r.logger.Info("run finished",
		logging.String(logging.FieldRunID, runID),
		logging.Int("resolved", summary.Resolved),
		logging.Int("review", summary.Review),
		logging.Int("failed", summary.Failed))
	return summary, errors.Join(errs...)
}

// resolveRow resolves one row and persists whatever completed. Identities
// are written even when a sibling provider failed, so an interrupted or
// partially failed run resumes instead of refetching.
func (r *Runner) resolveRow(ctx context.Context, runID string, row identity.Row) RowOutcome {
	outcome := RowOutcome{RowID: row.RowID, Title: row.Title}

	result := r.resolver.ResolveRow(ctx, row)
	if len(result.Identities) > 0 {
		if err := r.store.SaveIdentities(ctx, row.RowID, runID, result.Identities); err != nil {
			outcome.saveErr = fmt.Errorf("save identities for %s: %w", row.RowID, err)
			return outcome
		}
	}

	if result.Failed() {
		outcome.Failures = make(map[string]string, len(result.Failures))
		for provider, err := range result.Failures {
			outcome.Failures[provider] = err.Error()
			r.logger.Warn("provider failed",
				logging.String(logging.FieldRowID, row.RowID),
				logging.String(logging.FieldProvider, provider),
				logging.String(logging.FieldEventType, "transient_failure"),
				logging.Error(err))
		}
		// No report from partial data: the stale one stays until a clean run.
		return outcome
	}

	report := consensus.Diagnose(row.RowID, result.Identities)
	if err := r.store.SaveReport(ctx, runID, report); err != nil {
		outcome.saveErr = fmt.Errorf("save report for %s: %w", row.RowID, err)
		return outcome
	}

	outcome.Confidence = report.Confidence
	outcome.Tags = report.Tags
	if outcome.NeedsReview() {
		outcome.SuggestedTitle = SuggestTitle(result.Identities, report)
	}
	return outcome
}

// RowActions records the repin pass outcome for one row.
type RowActions struct {
	RowID   string
	Actions []repin.Action
	// Err carries a transient retry failure; the affected pins were kept.
	Err string
}

// Repin applies the corrective repin policy to every row whose last report
// flagged a provider. With dryRun the actions are computed and returned but
// no pin changes are persisted.
func (r *Runner) Repin(ctx context.Context, dryRun bool) ([]RowActions, error) {
	unlock, err := r.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	searchers := make(map[string]repin.Searcher)
	for _, name := range r.resolver.Providers() {
		searchers[name] = r.resolver.Searcher(name)
	}
	policy := repin.New(searchers, r.logger)

	rowIDs, err := r.store.ReviewRowIDs(ctx)
	if err != nil {
		return nil, err
	}

	var results []RowActions
	var errs []error
	for _, rowID := range rowIDs {
		row, err := r.store.GetRow(ctx, rowID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report, err := r.store.Report(ctx, rowID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if row == nil || report == nil {
			continue
		}
		identities, err := r.store.Identities(ctx, rowID)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		actions, applyErr := policy.Apply(ctx, row, *report, trustedAliases(identities, *report), dryRun)
		entry := RowActions{RowID: rowID, Actions: actions}
		if applyErr != nil {
			entry.Err = applyErr.Error()
		}
		results = append(results, entry)

		if dryRun {
			continue
		}
		for _, action := range actions {
			switch action.Kind {
			case repin.KindRepin:
				if err := r.store.SetPin(ctx, rowID, action.Provider, action.NewID); err != nil {
					errs = append(errs, fmt.Errorf("persist repin for %s: %w", rowID, err))
				}
			case repin.KindUnpin:
				if err := r.store.SetPin(ctx, rowID, action.Provider, ""); err != nil {
					errs = append(errs, fmt.Errorf("persist unpin for %s: %w", rowID, err))
				}
			}
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) acquireLock() (func(), error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another gamepin run holds the lock at %s", r.lockPath)
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}, nil
}

// trustedAliases collects aliases from providers the diagnosis did not flag,
// for the repin policy's fallback queries.
func trustedAliases(identities map[string]identity.ResolvedIdentity, report consensus.Report) []string {
	wrong := make(map[string]bool)
	for _, provider := range report.LikelyWrong() {
		wrong[provider] = true
	}
	seen := make(map[string]bool)
	var aliases []string
	for _, provider := range providerPreference {
		ri, ok := identities[provider]
		if !ok || wrong[provider] {
			continue
		}
		for _, alias := range ri.Aliases {
			key := textutil.Normalize(alias)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			aliases = append(aliases, alias)
		}
	}
	return aliases
}

// SuggestTitle picks the canonical display title for review output: the raw
// title of the highest-preference provider inside the majority title group,
// falling back to display-casing the consensus value.
func SuggestTitle(identities map[string]identity.ResolvedIdentity, report consensus.Report) string {
	want := textutil.Normalize(report.Consensus.Title)
	if want == "" {
		return ""
	}
	for _, provider := range providerPreference {
		ri, ok := identities[provider]
		if !ok || !ri.Resolved {
			continue
		}
		if textutil.Normalize(ri.Title) == want {
			return ri.Title
		}
	}
	return cases.Title(language.English).String(report.Consensus.Title)
}
