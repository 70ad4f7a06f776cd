package repin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gamepin/internal/consensus"
	"gamepin/internal/identity"
	"gamepin/internal/logging"
	"gamepin/internal/scoring"
)

// Kind is the decision for one provider pin.
type Kind string

const (
	KindKeep  Kind = "keep"
	KindRepin Kind = "repin"
	KindUnpin Kind = "unpin"
)

// Action records the decision for one (row, provider) pin.
type Action struct {
	Provider string `json:"provider"`
	Kind     Kind   `json:"kind"`
	// NewID is set for repin actions.
	NewID  string `json:"new_id,omitempty"`
	Reason string `json:"reason"`
}

// Searcher re-runs one provider's search. The resolve layer supplies
// cache-backed implementations per provider.
type Searcher interface {
	Search(ctx context.Context, query string, yearHint int) ([]identity.Candidate, error)
}

// Policy applies the repin-or-unpin decision across a row's pins.
type Policy struct {
	searchers map[string]Searcher
	logger    *slog.Logger
}

// New builds a Policy over the given per-provider searchers.
func New(searchers map[string]Searcher, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Policy{
		searchers: searchers,
		logger:    logging.NewComponentLogger(logger, "repin"),
	}
}

// Apply decides keep/repin/unpin for every pinned provider on row, acting
// only on providers the report flags as likely_wrong consensus outliers.
// aliases are alternative names for the majority identity, used as fallback
// retry queries. With dryRun set the actions are computed but row.Pins is
// left untouched. Transient search failures keep the pin and surface in the
// returned error; they must be retried on a later run, never unpinned.
func (p *Policy) Apply(ctx context.Context, row *identity.Row, report consensus.Report, aliases []string, dryRun bool) ([]Action, error) {
	providers := make([]string, 0, len(row.Pins))
	for name := range row.Pins {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	var actions []Action
	var errs []error
	for _, provider := range providers {
		if !row.Pinned(provider) {
			continue
		}
		if !p.flagged(report, provider) {
			actions = append(actions, Action{
				Provider: provider,
				Kind:     KindKeep,
				Reason:   "not flagged by diagnostics",
			})
			continue
		}

		action, err := p.retry(ctx, row, report, provider, aliases)
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", provider, err))
			actions = append(actions, Action{
				Provider: provider,
				Kind:     KindKeep,
				Reason:   "retry search failed, will retry on a later run",
			})
			continue
		}

		if !dryRun && action.Kind != KindKeep {
			p.mutatePin(row, report, provider, action)
		}
		actions = append(actions, action)
	}
	return actions, errors.Join(errs...)
}

// flagged reports whether the policy may act on provider: it must be
// likely_wrong and a consensus outlier on at least one field, not merely a
// participant in a no-consensus standoff.
func (p *Policy) flagged(report consensus.Report, provider string) bool {
	wrong := false
	for _, name := range report.LikelyWrong() {
		if name == provider {
			wrong = true
			break
		}
	}
	return wrong && len(report.OutlierFields(provider)) > 0
}

// retry runs the single corrective search: majority title first, then each
// alias, one pass, no iteration. The stricter threshold avoids compounding
// the original error with another marginal match.
func (p *Policy) retry(ctx context.Context, row *identity.Row, report consensus.Report, provider string, aliases []string) (Action, error) {
	searcher, ok := p.searchers[provider]
	if !ok {
		return Action{}, fmt.Errorf("no searcher configured for %q", provider)
	}
	majorityTitle := report.Consensus.Title
	if majorityTitle == "" {
		// likely_wrong without a title consensus cannot happen in practice;
		// treat it as an unfixable flag and unpin.
		return Action{
			Provider: provider,
			Kind:     KindUnpin,
			Reason:   "flagged wrong and no consensus title to retry with",
		}, nil
	}

	queries := append([]string{majorityTitle}, aliases...)
	yearHint := report.Consensus.Year
	if yearHint == 0 {
		yearHint = row.YearHint
	}

	for _, query := range queries {
		candidates, err := searcher.Search(ctx, query, yearHint)
		if err != nil {
			return Action{}, err
		}
		sel := scoring.SelectAt(query, yearHint, candidates, scoring.StrictThreshold)
		if !sel.Accepted {
			continue
		}
		if !agreesWithMajority(sel.Best.Candidate, report) {
			continue
		}
		if sel.Best.Candidate.ID == row.Pin(provider) {
			// The strict retry found the pin we already have: the flag was a
			// coverage artifact, not a misidentification.
			return Action{
				Provider: provider,
				Kind:     KindKeep,
				Reason:   "retry confirmed the existing pin",
			}, nil
		}
		return Action{
			Provider: provider,
			Kind:     KindRepin,
			NewID:    sel.Best.Candidate.ID,
			Reason:   fmt.Sprintf("retry matched %q (score %d)", sel.Best.Candidate.DisplayTitle, sel.Best.Score),
		}, nil
	}

	return Action{
		Provider: provider,
		Kind:     KindUnpin,
		Reason:   "no strict-threshold candidate agreed with the majority",
	}, nil
}

// agreesWithMajority checks that the retry candidate would join the
// consensus rather than create a new disagreement.
func agreesWithMajority(c identity.Candidate, report consensus.Report) bool {
	if report.Consensus.Year != 0 {
		if c.Year == 0 {
			return false
		}
		d := c.Year - report.Consensus.Year
		if d < -1 || d > 1 {
			return false
		}
	}
	return true
}

// mutatePin is the single place a pin changes. The guard re-checks the
// policy conditions so no future caller can sneak a mutation past them.
func (p *Policy) mutatePin(row *identity.Row, report consensus.Report, provider string, action Action) {
	if !p.flagged(report, provider) {
		panic(fmt.Sprintf("repin: pin mutation for unflagged provider %s on row %s", provider, row.RowID))
	}
	switch action.Kind {
	case KindRepin:
		row.Pins[provider] = action.NewID
	case KindUnpin:
		row.Pins[provider] = ""
	default:
		panic(fmt.Sprintf("repin: unexpected mutation kind %q", action.Kind))
	}
	p.logger.Info("pin updated",
		logging.String(logging.FieldRowID, row.RowID),
		logging.String(logging.FieldProvider, provider),
		logging.String("action", string(action.Kind)),
		logging.String("reason", action.Reason))
}
