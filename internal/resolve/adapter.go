package resolve

import (
	"context"
	"errors"

	"gamepin/internal/identity"
)

// ErrTransient marks provider failures that should be retried on a later
// run: network errors, timeouts, upstream 5xx. Results guarded by it are
// never cached and never recorded as "not found".
var ErrTransient = errors.New("transient provider failure")

// SearchHints carries optional disambiguation inputs for a provider search.
// Zero values mean "no hint".
type SearchHints struct {
	Year     int
	Platform string
}

// ProviderAdapter is the contract every metadata provider implements. Search
// returns candidates in provider ranking order; an empty list is a valid
// answer, an error means the provider could not answer at all.
type ProviderAdapter interface {
	Name() string
	Search(ctx context.Context, query string, hints SearchHints) ([]identity.Candidate, error)
	FetchDetail(ctx context.Context, id string) (identity.Detail, error)
}
