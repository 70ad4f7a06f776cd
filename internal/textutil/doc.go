// Package textutil provides title normalization and string similarity for
// matching noisy game titles against provider catalogs.
//
// The primary use cases are:
//   - Normalizing titles for comparison (case, punctuation, roman numerals)
//   - Extracting year hints and sequel numbers from titles
//   - Computing token-sort and partial similarity ratios in [0,100]
//
// Normalization is deterministic and idempotent; every comparison in the
// scorer and the consensus engine goes through Normalize first so the two
// layers can never disagree about what "the same title" means.
package textutil
