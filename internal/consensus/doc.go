// Package consensus cross-checks the per-provider resolved identities of one
// catalog row and reports where providers disagree.
//
// Diagnose is a pure function: provider map in, Report out, no I/O. Agreement
// is computed per field with a field-appropriate comparison (title by
// normalized equality, year with a one-year tolerance, platform and company
// sets by non-empty intersection). A strict majority of the providers that
// reported a field establishes its consensus value; the rest are outliers.
// When no strict majority exists the field gets a no-consensus tag instead of
// naming an outlier, since ambiguity is not blame.
//
// Tags are a flat, sorted list of strings so they survive CSV export and
// diffing. Confidence is derived from the tag set alone, never from which
// provider produced which tag.
package consensus
