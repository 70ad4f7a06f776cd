// Package scoring ranks provider search candidates against a noisy query
// title and selects the best match above an acceptance threshold.
//
// The score is built by an ordered pipeline of named adjustments over a base
// token-sort similarity. Every adjustment that fires is recorded in the
// MatchResult breakdown, so a selection can always be explained after the
// fact: which penalty sank a candidate, which bonus promoted one.
//
// Scoring is pure and safe to call from any number of workers.
package scoring
