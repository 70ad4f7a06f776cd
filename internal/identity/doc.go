// Package identity defines the shared domain model for game identity
// resolution: catalog rows, provider candidates, match results, and the
// resolved identity chosen for one (row, provider) pair.
//
// These types are plain data. Scoring, caching, and consensus logic live in
// their own packages so the model can flow between them without import
// cycles.
package identity
