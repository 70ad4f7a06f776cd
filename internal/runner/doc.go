// Package runner orchestrates catalog resolution runs.
//
// A run walks every catalog row through resolution, persists identities as
// soon as each row completes, diagnoses cross-provider consensus, and records
// a summary that keeps resolved, needs-review, and transiently-failed rows
// strictly separate. A file lock around the data directory enforces one run
// at a time; interrupted runs resume from persisted state on the next
// invocation.
//
// The corrective repin pass reuses the same lock and applies the repin policy
// to rows whose last report flagged a provider, persisting pin changes only
// outside dry-run mode.
package runner
