// Package repin decides what to do with a provider pin that diagnostics
// flagged as likely wrong: retry once with the majority-consensus title, and
// either repin to the corrected id or unpin entirely.
//
// The policy is deliberately conservative and single-shot. It acts only on
// providers that are both likely_wrong and field-level consensus outliers,
// never iterates, and accepts a replacement only when the retry clears the
// strict threshold and agrees with the majority on year. A known-wrong pin
// is worse than no pin, so a failed retry unpins rather than keeps.
//
// This package is the only code allowed to clear or replace a user-set pin.
// Any pin mutation outside those conditions is a programming error and
// panics instead of silently corrupting user-owned data.
package repin
