// Package logging builds slog loggers for the gamepin CLI and core packages.
//
// It provides console and JSON handlers behind a single Options struct,
// attribute helpers so call sites stay terse, and component loggers that
// stamp a stable "component" field on every record. Core packages accept a
// *slog.Logger and fall back to NewNop when given nil, which keeps tests
// quiet without conditional logging at call sites.
package logging
