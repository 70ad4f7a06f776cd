// Package resolve runs the per-provider identity resolution for catalog
// rows: search each configured provider for the row title, score the
// returned candidates, and fetch the detail record for the accepted match.
//
// Providers are independent by design. Each gets its own adapter and cache,
// failures are isolated to the (row, provider) pair, and a transient fetch
// failure on one provider never blocks or degrades the others. An optional
// second pass lets already-resolved providers lend their display title as a
// search hint to providers that came up empty, without ever making one
// provider depend on another.
package resolve
