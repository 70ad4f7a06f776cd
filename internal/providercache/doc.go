// Package providercache provides a per-provider local cache for search
// results and detail records, so repeated runs over a large catalog do not
// hammer provider APIs.
//
// Two keyspaces live in one cache file: search queries (key built by
// QueryKey) map to candidate lists, and candidate ids map to detail records.
// An empty candidate list is a real, cacheable answer: "searched, nothing
// found" must not be re-asked on every run. Fetch failures are never cached,
// so a provider outage does not poison later runs.
//
// # Storage
//
// Each provider gets its own JSON file under the configured cache directory
// (default: ~/.cache/gamepin/<provider>.json). The format is human-readable
// and easy to inspect or prune manually. An empty path keeps the cache
// memory-only, which still deduplicates work within a single run.
//
// CLI commands for inspection and management:
//
//	gamepin cache stats              # Entry counts per provider
//	gamepin cache clear [provider]   # Drop cached entries
package providercache
