// Package catalog persists the game catalog in SQLite: rows, per-provider
// pins, resolved identities, diagnostic reports, and run summaries.
//
// The Store manages the database connection, schema initialization, and all
// reads and writes. Rows are keyed by an opaque rid:<uuid> identifier so a
// user can freely edit a title without breaking the join to pins and
// results. Pins are user-owned data: the store exposes plain setters, but
// policy (when a pin may change) lives in the repin package, not here.
//
// Resolved identities and reports are snapshots superseded by later runs,
// never mutated in place; the runs table keeps a summary per run so resumed
// and historical runs stay inspectable.
//
// Schema changes bump schemaVersion in schema.go; the store refuses to open
// a database with a different version rather than guessing at migrations.
package catalog
