// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"gamepin/internal/catalog"
	"gamepin/internal/identity"
)

// MustOpenStore opens a catalog.Store on a temp database and registers cleanup.
func MustOpenStore(t testing.TB) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// AddRow creates a catalog row for tests using the provided store.
func AddRow(t testing.TB, store *catalog.Store, title string, yearHint int) identity.Row {
	t.Helper()

	row, err := store.AddRow(context.Background(), title, yearHint, "")
	if err != nil {
		t.Fatalf("store.AddRow: %v", err)
	}
	return row
}
