// Package testutil provides shared test helpers for setting up cache stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/daybook/internal/cachestore"
)

// TestSQLite creates a temporary SQLite-backed store that is automatically
// cleaned up.
func TestSQLite(t *testing.T) *cachestore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "daybook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := cachestore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestPebble creates a temporary Pebble-backed store that is automatically
// cleaned up.
func TestPebble(t *testing.T) *cachestore.Pebble {
	t.Helper()
	store, err := cachestore.OpenPebble(filepath.Join(t.TempDir(), "pebble"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
