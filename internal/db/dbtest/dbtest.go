// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"testing"

	"mt4-journal/internal/db"
	"mt4-journal/internal/store"
)

// Open returns a migrated in-memory SQLite database closed at test cleanup.
// A single connection keeps every query on the same in-memory database.
func Open(t testing.TB) *db.DB {
	t.Helper()
	d, err := db.Open(store.DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(d) })
	return d
}
