package database_test

import (
	"strings"
	"testing"

	"github.com/tunevest/songshare-ledger/internal/database"
)

// TestMigrate verifies that a fresh database comes up with the full ledger
// schema and a readable migration version.
//
// WHY: Every service test and every deployment runs through Migrate first.
// A broken embedded migration would take the whole suite down with it, so
// this pins the happy path explicitly.
func TestMigrate(t *testing.T) {
	t.Run("creates the ledger schema on an empty database", func(t *testing.T) {
		// Setup
		db, err := database.Open(":memory:")
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })

		// Execute
		if err := database.Migrate(db); err != nil {
			t.Fatalf("Migrate() returned unexpected error: %v", err)
		}

		// Assert
		tables := []string{
			"fractional_songs",
			"share_ownerships",
			"share_transactions",
			"revenue_distributions",
			"individual_revenue_payouts",
			"price_history",
			"outbox_events",
			"ledger_settings",
		}
		for _, table := range tables {
			var name string
			err := db.QueryRow(
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
			).Scan(&name)
			if err != nil {
				t.Errorf("Expected table %q to exist after migration: %v", table, err)
			}
		}

		version, err := database.SchemaVersion(db)
		if err != nil {
			t.Fatalf("SchemaVersion() returned unexpected error: %v", err)
		}
		if version < 1 {
			t.Errorf("Expected schema version of at least 1, got %d", version)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		// Setup
		db, err := database.Open(":memory:")
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })

		if err := database.Migrate(db); err != nil {
			t.Fatalf("Migrate() returned unexpected error: %v", err)
		}

		// Execute
		err = database.Migrate(db)

		// Assert
		if err != nil {
			t.Errorf("Expected second Migrate() to be a no-op, got %v", err)
		}
	})
}

// TestDSN verifies the connection string decoration applied by Open.
func TestDSN(t *testing.T) {
	t.Run("adds the write lock parameter to a bare path", func(t *testing.T) {
		dsn := database.DSN("./data/ledger.db")
		if !strings.Contains(dsn, "_txlock=immediate") {
			t.Errorf("Expected DSN to carry _txlock=immediate, got %q", dsn)
		}
	})

	t.Run("leaves a parameterised path alone", func(t *testing.T) {
		raw := "./data/ledger.db?cache=shared"
		if dsn := database.DSN(raw); dsn != raw {
			t.Errorf("Expected DSN to be unchanged, got %q", dsn)
		}
	})
}

// TestHealthCheck verifies connectivity detection against live and closed handles.
func TestHealthCheck(t *testing.T) {
	t.Run("passes for a live connection", func(t *testing.T) {
		db, err := database.Open(":memory:")
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		if err := database.HealthCheck(db); err != nil {
			t.Errorf("Expected healthy database, got %v", err)
		}
	})

	t.Run("fails for a closed connection", func(t *testing.T) {
		db, err := database.Open(":memory:")
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		db.Close()

		if err := database.HealthCheck(db); err == nil {
			t.Error("Expected error for closed database, got nil")
		}
	})
}
