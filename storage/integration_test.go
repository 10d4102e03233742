package storage

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/devspacehq/pulse/storage/model"
)

func testTokenKey() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

// TestSQLiteConnection tests connecting to a SQLite database
func TestSQLiteConnection(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	// Create a temporary directory for the SQLite database
	tempDir, err := os.MkdirTemp("", "pulse-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create a SQLite configuration
	config := Config{
		Driver:  DriverSQLite,
		DataDir: tempDir,
	}

	// Connect to the database
	db, err := Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite database: %v", err)
	}

	// Check if the connection is valid
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Failed to ping SQLite database: %v", err)
	}
}

// TestMySQLConnection tests connecting to a MySQL database
func TestMySQLConnection(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	// Skip if MySQL DSN is not provided
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL test. Set MYSQL_DSN environment variable")
	}

	// Create a MySQL configuration
	config := Config{
		Driver: DriverMySQL,
		DSN:    dsn,
	}

	// Connect to the database
	db, err := Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to MySQL database: %v", err)
	}

	// Check if the connection is valid
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Failed to ping MySQL database: %v", err)
	}
}

// TestPostgresConnection tests connecting to a PostgreSQL database
func TestPostgresConnection(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	// Skip if PostgreSQL DSN is not provided
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL test. Set POSTGRES_DSN environment variable")
	}

	// Create a PostgreSQL configuration
	config := Config{
		Driver: DriverPostgres,
		DSN:    dsn,
	}

	// Connect to the database
	db, err := Connect(config)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL database: %v", err)
	}

	// Check if the connection is valid
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQL DB: %v", err)
	}

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Failed to ping PostgreSQL database: %v", err)
	}
}

// TestStorageCreation tests creating a storage with different database types
func TestStorageCreation(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	// Create a temporary directory for the SQLite database
	tempDir, err := os.MkdirTemp("", "pulse-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Test SQLite storage creation
	sqliteConfig := Config{
		Driver:   DriverSQLite,
		DataDir:  tempDir,
		TokenKey: testTokenKey(),
	}

	sqliteStorage, err := NewStorage(sqliteConfig)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	// Test basic operations
	subjects := sqliteStorage.SubjectsStorage()
	if subjects == nil {
		t.Fatal("SubjectsStorage() returned nil")
	}

	checkpoints := sqliteStorage.CheckpointStorage()
	if checkpoints == nil {
		t.Fatal("CheckpointStorage() returned nil")
	}
}

// TestCheckpointRoundtrip exercises the merge semantics of checkpoint
// upserts against both backends.
func TestCheckpointRoundtrip(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	for _, backend := range []CheckpointBackendType{CheckpointBackendGorm, CheckpointBackendBadger} {
		t.Run(
			string(backend), func(t *testing.T) {
				tempDir, err := os.MkdirTemp("", "pulse-test-*")
				if err != nil {
					t.Fatalf("Failed to create temp directory: %v", err)
				}
				defer os.RemoveAll(tempDir)

				s, err := NewStorage(
					Config{
						Driver:            DriverSQLite,
						DataDir:           tempDir,
						TokenKey:          testTokenKey(),
						CheckpointBackend: backend,
					},
				)
				if err != nil {
					t.Fatalf("Failed to create storage: %v", err)
				}
				defer s.Close()
				store := s.CheckpointStorage()

				cp, err := store.Get(1)
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if cp != nil {
					t.Fatal("expected no checkpoint for fresh subject")
				}

				lastSeen := "abc123"
				checkedAt := int64(1700000000000)
				enabled := true
				err = store.Upsert(
					1, model.CheckpointUpdate{
						LastSeenID:    &lastSeen,
						LastCheckedAt: &checkedAt,
						Enabled:       &enabled,
					},
				)
				if err != nil {
					t.Fatalf("Upsert failed: %v", err)
				}

				cp, err = store.Get(1)
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if cp == nil || cp.LastSeenID == nil || *cp.LastSeenID != lastSeen {
					t.Fatalf("unexpected checkpoint after upsert: %+v", cp)
				}
				if cp.LastCheckedAt != checkedAt {
					t.Fatalf("unexpected last_checked_at: %d", cp.LastCheckedAt)
				}

				// Partial update must not clear untouched fields.
				staleAt := int64(1700000005000)
				if err = store.Upsert(1, model.CheckpointUpdate{StaleNotifiedAt: &staleAt}); err != nil {
					t.Fatalf("Upsert failed: %v", err)
				}
				cp, err = store.Get(1)
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if cp.LastSeenID == nil || *cp.LastSeenID != lastSeen {
					t.Fatal("partial update cleared last_seen_id")
				}
				if cp.StaleNotifiedAt != staleAt {
					t.Fatalf("unexpected stale_notified_at: %d", cp.StaleNotifiedAt)
				}

				if err = store.Delete(1); err != nil {
					t.Fatalf("Delete failed: %v", err)
				}
				cp, err = store.Get(1)
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if cp != nil {
					t.Fatal("expected checkpoint to be gone after delete")
				}
			},
		)
	}
}
