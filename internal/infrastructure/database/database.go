package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
)

// MemoryPath opens a private in-memory database. Tests and the one-shot CLI
// commands use it so they never touch the on-disk registry.
const MemoryPath = ":memory:"

const (
	pingTimeout = 5 * time.Second
	idleTimeout = 30 * time.Minute
)

// DB is the registry's SQLite handle.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at cfg.Path and checks that
// it answers. A new file and its directory are only readable by the owner.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	inMemory := cfg.Path == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database lives only as long as its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	if !inMemory {
		sqlDB.SetConnMaxIdleTime(idleTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("verifying database connection: %w", err), sqlDB.Close())
	}

	if !inMemory {
		// The file may not exist yet if the driver defers creation to the
		// first write; migrations run next and create it either way.
		os.Chmod(cfg.Path, 0o600) //nolint:errcheck // see above
	}

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// connectionString is the go-sqlite3 DSN: foreign keys always on, busy
// timeout in milliseconds, and WAL with synchronous=NORMAL when enabled.
func connectionString(cfg config.DatabaseConfig) string {
	if cfg.Path == MemoryPath {
		return "file::memory:?_foreign_keys=on"
	}

	pragmas := []string{
		"_busy_timeout=" + strconv.Itoa(cfg.BusyTimeout*1000),
		"_foreign_keys=on",
	}
	if cfg.WALMode {
		pragmas = append(pragmas, "_journal_mode=WAL", "_synchronous=NORMAL")
	}
	return "file:" + cfg.Path + "?" + strings.Join(pragmas, "&")
}

// Close is a no-op on a zero DB.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path is the configured database path, or MemoryPath.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck round-trips a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}
