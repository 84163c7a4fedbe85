package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// storageLayout keeps instants as fixed-width UTC text so that string
// comparison in SQL matches chronological order.
const storageLayout = "2006-01-02T15:04:05.000000Z07:00"

// busyTimeout bounds how long a writer waits for the database lock.
const busyTimeout = 5 * time.Second

type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
	retry  RetryPolicy
}

// NewDB opens the store at url, creating parent directories for file
// databases, and runs migrations. url may be a plain path, a file: URI,
// ":memory:" or a sqlite:/// URL.
func NewDB(url string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	path, memory := resolvePath(url)
	if !memory {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", buildDSN(url, memory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, path: path, logger: logger, retry: DefaultRetryPolicy}, nil
}

// Path is the filesystem location of the database, empty for in-memory stores.
func (db *DB) Path() string {
	return db.path
}

func resolvePath(url string) (string, bool) {
	s := strings.TrimSpace(url)
	s = strings.TrimPrefix(s, "sqlite:///")
	s = strings.TrimPrefix(s, "sqlite://")
	s = strings.TrimPrefix(s, "file:")
	if i := strings.IndexRune(s, '?'); i >= 0 {
		if strings.Contains(s[i:], "mode=memory") {
			return "", true
		}
		s = s[:i]
	}
	if s == "" || s == ":memory:" {
		return "", true
	}
	return s, false
}

func buildDSN(url string, memory bool) string {
	dsn := strings.TrimSpace(url)
	dsn = strings.TrimPrefix(dsn, "sqlite:///")
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if dsn == "" {
		dsn = ":memory:"
	}

	params := []string{
		"_foreign_keys=on",
		fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()),
		// BEGIN IMMEDIATE: writers take the lock before reading.
		"_txlock=immediate",
	}
	if !memory {
		params = append(params, "_journal_mode=WAL")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fitness_classes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            instructor TEXT NOT NULL,
            scheduled_at TEXT NOT NULL,
            total_slots INTEGER NOT NULL CHECK (total_slots >= 0),
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            class_id INTEGER NOT NULL REFERENCES fitness_classes(id) ON DELETE CASCADE,
            client_name TEXT NOT NULL,
            client_email TEXT NOT NULL,
            booked_at TEXT NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_classes_scheduled_at ON fitness_classes(scheduled_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_class_email ON bookings(class_id, client_email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_email_booked_at ON bookings(client_email, booked_at)`,

		// Last line of defence for capacity; the guarded insert checks first.
		`CREATE TRIGGER IF NOT EXISTS trg_bookings_capacity
            BEFORE INSERT ON bookings
            WHEN (SELECT COUNT(*) FROM bookings WHERE class_id = NEW.class_id) >=
                 (SELECT total_slots FROM fitness_classes WHERE id = NEW.class_id)
        BEGIN
            SELECT RAISE(ABORT, 'class is fully booked');
        END`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(query), err)
		}
	}
	return nil
}

// withTx runs fn inside a write transaction. The transaction is rolled back
// on every path that does not reach Commit.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storageLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(storageLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
