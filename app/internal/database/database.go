package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column already holds the value
	ErrDuplicate = errors.New("duplicate")
	// ErrDateOutOfRange is returned for instants outside years 0001-9999 UTC,
	// which the text encoding cannot read back
	ErrDateOutOfRange = errors.New("date out of range")
)

// Timestamps are stored as fixed-width UTC text so that ORDER BY on the
// column sorts chronologically.
const (
	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
	dateLayout = "2006-01-02"
)

// Init opens the SQLite database at dbPath and creates the schema.
// A single connection is used: SQLite serialises writers anyway and it keeps
// ":memory:" databases alive for the life of the handle.
func Init(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	if DB != nil {
		_ = DB.Close()
	}
	DB = db

	return EnsureSchema()
}

// Close closes the global database handle.
func Close() error {
	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func storable(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
