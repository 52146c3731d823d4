// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/summarybot/internal/shared"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database, closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := shared.DatabaseConfig{Driver: shared.DriverSQLite, Path: ":memory:"}
	db, err := shared.NewDatabase(cfg, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { shared.CloseDatabase(db) })

	if _, err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// NewTestSession opens a session on a fresh test database. The session is closed when the test ends.
func NewTestSession(t *testing.T) (*shared.SessionMaker, *shared.Session) {
	t.Helper()

	maker := shared.NewSessionMaker(NewTestDB(t))
	s := maker.New(context.Background())
	t.Cleanup(func() { s.Close() })
	return maker, s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
