package crud

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means a single-row fetch matched no rows.
	ErrNotFound = errors.New("no row found")
	// ErrMultipleResults means a single-row fetch matched more than one row.
	ErrMultipleResults = errors.New("multiple rows found")
	// ErrAmbiguousFilter means a lookup by unique fields resolved to an empty filter.
	ErrAmbiguousFilter = errors.New("empty filter for a lookup by unique fields")

	// Programmer errors
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidModel = errors.New("invalid model binding")
	ErrNotBounded   = errors.New("model has no bound date column")

	ErrUserInactive = errors.New("user is inactive")
)

// IsIntegrityViolation reports whether err is a unique, foreign key, not-null or check
// constraint failure raised by the database. The error itself is never rewritten.
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "23")
	}

	return false
}
