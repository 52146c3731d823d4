package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrUnsupportedDriver = fmt.Errorf("unsupported database driver")
	ErrInvalidDuration   = fmt.Errorf("invalid duration")

	// Database errors
	ErrSessionClosed  = fmt.Errorf("session closed")
	ErrNoMigrations   = fmt.Errorf("no migrations to rollback")
	ErrMigrationState = fmt.Errorf("inconsistent migration state")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
