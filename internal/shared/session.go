package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// SessionMaker hands out [Session] values bound to one connection pool.
type SessionMaker struct {
	db *gorm.DB
}

// NewSessionMaker wraps db.
func NewSessionMaker(db *gorm.DB) *SessionMaker {
	return &SessionMaker{db: db}
}

// DB returns the pool the maker draws from.
func (m *SessionMaker) DB() *gorm.DB {
	return m.db
}

// New opens a session bound to ctx. The caller must Close it.
func (m *SessionMaker) New(ctx context.Context) *Session {
	return &Session{db: m.db.WithContext(ctx)}
}

// Scope yields one session for the duration of fn and always releases it.
//
// Work fn did not commit is rolled back.
func (m *SessionMaker) Scope(ctx context.Context, fn func(*Session) error) (err error) {
	s := m.New(ctx)
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Session is a unit of work: a transaction that begins on first use.
//
// Writes are visible inside the session as soon as they execute and become durable on Commit.
// After Commit the next call to Tx begins a fresh transaction.
// A Session must not be shared between goroutines.
type Session struct {
	mu     sync.Mutex
	db     *gorm.DB
	tx     *gorm.DB
	closed bool
}

// Tx returns the open transaction, beginning one if needed.
func (s *Session) Tx() (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx == nil {
		tx := s.db.Begin()
		if tx.Error != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// Active reports whether a transaction is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Commit makes the session's writes durable. Committing an idle session is a no-op.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards uncommitted writes.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollback()
}

// Close rolls back anything uncommitted and marks the session unusable.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.rollback()
}

func (s *Session) rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
