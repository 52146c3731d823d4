package crud

import (
	"fmt"
	"time"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sessions is the data access service for [models.Session]. Reads preload the owning user.
type Sessions struct {
	*Base[models.Session, schemas.GetSession, schemas.CreateSession]
	refreshTTL time.Duration
	now        func() time.Time
}

// NewSessions builds the service. refreshTTL sets the lifetime of new sessions.
func NewSessions(refreshTTL time.Duration, opts ...Option) (*Sessions, error) {
	opts = append([]Option{WithSelect(func(db *gorm.DB) *gorm.DB {
		return db.Preload("User")
	})}, opts...)

	base, err := New[models.Session, schemas.GetSession, schemas.CreateSession](opts...)
	if err != nil {
		return nil, err
	}
	return &Sessions{Base: base, refreshTTL: refreshTTL, now: time.Now}, nil
}

// Open issues and commits a session for an active user.
func (c *Sessions) Open(s *shared.Session, user *models.User) (schemas.GetSession, error) {
	if !user.IsActive {
		return schemas.GetSession{}, fmt.Errorf("%w: %s", ErrUserInactive, user.Username)
	}

	session, err := c.CreateWithCommit(s, schemas.CreateSession{
		UserID:      user.ID,
		RefreshUUID: uuid.New(),
		RefreshExp:  c.now().Add(c.refreshTTL).UTC(),
	})
	if err != nil {
		return schemas.GetSession{}, err
	}

	c.logger.Info("session opened", "user", user.Username, "session", session.ID)
	return session, nil
}

// ByRefresh finds the session owning a refresh token id.
func (c *Sessions) ByRefresh(s *shared.Session, refresh uuid.UUID) (*models.Session, error) {
	return c.GetOneRaw(s, nil, Fields{"refresh_uuid": refresh})
}

// Expired deletes the sessions whose refresh token lapsed at or before now.
func (c *Sessions) Expired(s *shared.Session, now time.Time) (int64, error) {
	return c.Delete(s, Expr(clause.Lte{Column: Col("refresh_exp"), Value: now.UTC()}), nil)
}
