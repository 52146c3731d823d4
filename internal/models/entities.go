package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns sessions and schedules.
type User struct {
	BigIDDates
	Username string `gorm:"uniqueIndex;not null"`
	Email    *string
	FullName *string
	IsActive bool
}

func (User) TableName() string { return TableName("User") }

// Session is a login issued to a user. RefreshUUID identifies its refresh token.
type Session struct {
	UUIDCreated
	UserID      int64     `gorm:"not null;index"`
	User        *User     `gorm:"foreignKey:UserID"`
	RefreshUUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	RefreshExp  time.Time `gorm:"not null"`
}

func (Session) TableName() string { return TableName("Session") }

// Expired reports whether the refresh token has lapsed at t.
func (s Session) Expired(t time.Time) bool {
	return !t.Before(s.RefreshExp)
}

// Schedule is a time-bounded record, optionally owned by a user.
type Schedule struct {
	IDDates
	UserID    *int64
	Title     string `gorm:"not null"`
	Note      *string
	StartTime UnixTime
	StopTime  UnixTime
}

func (Schedule) TableName() string       { return TableName("Schedule") }
func (Schedule) BoundDateColumn() string { return "created_at" }

// Contains reports whether t falls inside the schedule window. An unset bound is open.
func (s Schedule) Contains(t time.Time) bool {
	if !s.StartTime.IsZero() && t.Before(s.StartTime.Time) {
		return false
	}
	if !s.StopTime.IsZero() && !t.Before(s.StopTime.Time) {
		return false
	}
	return true
}
