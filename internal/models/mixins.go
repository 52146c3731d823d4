package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BigID provides a 64-bit integer primary key.
type BigID struct {
	ID int64 `gorm:"primaryKey"`
}

func (BigID) PKName() string               { return "id" }
func (BigID) OrderFields() []string        { return []string{"id"} }
func (BigID) DefaultOrderFields() []string { return []string{"desc_id"} }

// IntID provides a 32-bit integer primary key.
type IntID struct {
	ID int32 `gorm:"primaryKey"`
}

func (IntID) PKName() string               { return "id" }
func (IntID) OrderFields() []string        { return []string{"id"} }
func (IntID) DefaultOrderFields() []string { return []string{"desc_id"} }

// UUIDPK provides a UUID primary key, generated on insert when unset.
type UUIDPK struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (UUIDPK) PKName() string { return "id" }

func (u *UUIDPK) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DateCreated records the insert time.
type DateCreated struct {
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DateCreated) OrderFields() []string        { return []string{"created_at"} }
func (DateCreated) DefaultOrderFields() []string { return []string{"desc_created_at"} }

// Dates records the insert time and refreshes last_modified on every update.
type Dates struct {
	DateCreated
	LastModified time.Time `gorm:"autoUpdateTime"`
}

func (Dates) OrderFields() []string { return []string{"created_at", "last_modified"} }

type BigIDCreated struct {
	BigID
	DateCreated
}

func (BigIDCreated) OrderFields() []string {
	return append(BigID{}.OrderFields(), DateCreated{}.OrderFields()...)
}
func (BigIDCreated) DefaultOrderFields() []string { return []string{"desc_id"} }

type BigIDDates struct {
	BigID
	Dates
}

func (BigIDDates) OrderFields() []string {
	return append(BigID{}.OrderFields(), Dates{}.OrderFields()...)
}
func (BigIDDates) DefaultOrderFields() []string { return []string{"desc_id"} }

type IDCreated struct {
	IntID
	DateCreated
}

func (IDCreated) OrderFields() []string {
	return append(DateCreated{}.OrderFields(), IntID{}.OrderFields()...)
}
func (IDCreated) DefaultOrderFields() []string { return DateCreated{}.DefaultOrderFields() }

type IDDates struct {
	IntID
	Dates
}

func (IDDates) OrderFields() []string {
	return append(Dates{}.OrderFields(), IntID{}.OrderFields()...)
}
func (IDDates) DefaultOrderFields() []string { return Dates{}.DefaultOrderFields() }

type UUIDCreated struct {
	UUIDPK
	DateCreated
}

type UUIDDates struct {
	UUIDPK
	Dates
}
