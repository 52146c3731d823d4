package schemas

import (
	"time"

	"github.com/google/uuid"
)

type GetSession struct {
	UUIDID
	CreatedTime
	UserID      int64     `json:"user_id"`
	User        *GetUser  `json:"user,omitempty"`
	RefreshUUID uuid.UUID `json:"refresh_uuid"`
	RefreshExp  time.Time `json:"refresh_exp"`
}

type CreateSession struct {
	UserID      int64     `json:"user_id"`
	RefreshUUID uuid.UUID `json:"refresh_uuid"`
	RefreshExp  time.Time `json:"refresh_exp"`
}
