package schemas

import (
	"time"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/google/uuid"
)

type BigIntID struct {
	ID int64 `json:"id"`
}

type IntID struct {
	ID int32 `json:"id"`
}

type UUIDID struct {
	ID uuid.UUID `json:"id"`
}

type CreatedTime struct {
	CreatedAt time.Time `json:"created_at"`
}

type DateTime struct {
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// StartStop is a window in unix seconds. JSON renders each bound as RFC 3339, or 0 when unset.
type StartStop struct {
	StartTime models.UnixTime `json:"start_time"`
	StopTime  models.UnixTime `json:"stop_time"`
}
