package schemas

import (
	"fmt"

	"github.com/desertthunder/summarybot/internal/models"
)

type GetSchedule struct {
	IntID
	DateTime
	StartStop
	UserID *int64  `json:"user_id"`
	Title  string  `json:"title"`
	Note   *string `json:"note"`
}

type CreateSchedule struct {
	StartStop
	UserID *int64  `json:"user_id,omitempty"`
	Title  string  `json:"title"`
	Note   *string `json:"note,omitempty"`
}

func (c CreateSchedule) Validate() error {
	if err := requireText("title", c.Title); err != nil {
		return err
	}
	return checkWindow(c.StartTime, c.StopTime)
}

type PatchableSchedule struct {
	UserID    *int64           `json:"user_id,omitempty"`
	Title     *string          `json:"title,omitempty"`
	Note      *string          `json:"note,omitempty"`
	StartTime *models.UnixTime `json:"start_time,omitempty"`
	StopTime  *models.UnixTime `json:"stop_time,omitempty"`
}

func (p PatchableSchedule) Validate() error {
	if p.Title != nil {
		if err := requireText("title", *p.Title); err != nil {
			return err
		}
	}
	if p.StartTime != nil && p.StopTime != nil {
		return checkWindow(*p.StartTime, *p.StopTime)
	}
	return nil
}

func checkWindow(start, stop models.UnixTime) error {
	if !start.IsZero() && !stop.IsZero() && !start.Before(stop.Time) {
		return fmt.Errorf("%w: start_time must precede stop_time", ErrInvalidPayload)
	}
	return nil
}
