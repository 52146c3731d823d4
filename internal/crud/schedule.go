package crud

import (
	"time"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"gorm.io/gorm/clause"
)

// Schedules is the data access service for [models.Schedule].
type Schedules struct {
	*Base[models.Schedule, schemas.GetSchedule, schemas.CreateSchedule]
}

func NewSchedules(opts ...Option) (*Schedules, error) {
	base, err := New[models.Schedule, schemas.GetSchedule, schemas.CreateSchedule](opts...)
	if err != nil {
		return nil, err
	}
	return &Schedules{Base: base}, nil
}

// Window matches schedules whose window contains at. An unset bound is open.
func Window(at time.Time) Exprs {
	ts := at.Unix()
	return Exprs{
		clause.Or(
			clause.Eq{Column: Col("start_time"), Value: nil},
			clause.Lte{Column: Col("start_time"), Value: ts},
		),
		clause.Or(
			clause.Eq{Column: Col("stop_time"), Value: nil},
			clause.Gt{Column: Col("stop_time"), Value: ts},
		),
	}
}

// Active lists the schedules active at the given time, further narrowed by lq.
func (c *Schedules) Active(s *shared.Session, at time.Time, lq ListQuery) ([]schemas.GetSchedule, error) {
	lq.Exprs = append(Window(at), lq.Exprs...)
	return c.GetMulti(s, lq)
}

// Patch applies the set fields of p to schedule id.
func (c *Schedules) Patch(s *shared.Session, id int32, p schemas.PatchableSchedule) (int64, error) {
	values, err := schemas.Dump(p, false)
	if err != nil {
		return 0, err
	}
	return c.Update(s, Fields{"id": id}, values, true)
}
