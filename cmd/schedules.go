package main

import (
	"context"
	"time"

	"github.com/desertthunder/summarybot/internal/crud"
	"github.com/desertthunder/summarybot/internal/formatter"
	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) SchedulesList(ctx context.Context, cmd *cli.Command) error {
	maker, err := r.sessions()
	if err != nil {
		return err
	}
	schedules, err := crud.NewSchedules(crud.WithLogger(r.logger))
	if err != nil {
		return err
	}
	users, err := crud.NewUsers(crud.WithLogger(r.logger))
	if err != nil {
		return err
	}

	lq, err := listQuery(cmd, schedules)
	if err != nil {
		return err
	}
	if at := cmd.String("at"); at != "" {
		t, err := parseTime(at, time.Now())
		if err != nil {
			return err
		}
		lq.Exprs = crud.Window(t)
	}

	var (
		out    []schemas.GetSchedule
		bounds schemas.DateBounds
	)
	err = maker.Scope(ctx, func(s *shared.Session) (err error) {
		if ref := cmd.String("user"); ref != "" {
			owner, err := findUser(s, users, ref)
			if err != nil {
				return err
			}
			lq.Fields = crud.Fields{"user_id": owner.ID}
		}
		if out, err = schedules.GetMulti(s, lq); err != nil {
			return err
		}
		bounds, err = schedules.Bounds(s, lq.Exprs, lq.Fields)
		return err
	})
	if err != nil {
		return err
	}

	if err := writeList(r, cmd, out); err != nil {
		return err
	}
	format, _ := formatter.ParseFormat(cmd.String("format"))
	if format == formatter.FormatTable && cmd.String("output") == "" && bounds.Min != nil {
		return r.writePlain("created %s .. %s\n", bounds.Min.Format(time.RFC3339), bounds.Max.Format(time.RFC3339))
	}
	return nil
}

func (r *Runner) SchedulesCreate(ctx context.Context, cmd *cli.Command) error {
	title, err := requireArg("title", cmd.StringArg("title"))
	if err != nil {
		return err
	}

	now := time.Now()
	in := schemas.CreateSchedule{Title: title}
	if cmd.IsSet("note") {
		note := cmd.String("note")
		in.Note = &note
	}
	if v := cmd.String("start"); v != "" {
		start, err := parseTime(v, now)
		if err != nil {
			return err
		}
		in.StartTime = models.NewUnixTime(start)
	}
	if v := cmd.String("stop"); v != "" {
		stop, err := parseTime(v, now)
		if err != nil {
			// a bare duration counts from the start, or from now
			d, derr := shared.ConvertTime(v)
			if derr != nil {
				return err
			}
			base := now
			if !in.StartTime.IsZero() {
				base = in.StartTime.Time
			}
			stop = base.Add(d)
		}
		in.StopTime = models.NewUnixTime(stop)
	}
	if err := in.Validate(); err != nil {
		return err
	}

	maker, err := r.sessions()
	if err != nil {
		return err
	}
	schedules, err := crud.NewSchedules(crud.WithLogger(r.logger))
	if err != nil {
		return err
	}
	users, err := crud.NewUsers(crud.WithLogger(r.logger))
	if err != nil {
		return err
	}

	var out schemas.GetSchedule
	err = maker.Scope(ctx, func(s *shared.Session) (err error) {
		if ref := cmd.String("user"); ref != "" {
			owner, err := findUser(s, users, ref)
			if err != nil {
				return err
			}
			in.UserID = &owner.ID
		}
		out, err = schedules.CreateWithCommit(s, in)
		return err
	})
	if err != nil {
		return err
	}
	return writeOne(r, cmd, out)
}

func (r *Runner) SessionsOpen(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg("user", cmd.StringArg("user"))
	if err != nil {
		return err
	}
	ttl, err := r.config.API.RefreshTimedelta()
	if err != nil {
		return err
	}

	maker, users, err := r.users()
	if err != nil {
		return err
	}
	sessions, err := crud.NewSessions(ttl, crud.WithLogger(r.logger))
	if err != nil {
		return err
	}

	var out schemas.GetSession
	err = maker.Scope(ctx, func(s *shared.Session) error {
		user, err := findUser(s, users, ref)
		if err != nil {
			return err
		}
		out, err = sessions.Open(s, user)
		return err
	})
	if err != nil {
		return err
	}
	return writeOne(r, cmd, out)
}

func (r *Runner) SessionsPrune(ctx context.Context, cmd *cli.Command) error {
	maker, err := r.sessions()
	if err != nil {
		return err
	}
	sessions, err := crud.NewSessions(0, crud.WithLogger(r.logger))
	if err != nil {
		return err
	}

	var n int64
	err = maker.Scope(ctx, func(s *shared.Session) (err error) {
		if n, err = sessions.Expired(s, time.Now()); err != nil {
			return err
		}
		return s.Commit()
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ pruned %d expired session(s)\n", n)
}
