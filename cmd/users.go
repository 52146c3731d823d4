package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/summarybot/internal/crud"
	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm/clause"
)

type orderer interface {
	OrderBy(name string) (clause.OrderByColumn, error)
	DefaultOrder() []clause.OrderByColumn
}

// listQuery builds a listing from --offset, --limit and --order.
func listQuery(cmd *cli.Command, o orderer) (crud.ListQuery, error) {
	lq := crud.ListQuery{Offset: int(cmd.Int("offset"))}
	if lq.Offset < 0 {
		return lq, fmt.Errorf("%w: --offset must not be negative", shared.ErrInvalidFlag)
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		lq.Limit = &limit
	}

	names := shared.SplitList(cmd.String("order"))
	if len(names) == 0 {
		lq.Order = o.DefaultOrder()
		return lq, nil
	}
	for _, name := range names {
		col, err := o.OrderBy(name)
		if err != nil {
			return lq, err
		}
		lq.Order = append(lq.Order, col)
	}
	return lq, nil
}

// findUser resolves a numeric id or a username.
func findUser(s *shared.Session, users *crud.Users, ref string) (*models.User, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return users.GetOneRaw(s, nil, crud.Fields{"id": id})
	}
	return users.GetByUsername(s, ref)
}

func requireArg(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

func (r *Runner) users() (*shared.SessionMaker, *crud.Users, error) {
	maker, err := r.sessions()
	if err != nil {
		return nil, nil, err
	}
	users, err := crud.NewUsers(crud.WithLogger(r.logger))
	if err != nil {
		return nil, nil, err
	}
	return maker, users, nil
}

func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	maker, users, err := r.users()
	if err != nil {
		return err
	}

	lq, err := listQuery(cmd, users)
	if err != nil {
		return err
	}
	if active := cmd.String("active"); active != "" {
		lq.Fields = crud.Fields{"is_active": shared.ParseBool(active)}
	}

	var out []schemas.GetUser
	err = maker.Scope(ctx, func(s *shared.Session) (err error) {
		out, err = users.GetMulti(s, lq)
		return err
	})
	if err != nil {
		return err
	}
	return writeList(r, cmd, out)
}

func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	username, err := requireArg("username", cmd.StringArg("username"))
	if err != nil {
		return err
	}

	in := schemas.CreateUser{Username: username, IsActive: !cmd.Bool("inactive")}
	if cmd.IsSet("email") {
		email := cmd.String("email")
		in.Email = &email
	}
	if cmd.IsSet("name") {
		name := cmd.String("name")
		in.FullName = &name
	}
	if err := in.Validate(); err != nil {
		return err
	}

	maker, users, err := r.users()
	if err != nil {
		return err
	}

	var out schemas.GetUser
	err = maker.Scope(ctx, func(s *shared.Session) (err error) {
		if !cmd.Bool("upsert") {
			out, err = users.CreateWithCommit(s, in)
			return err
		}

		m, err := users.Upsert(s, []string{"username"}, in)
		if err != nil {
			return err
		}
		if err := s.Commit(); err != nil {
			return err
		}
		out, err = users.GetOne(s, nil, crud.Fields{"id": m.ID})
		return err
	})
	if err != nil {
		return err
	}

	r.logger.Info("user saved", "username", out.Username, "id", out.ID)
	return writeOne(r, cmd, out)
}

func (r *Runner) UsersGet(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg("user", cmd.StringArg("user"))
	if err != nil {
		return err
	}
	maker, users, err := r.users()
	if err != nil {
		return err
	}

	var out schemas.GetUser
	err = maker.Scope(ctx, func(s *shared.Session) error {
		m, err := findUser(s, users, ref)
		if err != nil {
			return err
		}
		out, err = schemas.MapOne[schemas.GetUser](m)
		return err
	})
	if err != nil {
		return err
	}
	return writeOne(r, cmd, out)
}

func (r *Runner) UsersUpdate(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg("user", cmd.StringArg("user"))
	if err != nil {
		return err
	}

	var patch schemas.PatchableUser
	for flag, dst := range map[string]**string{"username": &patch.Username, "email": &patch.Email, "name": &patch.FullName} {
		if cmd.IsSet(flag) {
			v := cmd.String(flag)
			*dst = &v
		}
	}
	if cmd.IsSet("active") {
		active := cmd.Bool("active")
		patch.IsActive = &active
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	maker, users, err := r.users()
	if err != nil {
		return err
	}

	var out schemas.GetUser
	err = maker.Scope(ctx, func(s *shared.Session) error {
		m, err := findUser(s, users, ref)
		if err != nil {
			return err
		}
		if _, err := users.Patch(s, m.ID, patch); err != nil {
			return err
		}
		if err := s.Commit(); err != nil {
			return err
		}
		out, err = users.GetOne(s, nil, crud.Fields{"id": m.ID})
		return err
	})
	if err != nil {
		return err
	}
	return writeOne(r, cmd, out)
}

func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg("user", cmd.StringArg("user"))
	if err != nil {
		return err
	}
	maker, users, err := r.users()
	if err != nil {
		return err
	}

	var name string
	err = maker.Scope(ctx, func(s *shared.Session) error {
		m, err := findUser(s, users, ref)
		if err != nil {
			return err
		}
		name = m.Username
		if _, err := users.Delete(s, nil, crud.Fields{"id": m.ID}); err != nil {
			return err
		}
		return s.Commit()
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ deleted user %s\n", name)
}

// UsersSetActive returns the action behind users activate and users deactivate.
func (r *Runner) UsersSetActive(active bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ref, err := requireArg("user", cmd.StringArg("user"))
		if err != nil {
			return err
		}
		maker, users, err := r.users()
		if err != nil {
			return err
		}

		var name string
		err = maker.Scope(ctx, func(s *shared.Session) error {
			m, err := findUser(s, users, ref)
			if err != nil {
				return err
			}
			name = m.Username
			set := users.Deactivate
			if active {
				set = users.Activate
			}
			if _, err := set(s, m.ID); err != nil {
				return err
			}
			return s.Commit()
		})
		if err != nil {
			return err
		}

		state := "inactive"
		if active {
			state = "active"
		}
		return r.writePlain("✓ user %s is %s\n", name, state)
	}
}

// parseTime reads "now", unix seconds or RFC 3339.
func parseTime(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "now") {
		return now, nil
	}
	if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(sec, 0), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", shared.ErrInvalidFlag, value)
	}
	return t, nil
}
