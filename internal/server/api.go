package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/summarybot/internal/crud"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
)

// API serves users and schedules over JSON.
type API struct {
	config    *shared.Config
	maker     *shared.SessionMaker
	users     *crud.Users
	schedules *crud.Schedules
	logger    *log.Logger
}

// NewAPI builds the data services the handlers use.
func NewAPI(config *shared.Config, maker *shared.SessionMaker, logger *log.Logger) (*API, error) {
	users, err := crud.NewUsers(crud.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	schedules, err := crud.NewSchedules(crud.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &API{
		config:    config,
		maker:     maker,
		users:     users,
		schedules: schedules,
		logger:    shared.WithLogger(logger, "component", "api"),
	}, nil
}

// Register mounts the routes of every configured version on r.
func (a *API) Register(r Router) {
	for _, v := range a.config.API.Versions {
		root := a.config.API.RootPath(v)

		r.Handle(http.MethodGet, root+"/version", a.version(v))

		r.Handle(http.MethodGet, root+"/users", http.HandlerFunc(a.listUsers))
		r.Handle(http.MethodPost, root+"/users", http.HandlerFunc(a.createUser))
		r.Handle(http.MethodGet, root+"/users/{id}", http.HandlerFunc(a.getUser))
		r.Handle(http.MethodPatch, root+"/users/{id}", http.HandlerFunc(a.patchUser))
		r.Handle(http.MethodDelete, root+"/users/{id}", http.HandlerFunc(a.deleteUser))

		r.Handle(http.MethodGet, root+"/schedules", http.HandlerFunc(a.listSchedules))
		r.Handle(http.MethodPost, root+"/schedules", http.HandlerFunc(a.createSchedule))
		r.Handle(http.MethodGet, root+"/schedules/{id}", http.HandlerFunc(a.getSchedule))
	}
}

// Handler returns a router with the default middleware and every route mounted.
func (a *API) Handler() http.Handler {
	router := NewBasicRouter()
	router.Use(
		Logging(a.logger),
		Recover(a.logger),
		RateLimit(NewLimiter(a.config.App.RateLimit, a.config.App.RateBurst)),
	)
	a.Register(router)
	return router
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// scope runs fn in a fresh unit of work bound to the request.
func (a *API) scope(r *http.Request, fn func(*shared.Session) error) error {
	return a.maker.Scope(r.Context(), fn)
}

func (a *API) version(v int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": shared.VersionString(v)})
	})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	lq, err := listQuery(r, a.users)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	lq.Fields = crud.Fields{}
	q := r.URL.Query()
	if username := q.Get("username"); username != "" {
		lq.Fields["username"] = username
	}
	if active := q.Get("is_active"); active != "" {
		lq.Fields["is_active"] = shared.ParseBool(active)
	}

	var out []schemas.GetUser
	err = a.scope(r, func(s *shared.Session) error {
		out, err = a.users.GetMulti(s, lq)
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	in := schemas.NewCreateUser("")
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	var out schemas.GetUser
	err := a.scope(r, func(s *shared.Session) (err error) {
		out, err = a.users.CreateWithCommit(s, in)
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", 64)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var out schemas.GetUser
	err = a.scope(r, func(s *shared.Session) (err error) {
		out, err = a.users.GetOne(s, nil, crud.Fields{"id": id})
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) patchUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", 64)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in schemas.PatchableUser
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	var out schemas.GetUser
	err = a.scope(r, func(s *shared.Session) error {
		n, err := a.users.Patch(s, id, in)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user %d", crud.ErrNotFound, id)
		}
		if err := s.Commit(); err != nil {
			return err
		}
		out, err = a.users.GetOne(s, nil, crud.Fields{"id": id})
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", 64)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	err = a.scope(r, func(s *shared.Session) error {
		n, err := a.users.Delete(s, nil, crud.Fields{"id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user %d", crud.ErrNotFound, id)
		}
		return s.Commit()
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listSchedules(w http.ResponseWriter, r *http.Request) {
	lq, err := listQuery(r, a.schedules)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	lq.Fields = crud.Fields{}
	q := r.URL.Query()
	if title := q.Get("title"); title != "" {
		lq.Fields["title"] = title
	}
	if raw := q.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: user_id must be an integer", ErrBadRequest))
			return
		}
		lq.Fields["user_id"] = userID
	}
	if raw := q.Get("active_at"); raw != "" {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: active_at must be unix seconds", ErrBadRequest))
			return
		}
		lq.Exprs = crud.Window(time.Unix(sec, 0))
	}

	var (
		out    []schemas.GetSchedule
		bounds schemas.DateBounds
	)
	err = a.scope(r, func(s *shared.Session) error {
		if out, err = a.schedules.GetMulti(s, lq); err != nil {
			return err
		}
		bounds = shared.LogError(r.Context(), a.logger, log.WarnLevel, func(context.Context) (schemas.DateBounds, error) {
			return a.schedules.Bounds(s, lq.Exprs, lq.Fields)
		})
		return nil
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	for k, v := range bounds.Headers() {
		w.Header().Set(k, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createSchedule(w http.ResponseWriter, r *http.Request) {
	var in schemas.CreateSchedule
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	var out schemas.GetSchedule
	err := a.scope(r, func(s *shared.Session) (err error) {
		out, err = a.schedules.CreateWithCommit(s, in)
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *API) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", 32)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var out schemas.GetSchedule
	err = a.scope(r, func(s *shared.Session) (err error) {
		out, err = a.schedules.GetOne(s, nil, crud.Fields{"id": int32(id)})
		return err
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
