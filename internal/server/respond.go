package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/summarybot/internal/crud"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"gorm.io/gorm/clause"
)

// ErrBadRequest marks malformed request input.
var ErrBadRequest = errors.New("bad request")

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

// StatusOf translates a data-layer error into an HTTP status.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, crud.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, crud.ErrAmbiguousFilter),
		errors.Is(err, crud.ErrUnknownField),
		errors.Is(err, schemas.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, crud.ErrUserInactive):
		return http.StatusForbidden
	case crud.IsIntegrityViolation(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func pathInt(r *http.Request, name string, bits int) (int64, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseInt(raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrBadRequest, name, raw)
	}
	return n, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, name)
	}
	return &n, nil
}

// orderer parses order names for one entity.
type orderer interface {
	OrderBy(name string) (clause.OrderByColumn, error)
	DefaultOrder() []clause.OrderByColumn
}

// listQuery reads offset, limit and order from the query string.
func listQuery(r *http.Request, o orderer) (crud.ListQuery, error) {
	var lq crud.ListQuery

	offset, err := queryInt(r, "offset")
	if err != nil {
		return lq, err
	}
	if offset != nil {
		lq.Offset = *offset
	}
	if lq.Limit, err = queryInt(r, "limit"); err != nil {
		return lq, err
	}

	names := shared.SplitList(r.URL.Query().Get("order"))
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
