package schemas

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/desertthunder/summarybot/internal/models"
	"github.com/jinzhu/copier"
)

var (
	ErrNilEntity      = errors.New("nil entity")
	ErrInvalidPayload = errors.New("invalid payload")

	background = context.Background()
)

// MapOne projects an entity onto the read DTO G, copying fields by name.
// Nested relations are projected the same way.
func MapOne[G, M any](m *M) (G, error) {
	var g G
	if m == nil {
		return g, ErrNilEntity
	}
	if err := copier.Copy(&g, m); err != nil {
		return g, fmt.Errorf("failed to map %T to %T: %w", m, g, err)
	}
	return g, nil
}

// MapMany projects each entity of ms. An empty input yields an empty, non-nil slice.
func MapMany[G, M any](ms []M) ([]G, error) {
	out := make([]G, 0, len(ms))
	for i := range ms {
		g, err := MapOne[G](&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Dump turns a DTO into a column map using the gorm schema of its type.
//
// Embedded structs are flattened and pointers are dereferenced. A nil pointer is
// dropped when excludeNone is set and kept as nil otherwise. A map is copied as is,
// minus nil values when excludeNone is set.
func Dump(v any, excludeNone bool) (map[string]any, error) {
	if values, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(values))
		for k, val := range values {
			if excludeNone && isNil(val) {
				continue
			}
			out[k] = val
		}
		return out, nil
	}

	s, err := models.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %T: %w", v, err)
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	out := make(map[string]any, len(s.DBNames))
	for _, name := range s.DBNames {
		fv := s.FieldsByDBName[name].ReflectValueOf(background, rv)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				if !excludeNone {
					out[name] = nil
				}
				continue
			}
			fv = fv.Elem()
		}
		out[name] = fv.Interface()
	}
	return out, nil
}

// isNil reports untyped nil and nil pointers, maps, slices and interfaces.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidPayload, field)
	}
	return nil
}
