package models

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// TablePrefix is prepended to every table name.
const TablePrefix = "mats"

// Model defines the base interface for all persistent entities.
type Model interface {
	TableName() string            // TableName returns the prefixed snake_case table name
	PKName() string               // PKName returns the primary key column
	OrderFields() []string        // OrderFields lists columns a listing may sort by
	DefaultOrderFields() []string // DefaultOrderFields lists the sort applied when none is requested
}

// Bounded is implemented by entities whose listings report the date range they cover.
type Bounded interface {
	BoundDateColumn() string
}

var (
	ctxBackground = context.Background()
	naming        = schema.NamingStrategy{}
	schemaCache   = &sync.Map{}
)

// TableName builds the table name of a model type name, e.g. "UserSession" -> "mats_user_session".
func TableName(modelName string) string {
	return TablePrefix + "_" + CamelToSnake(modelName)
}

// CamelToSnake converts CamelCase to snake_case, keeping initialisms together ("HTTPServer" -> "http_server").
func CamelToSnake(name string) string {
	return naming.ColumnName("", name)
}

// IDColumn converts "ModelName.column" into "mats_model_name.column".
func IDColumn(modelNameID string) (string, error) {
	model, column, ok := strings.Cut(modelNameID, ".")
	if !ok || model == "" || column == "" || strings.Contains(column, ".") {
		return "", fmt.Errorf("incorrect model column %q, required \"ModelName.id\"", modelNameID)
	}
	return TableName(model) + "." + column, nil
}

// Parse returns the cached gorm schema of v, which must be a struct or a pointer to one.
func Parse(v any) (*schema.Schema, error) {
	return schema.Parse(v, schemaCache, naming)
}

// AsMap returns the column values of m keyed by column name, without the excluded columns.
func AsMap(m any, exclude ...string) (map[string]any, error) {
	s, err := Parse(m)
	if err != nil {
		return nil, err
	}

	rv := reflect.Indirect(reflect.ValueOf(m))
	out := make(map[string]any, len(s.DBNames))
	for _, name := range s.DBNames {
		if contains(exclude, name) {
			continue
		}
		field := s.FieldsByDBName[name]
		v, _ := field.ValueOf(ctxBackground, rv)
		out[name] = v
	}
	return out, nil
}

// FromMap builds an M from column (or Go field) names. Unknown keys are ignored;
// values must already have the column's type.
func FromMap[M any](values map[string]any) (*M, error) {
	m := new(M)
	s, err := Parse(m)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(m).Elem()
	for key, value := range values {
		field := s.LookUpField(key)
		if field == nil || field.DBName == "" {
			continue
		}
		if err := field.Set(ctxBackground, rv, value); err != nil {
			return nil, fmt.Errorf("failed to set %s.%s: %w", s.Name, field.Name, err)
		}
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
