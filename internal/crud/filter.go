package crud

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Filter selects rows. It is either [Fields] or [Exprs].
type Filter interface {
	predicates(s *schema.Schema) ([]clause.Expression, error)
}

// Fields is a keyword filter: one equality predicate per entry, ANDed together.
// Keys are column names or Go field names. A nil value matches NULL.
type Fields map[string]any

// Exprs is an explicit list of predicates, used as given.
type Exprs []clause.Expression

// Expr wraps a single predicate.
func Expr(e clause.Expression) Exprs {
	return Exprs{e}
}

// Col names a column of the queried table.
func Col(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

func (f Fields) predicates(s *schema.Schema) ([]clause.Expression, error) {
	if len(f) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]clause.Expression, 0, len(keys))
	for _, k := range keys {
		field, err := lookUp(s, k)
		if err != nil {
			return nil, err
		}
		out = append(out, clause.Eq{Column: Col(field.DBName), Value: f[k]})
	}
	return out, nil
}

func (e Exprs) predicates(*schema.Schema) ([]clause.Expression, error) {
	return e, nil
}

// Resolve merges an explicit predicate list with a keyword filter: explicit predicates
// first, keyword predicates appended. It returns nil when neither is given, which matches every row.
func Resolve(s *schema.Schema, exprs Exprs, fields Fields) ([]clause.Expression, error) {
	keyword, err := fields.predicates(s)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 && len(keyword) == 0 {
		return nil, nil
	}

	out := make([]clause.Expression, 0, len(exprs)+len(keyword))
	out = append(out, exprs...)
	return append(out, keyword...), nil
}

func lookUp(s *schema.Schema, name string) (*schema.Field, error) {
	field := s.LookUpField(name)
	if field == nil || field.DBName == "" {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, s.Name, name)
	}
	return field, nil
}

func where(q *gorm.DB, preds []clause.Expression) *gorm.DB {
	if len(preds) == 0 {
		return q
	}
	return q.Clauses(clause.Where{Exprs: preds})
}
