// package crud implements generic data access over gorm for one entity type at a time
package crud

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/summarybot/internal/models"
	"github.com/desertthunder/summarybot/internal/schemas"
	"github.com/desertthunder/summarybot/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var background = context.Background()

// ListQuery describes a listing. Offset is always applied; Limit only when set and
// Order only when non-empty, otherwise the database order applies.
type ListQuery struct {
	Offset int
	Limit  *int
	Order  []clause.OrderByColumn
	Exprs  Exprs
	Fields Fields
}

// Option configures a [Base].
type Option func(*options)

type options struct {
	selectFn func(*gorm.DB) *gorm.DB
	logger   *log.Logger
}

// WithSelect installs a custom select base, e.g. joins or preloads, used by reads.
// Creates re-fetch the inserted row through it so relations are populated.
func WithSelect(fn func(*gorm.DB) *gorm.DB) Option {
	return func(o *options) { o.selectFn = fn }
}

// WithLogger sets the logger. It defaults to a stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Base provides create, read, update, delete, upsert and get-or-create operations
// for entity M, mapping results to the read DTO G and accepting the create DTO C.
//
// Every operation takes the unit of work as its first argument and never commits
// unless its name says so.
type Base[M, G, C any] struct {
	schema   *schema.Schema
	selectFn func(*gorm.DB) *gorm.DB
	logger   *log.Logger
}

// New binds a Base to its entity and DTO types.
func New[M, G, C any](opts ...Option) (*Base[M, G, C], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := models.Parse(new(M))
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrInvalidModel, *new(M), err)
	}
	if len(s.PrimaryFields) == 0 {
		return nil, fmt.Errorf("%w: %s has no primary key", ErrInvalidModel, s.Name)
	}
	for _, t := range []reflect.Type{reflect.TypeFor[G](), reflect.TypeFor[C]()} {
		if t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidModel, t)
		}
	}

	if o.logger == nil {
		o.logger = shared.NewLogger(nil)
	}

	return &Base[M, G, C]{
		schema:   s,
		selectFn: o.selectFn,
		logger:   shared.WithLogger(o.logger, "crud", s.Table),
	}, nil
}

// Schema returns the parsed schema of M.
func (b *Base[M, G, C]) Schema() *schema.Schema {
	return b.schema
}

// Resolve merges exprs and fields into the predicate list of a query on M.
func (b *Base[M, G, C]) Resolve(exprs Exprs, fields Fields) ([]clause.Expression, error) {
	return Resolve(b.schema, exprs, fields)
}

// HasCustomSelect reports whether reads go through a custom select base.
func (b *Base[M, G, C]) HasCustomSelect() bool {
	return b.selectFn != nil
}

// model starts a statement on the bare table.
func (b *Base[M, G, C]) model(s *shared.Session) (*gorm.DB, error) {
	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	return tx.Model(new(M)), nil
}

// query starts a statement on the select base.
func (b *Base[M, G, C]) query(s *shared.Session) (*gorm.DB, error) {
	q, err := b.model(s)
	if err != nil {
		return nil, err
	}
	if b.selectFn != nil {
		q = b.selectFn(q)
	}
	return q, nil
}

// GetMultiRaw lists entities matching the query.
func (b *Base[M, G, C]) GetMultiRaw(s *shared.Session, lq ListQuery) ([]M, error) {
	preds, err := b.Resolve(lq.Exprs, lq.Fields)
	if err != nil {
		return nil, err
	}

	q, err := b.query(s)
	if err != nil {
		return nil, err
	}

	q = where(q, preds).Offset(lq.Offset)
	if lq.Limit != nil {
		q = q.Limit(*lq.Limit)
	}
	for _, o := range lq.Order {
		q = q.Order(o)
	}

	out := make([]M, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.schema.Table, err)
	}
	return out, nil
}

// GetMulti lists entities matching the query as read DTOs. No match yields an empty slice.
func (b *Base[M, G, C]) GetMulti(s *shared.Session, lq ListQuery) ([]G, error) {
	rows, err := b.GetMultiRaw(s, lq)
	if err != nil {
		return nil, err
	}
	return schemas.MapMany[G](rows)
}

// GetCount counts the rows matching the filters.
func (b *Base[M, G, C]) GetCount(s *shared.Session, exprs Exprs, fields Fields) (int64, error) {
	preds, err := b.Resolve(exprs, fields)
	if err != nil {
		return 0, err
	}

	q, err := b.model(s)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := where(q, preds).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", b.schema.Table, err)
	}
	return n, nil
}

// GetOneRaw fetches the single entity matching the filters.
//
// It fails with [ErrNotFound] when nothing matches and [ErrMultipleResults] when more than one row does.
func (b *Base[M, G, C]) GetOneRaw(s *shared.Session, exprs Exprs, fields Fields) (*M, error) {
	preds, err := b.Resolve(exprs, fields)
	if err != nil {
		return nil, err
	}

	q, err := b.query(s)
	if err != nil {
		return nil, err
	}

	var rows []M
	if err := where(q, preds).Limit(2).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", b.schema.Table, err)
	}

	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, b.schema.Table)
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMultipleResults, b.schema.Table)
	}
}

// GetOne fetches the single entity matching the filters as a read DTO.
func (b *Base[M, G, C]) GetOne(s *shared.Session, exprs Exprs, fields Fields) (G, error) {
	m, err := b.GetOneRaw(s, exprs, fields)
	if err != nil {
		var zero G
		return zero, err
	}
	return schemas.MapOne[G](m)
}

// AddAll inserts ms. Without commit the inserts are only flushed; with commit the
// session is committed and each entity reloaded from the database.
//
// Entities are written whole, zero values included. Use [Base.CreateFromMap] to
// leave columns to their defaults.
func (b *Base[M, G, C]) AddAll(s *shared.Session, ms []*M, commit bool) ([]*M, error) {
	if len(ms) == 0 {
		return ms, nil
	}

	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	if err := tx.Omit(clause.Associations).Create(ms).Error; err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", b.schema.Table, err)
	}
	if !commit {
		return ms, nil
	}

	if err := s.Commit(); err != nil {
		return nil, err
	}
	for _, m := range ms {
		if err := b.refresh(s, m); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// Create inserts an entity built from the create DTO. Nil pointer fields are skipped
// so column defaults apply. The insert is flushed but not committed.
func (b *Base[M, G, C]) Create(s *shared.Session, in C) (*M, error) {
	values, err := schemas.Dump(in, true)
	if err != nil {
		return nil, err
	}
	return b.CreateFromMap(s, values)
}

// CreateFromMap inserts an entity built from column (or field) values, used verbatim.
// Only the given columns are written, so omitted ones take their column defaults.
// The returned entity is re-read so it carries those defaults.
func (b *Base[M, G, C]) CreateFromMap(s *shared.Session, values map[string]any) (*M, error) {
	m, cols, err := b.build(values)
	if err != nil {
		return nil, err
	}
	for _, field := range b.schema.PrimaryFields {
		if !slices.Contains(cols, field.DBName) {
			cols = append(cols, field.DBName)
		}
	}

	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	if err := tx.Select(cols).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", b.schema.Table, err)
	}
	return b.GetOneRaw(s, b.pkExprs(m), nil)
}

// CreateWithCommit creates, commits and returns the entity reloaded from the database as a read DTO.
func (b *Base[M, G, C]) CreateWithCommit(s *shared.Session, in C) (G, error) {
	values, err := schemas.Dump(in, true)
	if err != nil {
		var zero G
		return zero, err
	}
	return b.CreateFromMapWithCommit(s, values)
}

// CreateFromMapWithCommit is [Base.CreateWithCommit] for a column map.
func (b *Base[M, G, C]) CreateFromMapWithCommit(s *shared.Session, values map[string]any) (G, error) {
	var zero G

	m, err := b.CreateFromMap(s, values)
	if err != nil {
		return zero, err
	}
	if err := s.Commit(); err != nil {
		return zero, err
	}
	if err := b.refresh(s, m); err != nil {
		return zero, err
	}
	return schemas.MapOne[G](m)
}

// Update sets values on every row matching f and returns the number of rows affected.
//
// With isPatch, nil values are dropped so a patch never writes NULL; otherwise every
// given value is written. The update-timestamp column is refreshed by the write itself.
// Nothing is committed.
func (b *Base[M, G, C]) Update(s *shared.Session, f Filter, values map[string]any, isPatch bool) (int64, error) {
	preds, err := predicatesOf(b.schema, f)
	if err != nil {
		return 0, err
	}

	set := make(map[string]any, len(values))
	for k, v := range values {
		field, err := lookUp(b.schema, k)
		if err != nil {
			return 0, err
		}
		if isPatch && isNil(v) {
			continue
		}
		set[field.DBName] = v
	}

	tx, err := s.Tx()
	if err != nil {
		return 0, err
	}

	q := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Model(new(M))
	res := where(q, preds).Updates(set)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update %s: %w", b.schema.Table, res.Error)
	}
	return res.RowsAffected, nil
}

// BumpLastModified writes an empty update to the rows matching f.
func (b *Base[M, G, C]) BumpLastModified(s *shared.Session, f Filter) (int64, error) {
	return b.Update(s, f, map[string]any{}, true)
}

// Upsert looks up a row by the payload values of filterFields. A found row has every
// payload field written onto it; otherwise a new row is inserted. An empty lookup
// logs a warning and always inserts.
//
// Not atomic: concurrent upserts with the same lookup can both miss and both insert.
// A unique constraint then fails one of them with an integrity error, which is returned unchanged.
func (b *Base[M, G, C]) Upsert(s *shared.Session, filterFields []string, in C) (*M, error) {
	values, err := schemas.Dump(in, true)
	if err != nil {
		return nil, err
	}
	return b.UpsertMap(s, filterFields, values)
}

// UpsertMap is [Base.Upsert] for a column map.
func (b *Base[M, G, C]) UpsertMap(s *shared.Session, filterFields []string, values map[string]any) (*M, error) {
	lookup, err := b.lookup(filterFields, values)
	if err != nil {
		return nil, err
	}
	if len(lookup) == 0 {
		b.logger.Warn("got empty filter, forcing insert", "fields", filterFields)
		return b.CreateFromMap(s, values)
	}

	existing, err := b.GetOneRaw(s, nil, lookup)
	if errors.Is(err, ErrNotFound) {
		return b.CreateFromMap(s, values)
	}
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(existing).Elem()
	for k, v := range values {
		field, err := lookUp(b.schema, k)
		if err != nil {
			return nil, err
		}
		if err := field.Set(background, rv, v); err != nil {
			return nil, fmt.Errorf("failed to set %s.%s: %w", b.schema.Name, field.Name, err)
		}
	}

	tx, err := s.Tx()
	if err != nil {
		return nil, err
	}
	if err := tx.Omit(clause.Associations).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", b.schema.Table, err)
	}
	return existing, nil
}

// GetOrCreate returns the row matching the payload values of filterFields, inserting
// one when none exists. An existing row is never modified.
//
// An empty lookup fails with [ErrAmbiguousFilter].
func (b *Base[M, G, C]) GetOrCreate(s *shared.Session, filterFields []string, in C) (*M, error) {
	values, err := schemas.Dump(in, true)
	if err != nil {
		return nil, err
	}
	return b.GetOrCreateMap(s, filterFields, values)
}

// GetOrCreateMap is [Base.GetOrCreate] for a column map.
func (b *Base[M, G, C]) GetOrCreateMap(s *shared.Session, filterFields []string, values map[string]any) (*M, error) {
	lookup, err := b.lookup(filterFields, values)
	if err != nil {
		return nil, err
	}
	if len(lookup) == 0 {
		b.logger.Warn("got empty filter for get or create", "fields", filterFields)
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousFilter, b.schema.Table)
	}

	existing, err := b.GetOneRaw(s, nil, lookup)
	if errors.Is(err, ErrNotFound) {
		return b.CreateFromMap(s, values)
	}
	return existing, err
}

// Delete removes every row matching the merged filters and returns the number removed.
// Without filters every row of the table is removed. Nothing is committed.
func (b *Base[M, G, C]) Delete(s *shared.Session, exprs Exprs, fields Fields) (int64, error) {
	preds, err := b.Resolve(exprs, fields)
	if err != nil {
		return 0, err
	}

	tx, err := s.Tx()
	if err != nil {
		return 0, err
	}

	q := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	res := where(q, preds).Delete(new(M))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", b.schema.Table, res.Error)
	}
	return res.RowsAffected, nil
}

// Bounds returns the earliest and latest value of M's bound date column among matching rows.
func (b *Base[M, G, C]) Bounds(s *shared.Session, exprs Exprs, fields Fields) (schemas.DateBounds, error) {
	var bounds schemas.DateBounds

	bounded, ok := any(new(M)).(models.Bounded)
	if !ok {
		return bounds, fmt.Errorf("%w: %s", ErrNotBounded, b.schema.Name)
	}
	column := bounded.BoundDateColumn()

	preds, err := b.Resolve(exprs, fields)
	if err != nil {
		return bounds, err
	}

	for _, desc := range []bool{false, true} {
		q, err := b.model(s)
		if err != nil {
			return bounds, err
		}

		var values []time.Time
		err = where(q, preds).
			Order(clause.OrderByColumn{Column: Col(column), Desc: desc}).
			Limit(1).
			Pluck(column, &values).Error
		if err != nil {
			return bounds, fmt.Errorf("failed to read %s bounds: %w", b.schema.Table, err)
		}
		if len(values) == 0 {
			return schemas.DateBounds{}, nil
		}

		if desc {
			bounds.Max = &values[0]
		} else {
			bounds.Min = &values[0]
		}
	}
	return bounds, nil
}

// OrderBy parses an order name such as "id" or "desc_created_at" against M's order fields.
func (b *Base[M, G, C]) OrderBy(name string) (clause.OrderByColumn, error) {
	m, ok := any(new(M)).(models.Model)
	if !ok {
		return clause.OrderByColumn{}, fmt.Errorf("%w: %s does not declare order fields", ErrInvalidModel, b.schema.Name)
	}

	column, desc := strings.CutPrefix(name, "desc_")
	if !slices.Contains(m.OrderFields(), column) {
		return clause.OrderByColumn{}, fmt.Errorf("%w: cannot order %s by %q", ErrUnknownField, b.schema.Table, name)
	}
	return clause.OrderByColumn{Column: Col(column), Desc: desc}, nil
}

// DefaultOrder returns M's default ordering, or nil when M declares none.
func (b *Base[M, G, C]) DefaultOrder() []clause.OrderByColumn {
	m, ok := any(new(M)).(models.Model)
	if !ok {
		return nil
	}

	var out []clause.OrderByColumn
	for _, name := range m.DefaultOrderFields() {
		if o, err := b.OrderBy(name); err == nil {
			out = append(out, o)
		}
	}
	return out
}

// build constructs an M from values. Unknown keys are a programmer error.
// build sets values on a new M and returns it with the columns it set.
func (b *Base[M, G, C]) build(values map[string]any) (*M, []string, error) {
	m := new(M)
	rv := reflect.ValueOf(m).Elem()
	cols := make([]string, 0, len(values))
	for k, v := range values {
		field, err := lookUp(b.schema, k)
		if err != nil {
			return nil, nil, err
		}
		if err := field.Set(background, rv, v); err != nil {
			return nil, nil, fmt.Errorf("failed to set %s.%s: %w", b.schema.Name, field.Name, err)
		}
		cols = append(cols, field.DBName)
	}
	return m, cols, nil
}

// lookup keeps the values named by filterFields, keyed by column.
func (b *Base[M, G, C]) lookup(filterFields []string, values map[string]any) (Fields, error) {
	wanted := make(map[string]bool, len(filterFields))
	for _, name := range filterFields {
		field, err := lookUp(b.schema, name)
		if err != nil {
			return nil, err
		}
		wanted[field.DBName] = true
	}

	out := Fields{}
	for k, v := range values {
		field, err := lookUp(b.schema, k)
		if err != nil {
			return nil, err
		}
		if wanted[field.DBName] {
			out[field.DBName] = v
		}
	}
	return out, nil
}

// pkExprs matches m by primary key.
func (b *Base[M, G, C]) pkExprs(m *M) Exprs {
	rv := reflect.ValueOf(m).Elem()
	out := make(Exprs, 0, len(b.schema.PrimaryFields))
	for _, field := range b.schema.PrimaryFields {
		v, _ := field.ValueOf(background, rv)
		out = append(out, clause.Eq{Column: Col(field.DBName), Value: v})
	}
	return out
}

// refresh reloads m through the select base.
func (b *Base[M, G, C]) refresh(s *shared.Session, m *M) error {
	fresh, err := b.GetOneRaw(s, b.pkExprs(m), nil)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", b.schema.Table, err)
	}
	*m = *fresh
	return nil
}

func predicatesOf(s *schema.Schema, f Filter) ([]clause.Expression, error) {
	if f == nil {
		return nil, nil
	}
	return f.predicates(s)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
