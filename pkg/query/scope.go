package query

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chassis-framework/chassis/pkg/errs"
	"github.com/chassis-framework/chassis/pkg/events"
	"github.com/chassis-framework/chassis/pkg/observability"
)

// Condition is one column comparison inside a FilterAny group.
type Condition struct {
	Column   string
	Value    interface{}
	Operator string
}

// condition is the internal, validated form.
type condition struct {
	column   string
	operator string
	value    interface{}
}

// Scope builds one filtered, paginated, soft-delete-aware query against a
// single entity type. A scope is a cheap per-call builder: construct a fresh
// one for every operation, never share one across goroutines.
//
// Filtering is additive: repeating a filter narrows the result (AND); it
// never replaces the earlier predicate.
type Scope[T any] struct {
	db       *sql.DB
	meta     Meta[T]
	notifier *events.Notifier
	metrics  *observability.Metrics

	// groups are AND-ed together; conditions inside one group are OR-ed.
	groups      [][]condition
	withDeleted bool
	orderings   []string
	page        int
	limit       int
}

// NewScope creates a scope for one operation. notifier may be nil for
// read-only call sites.
func NewScope[T any](db *sql.DB, meta Meta[T], notifier *events.Notifier) *Scope[T] {
	meta.validate()
	return &Scope[T]{
		db:       db,
		meta:     meta,
		notifier: notifier,
	}
}

// Instrument attaches query duration metrics.
func (s *Scope[T]) Instrument(metrics *observability.Metrics) *Scope[T] {
	s.metrics = metrics
	return s
}

// FilterBy adds "column operator value" to the predicate. A nil value makes
// the call a no-op, so optional request parameters can be passed through
// unconditionally. The operator defaults to "=".
func (s *Scope[T]) FilterBy(column string, value interface{}, operator ...string) *Scope[T] {
	if value == nil {
		return s
	}
	op := "="
	if len(operator) > 0 {
		op = operator[0]
	}
	s.groups = append(s.groups, []condition{{
		column:   mustIdent(column),
		operator: mustOperator(op),
		value:    value,
	}})
	return s
}

// FilterByRange adds an inclusive range predicate; either bound may be nil.
func (s *Scope[T]) FilterByRange(column string, from, to interface{}) *Scope[T] {
	if from != nil {
		s.FilterBy(column, from, ">=")
	}
	if to != nil {
		s.FilterBy(column, to, "<=")
	}
	return s
}

// FilterAny adds an OR-group. Conditions with nil values are dropped; an
// empty group contributes nothing, never an always-false predicate.
func (s *Scope[T]) FilterAny(conditions []Condition) *Scope[T] {
	group := make([]condition, 0, len(conditions))
	for _, c := range conditions {
		if c.Value == nil {
			continue
		}
		op := c.Operator
		if op == "" {
			op = "="
		}
		group = append(group, condition{
			column:   mustIdent(c.Column),
			operator: mustOperator(op),
			value:    c.Value,
		})
	}
	if len(group) > 0 {
		s.groups = append(s.groups, group)
	}
	return s
}

// FilterByTerm adds a free-text search predicate. A purely numeric term is an
// exact id lookup. Anything else expands into contains-matches across the
// entity's search columns, but only once the term is longer than the
// configured minimum; shorter terms add no predicate.
func (s *Scope[T]) FilterByTerm(term string) *Scope[T] {
	term = strings.TrimSpace(term)
	if term == "" {
		return s
	}

	if id, ok := numericTerm(term); ok {
		return s.FilterBy(s.meta.IDColumn, id)
	}

	if len([]rune(term)) <= s.meta.MinTermLength {
		return s
	}

	conditions := make([]Condition, 0, len(s.meta.SearchColumns))
	for _, col := range s.meta.SearchColumns {
		conditions = append(conditions, Condition{Column: col, Value: "%" + term + "%", Operator: "ILIKE"})
	}
	return s.FilterAny(conditions)
}

// numericTerm reports whether term is purely digits and parses it as an id.
// Signed or decorated numbers ("-5", "+5") are treated as text, not ids.
func numericTerm(term string) (int64, bool) {
	for _, r := range term {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(term, 10, 64)
	return id, err == nil
}

// WithDeleted includes soft-deleted rows when include is true. The default
// scope excludes them.
func (s *Scope[T]) WithDeleted(include bool) *Scope[T] {
	s.withDeleted = include
	return s
}

// OrderBy appends an ordering; direction is "asc" or "desc".
func (s *Scope[T]) OrderBy(column, direction string) *Scope[T] {
	dir := strings.ToUpper(direction)
	if dir != "ASC" && dir != "DESC" {
		errs.Programmingf("invalid order direction %q", direction)
	}
	s.orderings = append(s.orderings, mustIdent(column)+" "+dir)
	return s
}

// Pagination sets the 1-indexed page and page size.
func (s *Scope[T]) Pagination(page, limit int) *Scope[T] {
	if page < 1 || limit < 1 {
		errs.Programmingf("invalid pagination page=%d limit=%d", page, limit)
	}
	s.page = page
	s.limit = limit
	return s
}

// buildWhere renders the predicate, appending bind values to args.
// extra clauses are raw SQL fragments AND-ed in (soft-delete visibility).
func (s *Scope[T]) buildWhere(args *[]interface{}, extra ...string) string {
	clauses := make([]string, 0, len(s.groups)+len(extra)+1)

	for _, group := range s.groups {
		parts := make([]string, 0, len(group))
		for _, c := range group {
			*args = append(*args, c.value)
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.column, c.operator, len(*args)))
		}
		if len(parts) == 1 {
			clauses = append(clauses, parts[0])
		} else {
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		}
	}

	clauses = append(clauses, extra...)

	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// visibility returns the soft-delete clause for read paths, or nothing when
// the entity has no deleted_at column or the scope includes deleted rows.
func (s *Scope[T]) visibility() []string {
	if s.meta.SoftDelete && !s.withDeleted {
		return []string{"deleted_at IS NULL"}
	}
	return nil
}

func (s *Scope[T]) orderClause() string {
	if len(s.orderings) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(s.orderings, ", ")
}

func (s *Scope[T]) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(s.meta.Entity, operation).Observe(time.Since(start).Seconds())
	}
}

// Count returns the number of matching rows, ignoring pagination.
func (s *Scope[T]) Count(ctx context.Context) (int64, error) {
	defer s.observe("count", time.Now())

	var args []interface{}
	query := "SELECT COUNT(*) FROM " + s.meta.Table + s.buildWhere(&args, s.visibility()...)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.meta.Entity, err)
	}
	return count, nil
}

// First returns the first matching entity, or nil when none matches.
func (s *Scope[T]) First(ctx context.Context) (*T, error) {
	defer s.observe("first", time.Now())

	var args []interface{}
	query := "SELECT " + strings.Join(s.meta.Columns, ", ") + " FROM " + s.meta.Table +
		s.buildWhere(&args, s.visibility()...) + s.orderClause() + " LIMIT 1"

	row := s.db.QueryRowContext(ctx, query, args...)
	entity, err := s.meta.Scan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.meta.Entity, err)
	}
	return &entity, nil
}

// FirstOrFail returns the first matching entity or a NotFound error.
func (s *Scope[T]) FirstOrFail(ctx context.Context) (T, error) {
	var zero T
	entity, err := s.First(ctx)
	if err != nil {
		return zero, err
	}
	if entity == nil {
		return zero, errs.NotFoundf("%s not found", s.meta.Entity)
	}
	return *entity, nil
}

// All returns the matching entities. With withCount, the second return value
// is the total matching row count ignoring pagination, for pagination
// metadata; otherwise it is zero.
func (s *Scope[T]) All(ctx context.Context, withCount bool) ([]T, int64, error) {
	defer s.observe("all", time.Now())

	var args []interface{}
	query := "SELECT " + strings.Join(s.meta.Columns, ", ") + " FROM " + s.meta.Table +
		s.buildWhere(&args, s.visibility()...) + s.orderClause()

	if s.limit > 0 {
		args = append(args, s.limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (s.page-1)*s.limit)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", s.meta.Entity, err)
	}
	defer rows.Close()

	entities := make([]T, 0)
	for rows.Next() {
		entity, err := s.meta.Scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan %s: %w", s.meta.Entity, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s: %w", s.meta.Entity, err)
	}

	var total int64
	if withCount {
		if total, err = s.Count(ctx); err != nil {
			return nil, 0, err
		}
	}
	return entities, total, nil
}

// DeleteOptions controls Delete behavior.
type DeleteOptions struct {
	// Hard removes rows instead of setting deleted_at. Entities without a
	// soft-delete column are always removed hard.
	Hard bool
}

// DeleteOption mutates DeleteOptions.
type DeleteOption func(*DeleteOptions)

// Hard requests a real row removal instead of a soft delete.
func Hard() DeleteOption {
	return func(o *DeleteOptions) { o.Hard = true }
}

// Delete removes the matching rows, soft by default, and returns the number
// of affected rows. A successful non-empty delete publishes exactly one
// lifecycle event before returning; a zero-row delete publishes none.
func (s *Scope[T]) Delete(ctx context.Context, opts ...DeleteOption) (int64, error) {
	defer s.observe("delete", time.Now())

	var options DeleteOptions
	for _, opt := range opts {
		opt(&options)
	}
	hard := options.Hard || !s.meta.SoftDelete

	var args []interface{}
	var query string
	action := events.ActionDeleted
	if hard {
		action = events.ActionRemoved
		query = "DELETE FROM " + s.meta.Table + s.buildWhere(&args, s.visibility()...) +
			" RETURNING " + s.meta.IDColumn
	} else {
		// Soft delete only touches live rows, so repeating it stays at
		// zero affected rows.
		query = "UPDATE " + s.meta.Table + " SET deleted_at = NOW()" +
			s.buildWhere(&args, "deleted_at IS NULL") + " RETURNING " + s.meta.IDColumn
	}

	ids, err := s.execReturningIDs(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", s.meta.Entity, err)
	}

	if len(ids) > 0 && s.notifier != nil {
		s.notifier.LogHistory(ctx, s.meta.Entity, ids, action, nil)
	}
	return int64(len(ids)), nil
}

// Restore clears deleted_at on previously soft-deleted matches and returns
// the number of affected rows. Entities without a soft-delete column are
// never restorable; the call affects nothing.
func (s *Scope[T]) Restore(ctx context.Context) (int64, error) {
	defer s.observe("restore", time.Now())

	if !s.meta.SoftDelete {
		return 0, nil
	}

	var args []interface{}
	query := "UPDATE " + s.meta.Table + " SET deleted_at = NULL" +
		s.buildWhere(&args, "deleted_at IS NOT NULL") + " RETURNING " + s.meta.IDColumn

	ids, err := s.execReturningIDs(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("failed to restore %s: %w", s.meta.Entity, err)
	}

	if len(ids) > 0 && s.notifier != nil {
		s.notifier.LogHistory(ctx, s.meta.Entity, ids, events.ActionRestored, nil)
	}
	return int64(len(ids)), nil
}

// execReturningIDs runs a mutating statement with RETURNING id and collects
// the affected ids for the lifecycle event.
func (s *Scope[T]) execReturningIDs(ctx context.Context, query string, args []interface{}) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
