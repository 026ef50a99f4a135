package query

import (
	"context"
	"database/sql"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chassis-framework/chassis/pkg/errs"
	"github.com/chassis-framework/chassis/pkg/events"
	"github.com/chassis-framework/chassis/pkg/observability"
)

type user struct {
	ID     int64
	Name   string
	Email  string
	Status string
}

func userMeta() Meta[user] {
	return Meta[user]{
		Entity:        "user",
		Table:         "users",
		Columns:       []string{"id", "name", "email", "status"},
		SoftDelete:    true,
		SearchColumns: []string{"name", "email"},
		Scan: func(row Scanner) (user, error) {
			var u user
			err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Status)
			return u, err
		},
	}
}

func setupScopeTest(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Scope[user], *recordedEvents) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewBus(nil)
	recorded := &recordedEvents{}
	bus.Subscribe(events.HistoryChannel, recorded.handler)

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	notifier := events.NewNotifier(bus, logger)

	scope := NewScope(db, userMeta(), notifier)
	recorded.bus = bus
	return db, mock, scope, recorded
}

type recordedEvents struct {
	bus    *events.Bus
	mu     sync.Mutex
	events []events.LifecycleEvent
}

func (r *recordedEvents) handler(ctx context.Context, event events.LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// wait drains the bus so recorded events are visible.
func (r *recordedEvents) wait() []events.LifecycleEvent {
	r.bus.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "status"})
}

func TestCountExcludesSoftDeletedByDefault(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE status = $1 AND deleted_at IS NULL")).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := scope.FilterBy("status", "active").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountWithDeleted(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := scope.WithDeleted(true).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

// Repeated filters on the same column AND together instead of replacing.
func TestFilterByIsAdditive(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE status = $1 AND status = $2 AND deleted_at IS NULL")).
		WithArgs("active", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := scope.
		FilterBy("status", "active").
		FilterBy("status", "pending").
		Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterByNilValueIsNoop(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	_, err := scope.FilterBy("status", nil).Count(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterByCustomOperator(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE id > $1 AND deleted_at IS NULL")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := scope.FilterBy("id", int64(10), ">").Count(context.Background())
	require.NoError(t, err)
}

func TestFilterByRange(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE created_at >= $1 AND created_at <= $2 AND deleted_at IS NULL")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := scope.FilterByRange("created_at", from, to).Count(context.Background())
	require.NoError(t, err)
}

func TestFilterByRangeOpenBounds(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE created_at >= $1 AND deleted_at IS NULL")).
		WithArgs("2026-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := scope.FilterByRange("created_at", "2026-01-01", nil).Count(context.Background())
	require.NoError(t, err)
}

func TestFilterAnyBuildsORGroup(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE (status = $1 OR status = $2) AND deleted_at IS NULL")).
		WithArgs("active", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	_, err := scope.FilterAny([]Condition{
		{Column: "status", Value: "active"},
		{Column: "status", Value: "pending"},
	}).Count(context.Background())
	require.NoError(t, err)
}

// An all-nil group must contribute nothing, never an always-false predicate.
func TestFilterAnyEmptyGroupContributesNothing(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	_, err := scope.FilterAny([]Condition{
		{Column: "status", Value: nil},
		{Column: "email", Value: nil},
	}).Count(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A purely numeric term is an exact id lookup, even when a text column also
// contains the digits.
func TestFilterByTermNumericIsIDLookup(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := scope.FilterByTerm("42").Count(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Signed terms are not ids; they go through the text-search path instead.
func TestFilterByTermSignedTermIsNotIDLookup(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE (name ILIKE $1 OR email ILIKE $2) AND deleted_at IS NULL")).
		WithArgs("%-1234%", "%-1234%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := scope.FilterByTerm("-1234").Count(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterByTermExpandsAcrossSearchColumns(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE (name ILIKE $1 OR email ILIKE $2) AND deleted_at IS NULL")).
		WithArgs("%smith%", "%smith%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := scope.FilterByTerm("smith").Count(context.Background())
	require.NoError(t, err)
}

// Terms at or below the minimum length add no predicate at all.
func TestFilterByTermShortTermIsNoop(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	_, err := scope.FilterByTerm("ab").Count(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterByTermBlankIsNoop(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	_, err := scope.FilterByTerm("   ").Count(context.Background())
	require.NoError(t, err)
}

func TestFirstReturnsEntity(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, email, status FROM users WHERE id = $1 AND deleted_at IS NULL LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(userRows().AddRow(1, "Ada", "ada@example.com", "active"))

	got, err := scope.FilterBy("id", int64(1)).First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
}

func TestFirstReturnsNilOnNoRows(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery("SELECT id, name, email, status FROM users").
		WillReturnRows(userRows())

	got, err := scope.First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFirstOrFailNotFound(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery("SELECT id, name, email, status FROM users").
		WillReturnRows(userRows())

	_, err := scope.FirstOrFail(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestAllWithOrderAndPagination(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, email, status FROM users WHERE deleted_at IS NULL ORDER BY name ASC LIMIT $1 OFFSET $2")).
		WithArgs(25, 25).
		WillReturnRows(userRows().
			AddRow(1, "Ada", "ada@example.com", "active").
			AddRow(2, "Bob", "bob@example.com", "active"))

	items, total, err := scope.
		OrderBy("name", "asc").
		Pagination(2, 25).
		All(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Zero(t, total)
}

// The total for pagination metadata ignores LIMIT/OFFSET.
func TestAllWithCount(t *testing.T) {
	_, mock, scope, _ := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, email, status FROM users WHERE status = $1 AND deleted_at IS NULL LIMIT $2 OFFSET $3")).
		WithArgs("active", 10, 0).
		WillReturnRows(userRows().AddRow(1, "Ada", "ada@example.com", "active"))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE status = $1 AND deleted_at IS NULL")).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(37))

	items, total, err := scope.
		FilterBy("status", "active").
		Pagination(1, 10).
		All(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(37), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSoftPublishesEvent(t *testing.T) {
	_, mock, scope, recorded := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL RETURNING id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	n, err := scope.FilterBy("id", int64(7)).Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	published := recorded.wait()
	require.Len(t, published, 1)
	assert.Equal(t, "user", published[0].Entity)
	assert.Equal(t, events.ActionDeleted, published[0].Action)
	assert.Equal(t, []int64{7}, published[0].IDs)
}

// A delete matching no rows returns zero and publishes zero events.
func TestDeleteZeroRowsPublishesNothing(t *testing.T) {
	_, mock, scope, recorded := setupScopeTest(t)

	mock.ExpectQuery("UPDATE users SET deleted_at = NOW()").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	n, err := scope.FilterBy("id", int64(999)).Delete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, recorded.wait())
}

func TestDeleteHard(t *testing.T) {
	_, mock, scope, recorded := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"DELETE FROM users WHERE id = $1 AND deleted_at IS NULL RETURNING id")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	n, err := scope.FilterBy("id", int64(3)).Delete(context.Background(), Hard())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	published := recorded.wait()
	require.Len(t, published, 1)
	assert.Equal(t, events.ActionRemoved, published[0].Action)
}

func TestDeleteBatchPublishesOneEvent(t *testing.T) {
	_, mock, scope, recorded := setupScopeTest(t)

	mock.ExpectQuery("UPDATE users SET deleted_at = NOW()").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	n, err := scope.FilterBy("status", "stale").Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	published := recorded.wait()
	require.Len(t, published, 1)
	assert.Equal(t, []int64{1, 2, 3}, published[0].IDs)
}

func TestRestorePublishesEvent(t *testing.T) {
	_, mock, scope, recorded := setupScopeTest(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE users SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL RETURNING id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	n, err := scope.FilterBy("id", int64(7)).Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	published := recorded.wait()
	require.Len(t, published, 1)
	assert.Equal(t, events.ActionRestored, published[0].Action)
}

func TestRestoreWithoutSoftDeleteColumn(t *testing.T) {
	db, _, _, _ := setupScopeTest(t)

	meta := userMeta()
	meta.SoftDelete = false
	scope := NewScope(db, meta, nil)

	n, err := scope.FilterBy("id", int64(1)).Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// Entities without a soft-delete column always delete hard.
func TestDeleteWithoutSoftDeleteColumnIsHard(t *testing.T) {
	db, mock, _, _ := setupScopeTest(t)

	meta := Meta[user]{
		Entity:  "session",
		Table:   "sessions",
		Columns: []string{"id", "name", "email", "status"},
		Scan:    userMeta().Scan,
	}
	scope := NewScope(db, meta, nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"DELETE FROM sessions WHERE id = $1 RETURNING id")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	n, err := scope.FilterBy("id", int64(5)).Delete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProgrammingErrors(t *testing.T) {
	db, _, _, _ := setupScopeTest(t)
	scope := NewScope(db, userMeta(), nil)

	assert.Panics(t, func() { scope.FilterBy("name; DROP TABLE users", "x") })
	assert.Panics(t, func() { scope.FilterBy("name", "x", "BOGUS") })
	assert.Panics(t, func() { scope.OrderBy("name", "sideways") })
	assert.Panics(t, func() { scope.Pagination(0, 10) })
	assert.Panics(t, func() { scope.Pagination(1, 0) })
	assert.Panics(t, func() {
		NewScope(db, Meta[user]{Entity: "user", Table: "users"}, nil)
	})
}
