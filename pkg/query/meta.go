package query

import (
	"regexp"

	"github.com/chassis-framework/chassis/pkg/errs"
)

// Scanner abstracts *sql.Row and *sql.Rows for entity scan functions.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// defaultMinTermLength is the term length a search term must exceed before it
// expands into contains-matches; shorter terms add no predicate, which keeps
// one-letter searches from scanning the whole table.
const defaultMinTermLength = 2

// Meta describes one entity type's table mapping. One value is defined per
// entity and shared by every scope built for it.
type Meta[T any] struct {
	// Entity is the name used in lifecycle events and cache keys, e.g. "user".
	Entity string

	// Table is the relation name.
	Table string

	// Columns are the selected columns, in the order Scan consumes them.
	Columns []string

	// IDColumn defaults to "id".
	IDColumn string

	// SoftDelete marks the table as carrying a deleted_at column.
	SoftDelete bool

	// SearchColumns are the text columns a term search expands across.
	SearchColumns []string

	// MinTermLength overrides defaultMinTermLength when > 0.
	MinTermLength int

	// Scan reads one row into an entity value.
	Scan func(Scanner) (T, error)
}

// identPattern guards every identifier interpolated into SQL. Identifiers
// come from code, never from user input; a mismatch is a caller bug.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// mustIdent panics with a ProgrammingError on a malformed SQL identifier.
func mustIdent(name string) string {
	if !identPattern.MatchString(name) {
		errs.Programmingf("invalid SQL identifier %q", name)
	}
	return name
}

// validate normalizes defaults and rejects unusable metadata eagerly.
func (m *Meta[T]) validate() {
	if m.Entity == "" || m.Table == "" {
		errs.Programmingf("query meta requires an entity and table name")
	}
	if m.Scan == nil {
		errs.Programmingf("query meta for %q requires a scan function", m.Entity)
	}
	if len(m.Columns) == 0 {
		errs.Programmingf("query meta for %q requires columns", m.Entity)
	}
	if m.IDColumn == "" {
		m.IDColumn = "id"
	}
	if m.MinTermLength <= 0 {
		m.MinTermLength = defaultMinTermLength
	}
	mustIdent(m.Table)
	mustIdent(m.IDColumn)
	for _, col := range m.Columns {
		mustIdent(col)
	}
	for _, col := range m.SearchColumns {
		mustIdent(col)
	}
}

// operators whitelists the comparison operators filters may use.
var operators = map[string]bool{
	"=":     true,
	"!=":    true,
	"<>":    true,
	"<":     true,
	"<=":    true,
	">":     true,
	">=":    true,
	"LIKE":  true,
	"ILIKE": true,
}

// mustOperator panics with a ProgrammingError on an unknown operator.
func mustOperator(op string) string {
	if !operators[op] {
		errs.Programmingf("invalid filter operator %q", op)
	}
	return op
}
