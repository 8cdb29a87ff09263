package repositories

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

const pqUniqueViolation = "23505"

func mapInsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// Column is a trusted column reference. Values never become part of the SQL
// text; they are always bound as parameters.
type Column string

// Predicate is a parameterized WHERE fragment using ? bindvars.
type Predicate struct {
	clause string
	args   []any
}

func Eq(col Column, value any) Predicate {
	return Predicate{clause: string(col) + " = ?", args: []any{value}}
}

func Neq(col Column, value any) Predicate {
	return Predicate{clause: string(col) + " <> ?", args: []any{value}}
}

// In matches col against values. An empty list matches nothing.
func In(col Column, values any) Predicate {
	if sliceLen(values) == 0 {
		return Predicate{clause: "FALSE"}
	}
	return Predicate{clause: string(col) + " IN (?)", args: []any{values}}
}

// NotIn excludes values from col. An empty list excludes nothing.
func NotIn(col Column, values any) Predicate {
	if sliceLen(values) == 0 {
		return Predicate{clause: "TRUE"}
	}
	return Predicate{clause: string(col) + " NOT IN (?)", args: []any{values}}
}

func IsNotNull(col Column) Predicate {
	return Predicate{clause: string(col) + " IS NOT NULL"}
}

func And(preds ...Predicate) Predicate { return join(" AND ", "TRUE", preds) }

func Or(preds ...Predicate) Predicate { return join(" OR ", "FALSE", preds) }

func join(sep, empty string, preds []Predicate) Predicate {
	if len(preds) == 0 {
		return Predicate{clause: empty}
	}
	if len(preds) == 1 {
		return preds[0]
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		parts = append(parts, "("+p.clause+")")
		args = append(args, p.args...)
	}
	return Predicate{clause: strings.Join(parts, sep), args: args}
}

// Build expands slice arguments and returns the clause with ? bindvars.
func (p Predicate) Build() (string, []any, error) {
	if p.clause == "" {
		return "TRUE", nil, nil
	}
	return sqlx.In(p.clause, p.args...)
}

func sliceLen(values any) int {
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice {
		return 1
	}
	return v.Len()
}

// selectWhere runs base + WHERE p + suffix and scans rows into dest.
func selectWhere(ctx context.Context, db *sqlx.DB, dest any, base string, p Predicate, suffix string) error {
	where, args, err := p.Build()
	if err != nil {
		return err
	}
	query := db.Rebind(base + " WHERE " + where + " " + suffix)
	return db.SelectContext(ctx, dest, query, args...)
}

func countWhere(ctx context.Context, db *sqlx.DB, table string, p Predicate) (int, error) {
	where, args, err := p.Build()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, db.Rebind("SELECT COUNT(*) FROM "+table+" WHERE "+where), args...)
	return count, err
}
