package store

import (
	"context"

	perr "callerid/internal/platform/errors"
)

// ExecOne runs a write that must touch exactly one row; zero rows is NotFound
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	n, err := Affected(ctx, q, sql, args...)
	switch {
	case err != nil:
		return err
	case n != 1:
		return perr.NotFoundf("expected exactly one row affected, got %d", n)
	}
	return nil
}

// Affected runs a write and returns how many rows it touched
func Affected(ctx context.Context, q RowQuerier, sql string, args ...any) (int64, error) {
	ct, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Scalar reads the single value a query returns
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (v T, err error) {
	err = q.QueryRow(ctx, sql, args...).Scan(&v)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Many maps every row through scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rs, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []T
	for rs.Next() {
		v, err := scan(rs)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// One is Many for queries that must match a single row. No rows is
// perr.ErrNotFound; more than one is an error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	all, err := Many(ctx, q, scan, sql, args...)
	switch {
	case err != nil:
		return zero, err
	case len(all) == 0:
		return zero, perr.ErrNotFound
	case len(all) > 1:
		return zero, perr.Newf(perr.ErrorCodeDB, "expected 1 row, got %d", len(all))
	}
	return all[0], nil
}

// IsNotFound reports a missing row
func IsNotFound(err error) bool { return perr.IsCode(err, perr.ErrorCodeNotFound) }
