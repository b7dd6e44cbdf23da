package store

import (
	"context"
	"errors"
	"time"

	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is what pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on q and reports each to the pool's tracer
type traced struct {
	q  pgxQuerier
	db *pg.PG
}

func (t traced) report(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.db.Tracer == nil {
		return
	}
	d := time.Since(start)
	t.db.Tracer.OnQuery(ctx, pg.QueryEvent{SQL: sql, Args: args, Elapsed: d, Err: err, Slow: t.db.IsSlow(d)})
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	return ct, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow reports once Scan has run, since pgx defers errors until then
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return pgxRow{r: r, done: func(err error) { t.report(ctx, sql, args, start, err) }}
}

// postgres is the TxRunner over the pool
type postgres struct {
	traced
}

func newPostgres(db *pg.PG) *postgres { return &postgres{traced{q: db.Pool, db: db}} }

func (p *postgres) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return perr.FromPostgres(err, "begin tx")
	}
	if err := fn(traced{q: tx, db: p.db}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (p *postgres) Ping(ctx context.Context) error {
	var one int
	return p.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (p *postgres) Close() error {
	p.db.Close()
	return nil
}

type pgxRow struct {
	r    pgx.Row
	done func(error)
}

// Scan turns pgx.ErrNoRows into a NotFound error
func (x pgxRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	x.done(err)
	if errors.Is(err, pgx.ErrNoRows) {
		return perr.Wrap(err, perr.ErrorCodeNotFound, "not found")
	}
	return err
}

type pgxRows struct{ pgx.Rows }

func (x pgxRows) Columns() []string {
	fds := x.FieldDescriptions()
	cols := make([]string, 0, len(fds))
	for _, fd := range fds {
		cols = append(cols, fd.Name)
	}
	return cols
}
