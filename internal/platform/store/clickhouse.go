package store

import (
	"context"

	"callerid/internal/platform/store/ch"
)

// clickhouse narrows *ch.CH to the Clickhouse seam
type clickhouse struct {
	c *ch.CH
}

func (a *clickhouse) Insert(ctx context.Context, table string, rows [][]any) error {
	return a.c.Insert(ctx, table, rows)
}

func (a *clickhouse) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *clickhouse) Ping(ctx context.Context) error { return a.c.Ping(ctx) }
func (a *clickhouse) Close() error                   { return a.c.Close() }

// chRows drops the error from Close
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
