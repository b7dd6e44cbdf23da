package repokit

import (
	"context"
	"sync"

	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/store"
)

// Local is a TxRunner for in-process repos that ignore their Queryer.
// Tx calls are serialized so a read-modify-write inside fn is atomic; SQL is rejected
type Local struct {
	mu sync.Mutex
}

var _ TxRunner = (*Local)(nil)

// NewLocal returns a ready Local runner
func NewLocal() *Local { return &Local{} }

// Tx runs fn while holding the runner lock. Do not nest
func (l *Local) Tx(ctx context.Context, fn func(q Queryer) error) error {
	if err := ctx.Err(); err != nil {
		return perr.FromContext(err, "local tx")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l)
}

// Exec always fails
func (l *Local) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	return nil, errNoSQL
}

// Query always fails
func (l *Local) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errNoSQL
}

// QueryRow returns a row whose Scan fails
func (l *Local) QueryRow(context.Context, string, ...any) store.Row { return errRow{} }

var errNoSQL = perr.Unavailablef("sql not available on local runner")

type errRow struct{}

func (errRow) Scan(...any) error { return errNoSQL }
