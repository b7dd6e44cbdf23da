// Package repokit is the seam between domain repos and the SQL store: the
// Queryer they bind to, the runner that opens transactions and the hooks
// those transactions start with
package repokit

import (
	"context"
	"fmt"
	"time"

	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/store"
)

type (
	// Queryer is the read and write surface repos bind to
	Queryer = store.RowQuerier

	// TxRunner runs a function inside a transaction and can query outside one
	TxRunner = store.TxRunner
)

// Binder binds a domain repo to a Queryer, usually the one of an open tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// WithTx runs fn inside a transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}

// BeginHook runs first inside every transaction, on the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps inner so each Tx runs hooks in order before fn.
// A failing hook aborts the transaction
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	return hooked{TxRunner: inner, hooks: hooks}
}

type hooked struct {
	TxRunner
	hooks []BeginHook
}

func (h hooked) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// StatementTimeout bounds every statement in the tx with SET LOCAL statement_timeout.
// Zero or negative durations leave the server default
func StatementTimeout(d time.Duration) BeginHook {
	ms := d.Milliseconds()
	return func(ctx context.Context, q Queryer) error {
		if ms <= 0 {
			return nil
		}
		_, err := q.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms))
		return err
	}
}

// MustGuard checks every enabled store answers and panics otherwise. For startup
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}

// WithRetry reruns a whole Tx up to attempts times while it fails with a
// transient Postgres conflict (serialization failure, deadlock, lock timeout).
// fn must be safe to run again
func WithRetry(inner TxRunner, attempts int) TxRunner {
	if attempts <= 1 {
		return inner
	}
	return retrying{TxRunner: inner, attempts: attempts}
}

type retrying struct {
	TxRunner
	attempts int
}

func (r retrying) Tx(ctx context.Context, fn func(q Queryer) error) error {
	var err error
	for i := range r.attempts {
		if err = r.TxRunner.Tx(ctx, fn); err == nil || !perr.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		logger.C(ctx).Debug().Err(err).Int("attempt", i+1).Msg("retrying transaction")
	}
	return err
}
