package repokit

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/store"
	"callerid/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgconn"
)

// recorder is a TxRunner that logs every statement and hands itself to Tx
type recorder struct {
	log []string
}

func (r *recorder) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	r.log = append(r.log, sql)
	return nil, nil
}

func (r *recorder) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	r.log = append(r.log, "query:"+sql)
	return nil, nil
}

func (r *recorder) QueryRow(_ context.Context, sql string, _ ...any) store.Row {
	r.log = append(r.log, "row:"+sql)
	return nil
}

func (r *recorder) Tx(_ context.Context, fn func(q Queryer) error) error {
	r.log = append(r.log, "BEGIN")
	if err := fn(r); err != nil {
		r.log = append(r.log, "ROLLBACK")
		return err
	}
	r.log = append(r.log, "COMMIT")
	return nil
}

func TestWithBeginHooks(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name  string
		hooks []BeginHook
		err   error
		want  []string
	}{
		{
			name:  "timeout then body",
			hooks: []BeginHook{StatementTimeout(1500 * time.Millisecond)},
			want:  []string{"BEGIN", "SET LOCAL statement_timeout = 1500", "UPDATE reputation", "COMMIT"},
		},
		{
			name:  "zero timeout is a no-op",
			hooks: []BeginHook{StatementTimeout(0)},
			want:  []string{"BEGIN", "UPDATE reputation", "COMMIT"},
		},
		{
			name: "failing hook stops the tx",
			hooks: []BeginHook{
				func(context.Context, Queryer) error { return boom },
				func(context.Context, Queryer) error { t.Fatal("second hook ran"); return nil },
			},
			err:  boom,
			want: []string{"BEGIN", "ROLLBACK"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			err := WithTx(context.Background(), WithBeginHooks(rec, tc.hooks...), func(q Queryer) error {
				_, err := q.Exec(context.Background(), "UPDATE reputation")
				return err
			})
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if !reflect.DeepEqual(rec.log, tc.want) {
				t.Fatalf("log = %q, want %q", rec.log, tc.want)
			}
		})
	}
}

func TestWithBeginHooks_DirectCallsSkipHooks(t *testing.T) {
	rec := &recorder{}
	r := WithBeginHooks(rec, StatementTimeout(time.Second))
	ctx := context.Background()
	_, _ = r.Exec(ctx, "DELETE FROM blocks")
	_, _ = r.Query(ctx, "SELECT 1")
	_ = r.QueryRow(ctx, "SELECT 2")
	want := []string{"DELETE FROM blocks", "query:SELECT 1", "row:SELECT 2"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Fatalf("log = %q", rec.log)
	}
}

func TestLocal(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	if _, err := l.Exec(ctx, "SELECT 1"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("Exec err = %v", err)
	}
	if err := l.QueryRow(ctx, "SELECT 1").Scan(); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("Scan err = %v", err)
	}

	// serialized read-modify-write
	count := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Tx(ctx, func(Queryer) error {
				v := count
				time.Sleep(time.Microsecond)
				count = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	if count != 50 {
		t.Fatalf("count = %d, lost updates", count)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Tx(cctx, func(Queryer) error { t.Fatal("ran on canceled ctx"); return nil }); err == nil {
		t.Fatal("want error on canceled ctx")
	}
}

type guardFunc func(context.Context) error

func (g guardFunc) Guard(ctx context.Context) error { return g(ctx) }

func TestMustGuard(t *testing.T) {
	var hadDeadline bool
	MustGuard(context.Background(), guardFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}))
	if !hadDeadline {
		t.Fatal("guard should run under a deadline")
	}
	testkit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(context.Context) error { return errors.New("pg down") }))
	})
}

func TestWithRetry(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}
	cases := []struct {
		name     string
		attempts int
		fails    []error
		wantRuns int
		wantErr  bool
	}{
		{"succeeds first time", 3, nil, 1, false},
		{"retries a serialization failure", 3, []error{serialization}, 2, false},
		{"gives up after attempts", 2, []error{serialization, serialization, serialization}, 2, true},
		{"does not retry other errors", 3, []error{perr.NotFoundf("gone")}, 1, true},
		{"single attempt is passthrough", 1, []error{serialization}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := 0
			tx := WithRetry(&recorder{}, tc.attempts)
			err := tx.Tx(context.Background(), func(Queryer) error {
				runs++
				if runs <= len(tc.fails) {
					return tc.fails[runs-1]
				}
				return nil
			})
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if runs != tc.wantRuns {
				t.Fatalf("runs = %d, want %d", runs, tc.wantRuns)
			}
		})
	}
}
