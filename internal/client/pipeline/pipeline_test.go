package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"callerid/internal/client/contacts"
	"callerid/internal/client/resultcache"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/metrics"
	"callerid/internal/platform/testkit"
	ptime "callerid/internal/platform/time"
	rdom "callerid/internal/services/api/reputation/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeRemote struct {
	calls atomic.Int32
	delay time.Duration
	id    rdom.Identification
	err   error
}

func (f *fakeRemote) Identify(ctx context.Context, number string) (rdom.Identification, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return rdom.Identification{}, ctx.Err()
		}
	}
	id := f.id
	id.Number = number
	return id, f.err
}

// stubborn ignores cancellation entirely
type stubborn struct{ release chan struct{} }

func (s stubborn) Identify(context.Context, string) (rdom.Identification, error) {
	<-s.release
	return rdom.Identification{Found: true, Name: "late"}, nil
}

func book(t *testing.T, rows ...contacts.Contact) *contacts.Cache {
	t.Helper()
	c := contacts.New(func(context.Context) ([]contacts.Contact, error) { return rows, nil })
	if _, err := c.Preload(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestResolve_ContactHitMakesNoNetworkCall(t *testing.T) {
	remote := &fakeRemote{id: rdom.Identification{Found: true, Name: "server"}}
	p := New(Options{
		Contacts: book(t, contacts.Contact{Number: "+1 987-654-3210", Name: "Mom", Photo: "mom.png"}),
		Cache:    resultcache.NewMemory(resultcache.Options{}),
		Remote:   remote,
	})

	got, err := p.Resolve(context.Background(), "(987) 654-3210")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != SourceDevice || got.Name != "Mom" || got.Photo != "mom.png" {
		t.Fatalf("got %+v", got)
	}
	if n := remote.calls.Load(); n != 0 {
		t.Fatalf("remote called %d times on a contact hit", n)
	}
}

func TestResolve_RemoteThenCache(t *testing.T) {
	remote := &fakeRemote{id: rdom.Identification{
		Found: true, Type: rdom.TypeSpam, Name: "Likely Spam", IsSpam: true, SpamScore: 100, SpamReports: 60,
	}}
	p := New(Options{Cache: resultcache.NewMemory(resultcache.Options{}), Remote: remote})
	ctx := context.Background()

	first, err := p.Resolve(ctx, "9876543210")
	if err != nil || first.Source != SourceRemote || !first.IsSpam || first.Reports != 60 {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, _ := p.Resolve(ctx, "+1 9876543210")
	if second.Source != SourceCache || second.SpamScore != 100 {
		t.Fatalf("second = %+v", second)
	}
	if remote.calls.Load() != 1 {
		t.Fatalf("remote calls = %d", remote.calls.Load())
	}
}

func TestResolve_ExpiredCacheGoesRemote(t *testing.T) {
	clk := ptime.NewManual(time.Now())
	remote := &fakeRemote{id: rdom.Identification{Found: true, Type: rdom.TypeCrowd, Name: "Jon"}}
	p := New(Options{
		Cache:  resultcache.NewMemory(resultcache.Options{Clock: clk}),
		Remote: remote,
	})
	ctx := context.Background()

	_, _ = p.Resolve(ctx, "9876543210")
	clk.Advance(resultcache.DefaultTTL)
	got, _ := p.Resolve(ctx, "9876543210")
	if got.Source != SourceRemote || remote.calls.Load() != 2 {
		t.Fatalf("got %+v after %d calls", got, remote.calls.Load())
	}
}

func TestResolve_Fallbacks(t *testing.T) {
	cases := []struct {
		name   string
		remote *fakeRemote
		typ    rdom.ResultType
	}{
		{"not found", &fakeRemote{id: rdom.Identification{Type: rdom.TypeUnknown}}, rdom.TypeUnknown},
		{"private", &fakeRemote{id: rdom.Identification{Type: rdom.TypePrivate}}, rdom.TypePrivate},
		{"network", &fakeRemote{err: perr.Unavailablef("connection refused")}, rdom.TypeUnknown},
		{"any error", &fakeRemote{err: errors.New("boom")}, rdom.TypeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(Options{Remote: tc.remote})
			got, err := p.Resolve(context.Background(), "9876543210")
			if err != nil {
				t.Fatalf("fallback surfaced an error: %v", err)
			}
			if got.Name != UnknownName || got.IsSpam || got.Source != SourceUnknown || got.Type != tc.typ {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestResolve_CachedNotFoundServesFallback(t *testing.T) {
	for _, typ := range []rdom.ResultType{rdom.TypePrivate, rdom.TypeUnknown} {
		t.Run(string(typ), func(t *testing.T) {
			remote := &fakeRemote{id: rdom.Identification{Type: typ}}
			p := New(Options{Cache: resultcache.NewMemory(resultcache.Options{}), Remote: remote})
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				got, err := p.Resolve(ctx, "9876543210")
				if err != nil {
					t.Fatal(err)
				}
				if got.Name != UnknownName || got.Source != SourceUnknown || got.Type != typ {
					t.Fatalf("resolve #%d = %+v", i, got)
				}
			}
			if n := remote.calls.Load(); n != 1 {
				t.Fatalf("remote calls = %d, want the reply cached", n)
			}
		})
	}
}

func TestResolve_TimeoutFallsBackWithinBound(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	reg := prometheus.NewRegistry()
	m := metrics.NewClient(reg)
	p := New(Options{Remote: stubborn{release: release}, Timeout: 40 * time.Millisecond, Metrics: m})

	start := time.Now()
	got, err := p.Resolve(context.Background(), "9876543210")
	elapsed := time.Since(start)

	if err != nil || got.Source != SourceUnknown || got.Name != UnknownName {
		t.Fatalf("got %+v, %v", got, err)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("resolve blocked for %v past a 40ms bound", elapsed)
	}
	if v := testutil.ToFloat64(m.Resolutions.WithLabelValues("unknown")); v != 1 {
		t.Fatalf("unknown resolutions = %v", v)
	}
}

func TestResolve_InvalidNumberIsSurfaced(t *testing.T) {
	remote := &fakeRemote{}
	p := New(Options{Remote: remote})
	if _, err := p.Resolve(context.Background(), "12-34"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if remote.calls.Load() != 0 {
		t.Fatalf("invalid input reached the network")
	}
}

func TestNew_NilRemotePanics(t *testing.T) {
	testkit.MustPanic(t, func() { New(Options{}) })
}
