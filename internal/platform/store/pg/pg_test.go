package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"callerid/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const dsn = "postgres://u:p@localhost:5432/callerid?sslmode=disable"

func TestOpen(t *testing.T) {
	testkit.Serial(t)

	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil); err == nil {
		t.Fatal("bad url should fail to parse")
	}

	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("boom")
	})
	if _, err := Open(context.Background(), Config{URL: dsn}, nil); err == nil {
		t.Fatal("pool error should surface")
	}

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})
	p, err := Open(context.Background(), Config{URL: dsn, AppName: "callerid-api", MaxConns: 7, Slow: time.Second}, nil,
		func(pc *pgxpool.Config) { pc.MaxConnIdleTime = time.Minute })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen.MaxConns != 7 || seen.MaxConnIdleTime != time.Minute {
		t.Fatalf("pool config not applied: %d %v", seen.MaxConns, seen.MaxConnIdleTime)
	}
	if seen.ConnConfig.RuntimeParams["application_name"] != "callerid-api" {
		t.Fatal("application_name not set")
	}
	if !p.IsSlow(time.Second) || p.IsSlow(time.Millisecond) {
		t.Fatal("slow threshold")
	}
}

func TestClose_NilSafe(t *testing.T) {
	var p *PG
	p.Close()
	(&PG{}).Close()
	if (&PG{}).IsSlow(time.Hour) {
		t.Fatal("zero threshold never marks slow")
	}
}

func TestLogTracer(t *testing.T) {
	cases := []struct {
		name  string
		ev    QueryEvent
		level string
	}{
		{"fast", QueryEvent{SQL: "SELECT\n\t1", Elapsed: time.Millisecond}, "info"},
		{"slow", QueryEvent{SQL: "SELECT 1", Slow: true}, "warn"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			LogTracer(zerolog.New(&buf)).OnQuery(context.Background(), tc.ev)

			var got struct {
				Level     string `json:"level"`
				SQL       string `json:"sql"`
				Component string `json:"component"`
			}
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if got.Level != tc.level || got.SQL != "SELECT 1" || got.Component != "pg" {
				t.Fatalf("line = %+v", got)
			}
		})
	}
}

func TestChain(t *testing.T) {
	if Chain(nil, nil) != nil {
		t.Fatal("all nil should be nil")
	}

	var calls int
	var last time.Duration
	obs := Observer(func(d time.Duration, _ error, _ bool) {
		calls++
		last = d
	})
	Chain(obs, nil, obs).OnQuery(context.Background(), QueryEvent{Elapsed: 2 * time.Millisecond})
	if calls != 2 || last != 2*time.Millisecond {
		t.Fatalf("calls=%d last=%v", calls, last)
	}
}
