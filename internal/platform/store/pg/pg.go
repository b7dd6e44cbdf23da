// Package pg opens the pgx pool and carries the query tracing hooks the
// store adapter reports through
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	AppName  string
	MaxConns int32
	// Slow marks statements at or past this duration; zero disables it
	Slow time.Duration
}

// PG is an open pool and its tracer
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

// PoolOption edits the parsed pool config before the pool is built
type PoolOption func(*pgxpool.Config)

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds the pool. pgxpool connects lazily, so a nil
// error says nothing about reachability
func Open(ctx context.Context, cfg Config, tracer QueryTracer, opts ...PoolOption) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	for _, o := range opts {
		o(pc)
	}

	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, Slow: cfg.Slow}, nil
}

// IsSlow reports whether d crosses the slow threshold
func (p *PG) IsSlow(d time.Duration) bool { return p.Slow > 0 && d >= p.Slow }

// Close closes the pool. Safe on nil
func (p *PG) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}
