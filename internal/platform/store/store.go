// Package store opens the optional Postgres and ClickHouse backends behind
// small interfaces, so repos never import a driver
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callerid/internal/platform/logger"
	"callerid/internal/platform/store/ch"
	"callerid/internal/platform/store/pg"
)

// Config selects and configures backends. Disabled ones stay nil on the Store
type Config struct {
	AppName string
	PG      PGConfig
	CH      CHConfig
}

// PGConfig configures Postgres
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	Slow     time.Duration

	ConnectRetries int           // 20 when zero
	PingTimeout    time.Duration // 3s when zero
}

// CHConfig configures ClickHouse
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
}

func (c PGConfig) retries() int {
	if c.ConnectRetries > 0 {
		return c.ConnectRetries
	}
	return 20
}

func (c PGConfig) pingTimeout() time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return 3 * time.Second
}

// Store holds whichever backends were opened. The zero value has none
type Store struct {
	Log logger.Logger
	PG  TxRunner
	CH  Clickhouse

	observe func(d time.Duration, err error, slow bool)
}

// Option configures Open
type Option func(*Store)

// WithLogger sets the logger backends log through
func WithLogger(l logger.Logger) Option { return func(s *Store) { s.Log = l } }

// WithQueryObserver is told the duration of every Postgres statement
func WithQueryObserver(fn func(d time.Duration, err error, slow bool)) Option {
	return func(s *Store) { s.observe = fn }
}

// Open brings up the enabled backends. Postgres is pinged with backoff until it
// answers; ClickHouse gets a single ping
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}

	if cfg.PG.Enabled {
		db, err := s.openPG(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.PG = db
	}
	if cfg.CH.Enabled {
		c, err := s.openCH(ctx, cfg.CH, cfg.PG.pingTimeout())
		if err != nil {
			s.closePG()
			return nil, err
		}
		s.CH = c
	}
	return s, nil
}

func (s *Store) openPG(ctx context.Context, cfg Config) (*postgres, error) {
	var tracers []pg.QueryTracer
	if cfg.PG.LogSQL {
		tracers = append(tracers, pg.LogTracer(s.Log))
	}
	if s.observe != nil {
		tracers = append(tracers, pg.Observer(s.observe))
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		Slow:     cfg.PG.Slow,
	}, pg.Chain(tracers...))
	if err != nil {
		return nil, err
	}

	if err := waitForPG(ctx, p, cfg.PG); err != nil {
		p.Close()
		return nil, err
	}
	return newPostgres(p), nil
}

// waitForPG pings the pool, doubling the pause between attempts up to 2s
func waitForPG(ctx context.Context, p *pg.PG, cfg PGConfig) error {
	pause := 150 * time.Millisecond
	var err error
	for attempt := 1; attempt <= cfg.retries(); attempt++ {
		pctx, cancel := context.WithTimeout(ctx, cfg.pingTimeout())
		err = p.Pool.Ping(pctx)
		cancel()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		pause = min(pause*2, 2*time.Second)
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", cfg.retries(), err)
}

func (s *Store) openCH(ctx context.Context, cfg CHConfig, timeout time.Duration) (*clickhouse, error) {
	c, err := ch.Open(ctx, ch.Config{URL: cfg.URL, Role: cfg.Role})
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}
	s.Log.Info().Str("role", cfg.Role).Msg("clickhouse connected")
	return &clickhouse{c: c}, nil
}

// Guard pings every open backend that can be pinged and joins the failures
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	check := func(name string, v any) {
		if p, ok := v.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	if s.PG != nil {
		check("pg", s.PG)
	}
	if s.CH != nil {
		check("ch", s.CH)
	}
	return errors.Join(errs...)
}

// Close closes open backends
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	errs = append(errs, s.closePG())
	return errors.Join(errs...)
}

func (s *Store) closePG() error {
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
