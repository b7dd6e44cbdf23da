// Package service buffers activity events and ships them to ClickHouse in batches
package service

import (
	"context"
	"time"

	"callerid/internal/platform/logger"
	"callerid/internal/platform/store"
	dom "callerid/internal/services/activity/domain"

	"github.com/google/uuid"
)

// Config controls buffering
type Config struct {
	Buffer     int
	Batch      int
	FlushEvery time.Duration
}

// Svc records events into a bounded buffer. With no ClickHouse every call is a no-op
type Svc struct {
	ch    store.Clickhouse
	cfg   Config
	queue chan dom.Event
	now   func() time.Time
}

var (
	_ dom.RecorderPort = (*Svc)(nil)
	_ dom.WorkerPort   = (*Svc)(nil)
)

// New constructs the sink. ch may be nil
func New(ch store.Clickhouse, cfg Config) *Svc {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 4096
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	return &Svc{ch: ch, cfg: cfg, queue: make(chan dom.Event, cfg.Buffer), now: time.Now}
}

// Enabled reports whether events go anywhere
func (s *Svc) Enabled() bool { return s.ch != nil }

// Record queues one event. A full buffer drops the event
func (s *Svc) Record(ctx context.Context, kind, number, actor, detail string) {
	if s.ch == nil {
		return
	}
	ev := dom.Event{
		ID:     uuid.NewString(),
		At:     s.now().UTC(),
		Kind:   kind,
		Number: number,
		Actor:  actor,
		Detail: detail,
	}
	select {
	case s.queue <- ev:
	default:
		logger.C(ctx).Warn().Str("kind", kind).Msg("activity buffer full, event dropped")
	}
}

// Run ships batches until ctx ends, then flushes what is left
func (s *Svc) Run(ctx context.Context) error {
	if s.ch == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	log := logger.Named("activity")
	ticker := time.NewTicker(s.cfg.FlushEvery)
	defer ticker.Stop()

	rows := make([][]any, 0, s.cfg.Batch)
	flush := func(fctx context.Context) {
		if len(rows) == 0 {
			return
		}
		if err := s.ch.Insert(fctx, dom.Table, rows); err != nil {
			log.Warn().Err(err).Int("rows", len(rows)).Msg("activity insert failed")
		}
		rows = make([][]any, 0, s.cfg.Batch)
	}

	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
		drain:
			for {
				select {
				case ev := <-s.queue:
					rows = append(rows, ev.Row())
					if len(rows) >= s.cfg.Batch {
						flush(fctx)
					}
				default:
					break drain
				}
			}
			flush(fctx)
			return ctx.Err()
		case ev := <-s.queue:
			rows = append(rows, ev.Row())
			if len(rows) >= s.cfg.Batch {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
