package pg

import (
	"context"
	"strings"
	"time"

	"callerid/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer is told about every statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// TracerFunc adapts a plain function
type TracerFunc func(ctx context.Context, ev QueryEvent)

// OnQuery calls f
func (f TracerFunc) OnQuery(ctx context.Context, ev QueryEvent) { f(ctx, ev) }

// Observer feeds statement timings to fn, typically a histogram
func Observer(fn func(d time.Duration, err error, slow bool)) QueryTracer {
	return TracerFunc(func(_ context.Context, ev QueryEvent) { fn(ev.Elapsed, ev.Err, ev.Slow) })
}

// LogTracer logs every statement through log. Statements are logged at info so
// SQL logging works whatever the root level; slow ones at warn
func LogTracer(log logger.Logger) QueryTracer {
	l := log.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return TracerFunc(func(_ context.Context, ev QueryEvent) {
		e := l.Info()
		if ev.Slow {
			e = l.Warn()
		}
		e.Dur("elapsed", ev.Elapsed).
			Bool("slow", ev.Slow).
			Str("sql", oneLine(ev.SQL)).
			Interface("args", ev.Args).
			Err(ev.Err).
			Msg("pg query")
	})
}

// Chain calls each non nil tracer in order. nil when nothing is left
func Chain(ts ...QueryTracer) QueryTracer {
	var live []QueryTracer
	for _, t := range ts {
		if t != nil {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	if len(live) == 1 {
		return live[0]
	}
	return TracerFunc(func(ctx context.Context, ev QueryEvent) {
		for _, t := range live {
			t.OnQuery(ctx, ev)
		}
	})
}

func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }
