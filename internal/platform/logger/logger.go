// Package logger owns the process zerolog logger and the request scoped
// children handlers and workers log through
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level      string
	Format     string // console or json
	Service    string
	WithCaller bool
	Writer     io.Writer
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE and LOG_CALLER. It reads the
// environment directly since the config package logs through this one
func FromEnv() Options {
	env := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv("LOG_" + k)); v != "" {
			return v
		}
		return def
	}
	caller, _ := strconv.ParseBool(env("CALLER", "false"))
	return Options{
		Level:      strings.ToLower(env("LEVEL", "debug")),
		Format:     strings.ToLower(env("FORMAT", "console")),
		Service:    env("SERVICE", ""),
		WithCaller: caller,
	}
}

var (
	once sync.Once
	root Logger
)

// Init builds the root logger. Only the first Init or Get has any effect
func Init(opt Options) {
	once.Do(func() { build(opt) })
}

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	once.Do(func() { build(FromEnv()) })
	return &root
}

func build(opt Options) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opt.Writer
	if w == nil {
		w = os.Stdout
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lc := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		lc = lc.Str("go_version", bi.GoVersion)
	}
	if opt.Service != "" {
		lc = lc.Str("service", opt.Service)
	}
	if opt.WithCaller {
		lc = lc.Caller()
	}
	root = lc.Logger()
}

// parseLevel falls back to debug for anything zerolog does not know
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyDeviceID
)

// WithRequest stores the ids C tags its loggers with. Empty ids are skipped
func WithRequest(ctx context.Context, reqID, deviceID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if deviceID != "" {
		ctx = context.WithValue(ctx, keyDeviceID, deviceID)
	}
	return ctx
}

// C returns a child of the root logger carrying request_id and device_id from ctx
func C(ctx context.Context) *Logger {
	lc := Get().With()
	if v, _ := ctx.Value(keyRequestID).(string); v != "" {
		lc = lc.Str("request_id", v)
	}
	if v, _ := ctx.Value(keyDeviceID).(string); v != "" {
		lc = lc.Str("device_id", v)
	}
	l := lc.Logger()
	return &l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}
