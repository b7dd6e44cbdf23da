// Package modkit is the wiring kit API and worker modules are built with:
// the shared deps they receive and the options that name, mount and connect them
package modkit

import (
	"net/http"

	"callerid/internal/modkit/httpkit"
	"callerid/internal/modkit/module"
	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/config"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	"callerid/internal/platform/store"
)

// Module is the surface every module exposes to the API composer
type Module = module.Module

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	// Metrics is optional; a nil value records nothing
	Metrics *metrics.Metrics
}

// Option adjusts how a module is built
type Option func(*Built)

// WithName sets the module name used in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the path the module mounts under
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects the ports a module needs from others. The concrete type
// is owned by the receiving module
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Built is the result of applying options
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Mount opens the module's prefix on r, applies its middleware and hands the
// scoped router to register
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	r.Route(b.Prefix, func(rr httpkit.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		register(rr)
	})
}
