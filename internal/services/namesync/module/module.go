// Package module wires the contact name sync worker and exposes its ports
package module

import (
	"callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	"callerid/internal/services/namesync/service"
)

// Module defines the name sync worker module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the name sync module with its ports
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)

	if overrides.QueueSize != 0 {
		opts.QueueSize = overrides.QueueSize
	}
	if overrides.Batch != 0 {
		opts.Batch = overrides.Batch
	}
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if overrides.FlushEvery != 0 {
		opts.FlushEvery = overrides.FlushEvery
	}
	if overrides.DrainTimeout != 0 {
		opts.DrainTimeout = overrides.DrainTimeout
	}

	svc := service.New(service.Config{
		QueueSize:    opts.QueueSize,
		Batch:        opts.Batch,
		Concurrency:  opts.Concurrency,
		FlushEvery:   opts.FlushEvery,
		DrainTimeout: opts.DrainTimeout,
	}, deps.Metrics)

	return &Module{deps: deps, ports: Ports{Worker: svc, Enqueuer: svc}}
}

// Ports returns the module ports (Worker, Enqueuer)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "namesync" }

// Prefix returns the module route prefix (none for worker-only service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
