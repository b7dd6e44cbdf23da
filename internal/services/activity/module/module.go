// Package module wires the activity sink
package module

import (
	"callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	dom "callerid/internal/services/activity/domain"
	"callerid/internal/services/activity/service"
)

// Ports exposed by the activity module
type Ports struct {
	Recorder dom.RecorderPort
	Worker   dom.WorkerPort
}

// Module implements the activity sink module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the module. Without ClickHouse in deps the sink records nothing
func New(deps modkit.Deps) *Module {
	c := deps.Cfg.Prefix("ACTIVITY_")
	svc := service.New(deps.CH, service.Config{
		Buffer:     c.MayInt("BUFFER", 4096),
		Batch:      c.MayInt("BATCH", 500),
		FlushEvery: c.MayDuration("FLUSH_EVERY", 0),
	})
	return &Module{deps: deps, ports: Ports{Recorder: svc, Worker: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "activity" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(httpkit.Router) {}
