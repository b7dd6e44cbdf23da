// Package module wires meta endpoints into the API
package module

import (
	"time"

	modkit "callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"

	metahttp "callerid/internal/services/api/meta/http"
	repmod "callerid/internal/services/api/reputation/module"
)

// Module serves health, readiness, version and policy
type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{built: b, deps: metahttp.Deps{
		ServiceName: "callerid-api",
		StartedAt:   time.Now(),
		PG:          deps.PG,
		CH:          deps.CH,
		Policy:      repmod.FromConfig(deps.Cfg).Policy,
	}}
}

// MountRoutes mounts /meta
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.built.Prefix }

// Ports is nil; nothing depends on meta
func (m *Module) Ports() any { return nil }
