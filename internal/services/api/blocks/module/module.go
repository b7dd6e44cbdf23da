// Package module wires blocks into the API using modkit
package module

import (
	"strings"

	modkit "callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/net/middleware"

	"callerid/internal/services/api/blocks/domain"
	bhttp "callerid/internal/services/api/blocks/http"
	brepo "callerid/internal/services/api/blocks/repo"
	bsvc "callerid/internal/services/api/blocks/service"
)

// Module implements the blocks API module
type Module struct {
	built modkit.Built
	svc   *bsvc.Svc
	auth  middleware.AuthPort
}

// Ports declares the required injected ports for this module
type Ports struct {
	// Nudger is required (from the reputation module)
	Nudger domain.NudgePort
	// Activity is optional
	Activity domain.ActivityPort
	// Auth parses bearer identities
	Auth middleware.AuthPort
}

// New constructs the blocks module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("blocks"),
		modkit.WithPrefix("/blocks"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Nudger == nil {
		panic("blocks API module requires Nudger port (from reputation)")
	}

	store := strings.ToLower(deps.Cfg.Prefix("REPUTATION_").MayEnum("STORE", "pg", "pg", "memory"))
	var (
		db     repokit.TxRunner
		binder repokit.Binder[domain.Repo]
	)
	if store == "memory" || deps.PG == nil {
		db, binder = repokit.NewLocal(), brepo.NewMemory()
	} else {
		db, binder = deps.PG, brepo.NewPG()
	}

	svc := bsvc.New(db, binder, bsvc.Options{
		Nudger:   injected.Nudger,
		Activity: injected.Activity,
		Metrics:  deps.Metrics,
	})

	return &Module{built: b, svc: svc, auth: injected.Auth}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { bhttp.Register(rr, m.svc, m.auth) })
}

// Ports exposes the block service
func (m *Module) Ports() any { return domain.ServicePort(m.svc) }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.built.Prefix }
