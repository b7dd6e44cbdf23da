// Package module wires reputation into the API using modkit
package module

import (
	modkit "callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/logger"

	"callerid/internal/services/api/reputation/domain"
	rhttp "callerid/internal/services/api/reputation/http"
	rrepo "callerid/internal/services/api/reputation/repo"
	rsvc "callerid/internal/services/api/reputation/service"

	identrepo "callerid/internal/services/ident/repo"
	identsvc "callerid/internal/services/ident/service"
)

// Module implements the reputation API module
type Module struct {
	built modkit.Built
	ports Exposed

	register func(httpkit.Router)
}

// New constructs the reputation module. With REPUTATION_STORE=memory or no
// Postgres in deps it runs on the in-process store
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("reputation"),
		modkit.WithPrefix("/reputation"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}

	var (
		db     repokit.TxRunner
		binder repokit.Binder[domain.Repo]
		idents = injected.Identities
	)
	if cfg.Store == StoreMemory || deps.PG == nil {
		db = repokit.NewLocal()
		binder = rrepo.NewMemory()
		if idents == nil {
			idents = identsvc.New(db, identrepo.NewMemory())
		}
		logger.Named("reputation").Warn().Msg("reputation running on the in-memory store")
	} else {
		db = repokit.WithRetry(
			repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(cfg.StatementTimeout)),
			cfg.TxAttempts,
		)
		binder = rrepo.NewPG()
		if idents == nil {
			idents = identsvc.New(deps.PG, identrepo.NewPG())
		}
	}

	svc := rsvc.New(db, binder, rsvc.Options{
		Policy:     cfg.Policy,
		Identities: idents,
		Enqueuer:   injected.Enqueuer,
		Activity:   injected.Activity,
		Metrics:    deps.Metrics,
	})

	auth := injected.Auth
	return &Module{
		built: b,
		ports: Exposed{
			Nudger:    adaptNudgePort{svc: svc},
			Sightings: adaptSightingPort{svc: svc},
		},
		register: func(r httpkit.Router) { rhttp.Register(r, svc, auth, cfg.Curators) },
	}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r, m.register) }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.built.Prefix }
