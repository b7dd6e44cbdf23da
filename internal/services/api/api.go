// Package api provides the HTTP API for the application
package api

// Build with -tags swag after generating to serve the annotated document
//go:generate go run github.com/swaggo/swag/v2/cmd/swag@v2.0.0-rc4 init --v3.1 -g main.go -d ../../../cmd/callerid-api,./ -o ./docs --outputTypes go --parseInternal

import (
	"context"
	"net/http"

	"callerid/internal/platform/config"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/net/middleware"
	"callerid/internal/platform/store"

	"callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	"callerid/internal/modkit/module"
	"callerid/internal/modkit/swaggerkit"

	activitymod "callerid/internal/services/activity/module"
	blocksmod "callerid/internal/services/api/blocks/module"
	metamod "callerid/internal/services/api/meta/module"
	rdom "callerid/internal/services/api/reputation/domain"
	repmod "callerid/internal/services/api/reputation/module"
	namesyncmod "callerid/internal/services/namesync/module"

	"golang.org/x/sync/errgroup"
)

// Options are the API options
type Options struct {
	// Config is the root view. Modules read their own REPUTATION_, NAMESYNC_
	// and ACTIVITY_ keys from it, so it must not carry a prefix
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	Auth           middleware.AuthPort
	EnableSwagger  bool
	EnableProfiler bool
}

// FromConfig fills the config-derived options from the root view. The switches
// live under CORE_API_
func FromConfig(root config.Conf) Options {
	apiCfg := root.Prefix("CORE_API_")
	return Options{
		Config:         root,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	}
}

// Background runs the workers Mount wired up
type Background struct {
	runs []func(context.Context) error
}

// Run blocks until ctx ends or a worker fails
func (b *Background) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, run := range b.runs {
		g.Go(func() error { return run(gctx) })
	}
	return g.Wait()
}

// Mount mounts the API service onto the given router and returns the
// background workers the caller must run
func Mount(r phttp.Router, opt Options) *Background {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// Worker modules first; their ports feed the API modules
	nameSync := namesyncmod.New(deps, namesyncmod.FromConfig(deps.Cfg))
	syncPorts := module.MustPortsOf[namesyncmod.Ports](nameSync)

	activity := activitymod.New(deps)
	actPorts := module.MustPortsOf[activitymod.Ports](activity)

	reputation := repmod.New(
		deps,
		modkit.WithPorts(repmod.Ports{
			Enqueuer: syncPorts.Enqueuer,
			Activity: actPorts.Recorder,
			Auth:     opt.Auth,
		}),
	)

	// blocks nudges scores through the reputation module
	blocks := blocksmod.New(
		deps,
		modkit.WithPorts(blocksmod.Ports{
			Nudger:   module.MustPortsOf[rdom.NudgePort](reputation),
			Activity: actPorts.Recorder,
			Auth:     opt.Auth,
		}),
	)

	mods := []module.Module{
		metamod.New(deps),
		nameSync,
		activity,
		reputation,
		blocks,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", phttp.NoBody(func(*http.Request) (any, error) {
		return map[string]bool{"ok": true}, nil
	}))

	sightings := module.MustPortsOf[rdom.SightingPort](reputation)
	return &Background{runs: []func(context.Context) error{
		func(ctx context.Context) error { return syncPorts.Worker.Run(ctx, sightings) },
		actPorts.Worker.Run,
	}}
}
