// @title         Caller ID API
// @version       0.1.0
// @description   Caller identification, spam reputation and block lists
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"callerid/internal/modkit/httpkit"
	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/auth"
	"callerid/internal/platform/config"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/store"

	"callerid/internal/services/api"

	actdom "callerid/internal/services/activity/domain"
	brepo "callerid/internal/services/api/blocks/repo"
	rrepo "callerid/internal/services/api/reputation/repo"
	identrepo "callerid/internal/services/ident/repo"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	memory := strings.EqualFold(root.Prefix("REPUTATION_").MayString("STORE", "pg"), "memory")
	chOn := chCfg.MayBool("ENABLED", false)

	// open the platform store (postgres + CH adapter)
	scfg := store.Config{AppName: "callerid-api"}
	if !memory {
		scfg.PG = store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 8)),
			Slow:     pgCfg.MayDuration("SLOW", 250*time.Millisecond),
			LogSQL:   pgCfg.MayBool("LOG_SQL", false),
		}
	}
	if chOn {
		scfg.CH = store.CHConfig{
			Enabled: true,
			URL:     chCfg.MustString("DBURL"),
			Role:    "api",
		}
	}
	st, err := store.Open(ctx, scfg, store.WithLogger(*l), store.WithQueryObserver(m.ObserveQuery))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	if apiCfg.MayBool("MIGRATE", false) {
		migrate(ctx, st)
	}

	verifier := auth.NewVerifier(apiCfg.MustString("AUTH_SECRET"), apiCfg.MayString("AUTH_ISSUER", ""))

	// http server (reads CORE_API_PORT and the *_TIMEOUT keys)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	opt := api.FromConfig(root)
	opt.Store = st
	opt.Logger = l
	opt.Metrics = m
	opt.Auth = httpkit.NewPortFunc(verifier.Parse)
	bg := api.Mount(srv.Router(), opt)

	workersDone := make(chan error, 1)
	go func() { workersDone <- bg.Run(ctx) }()

	// run; returns once ctx ends and in-flight requests drain
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	stop()
	if err := <-workersDone; err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("background workers stopped")
	}
}

// migrate applies the embedded DDL. Every statement is idempotent
func migrate(ctx context.Context, st *store.Store) {
	l := logger.Named("migrate")
	if st.PG != nil {
		for name, ddl := range map[string]string{
			"identities": identrepo.Schema,
			"reputation": rrepo.Schema,
			"blocks":     brepo.Schema,
		} {
			if _, err := st.PG.Exec(ctx, ddl); err != nil {
				l.Panic().Err(err).Str("schema", name).Msg("migration failed")
			}
			l.Info().Str("schema", name).Msg("schema applied")
		}
	}
	if st.CH != nil {
		rows, err := st.CH.Query(ctx, actdom.Schema)
		if err != nil {
			l.Panic().Err(err).Str("schema", "activity").Msg("migration failed")
		}
		rows.Close()
		l.Info().Str("schema", "activity").Msg("schema applied")
	}
}
