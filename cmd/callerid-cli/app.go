package main

import (
	"context"
	"time"

	"callerid/internal/client/blockcache"
	"callerid/internal/client/blocksync"
	"callerid/internal/client/contacts"
	"callerid/internal/client/pipeline"
	"callerid/internal/client/remote"
	"callerid/internal/client/resultcache"
	"callerid/internal/platform/config"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	pred "callerid/internal/platform/redis"

	"github.com/prometheus/client_golang/prometheus"
)

// app holds the wired client side for one command invocation
type app struct {
	remote   *remote.Client
	contacts *contacts.Cache
	pipeline *pipeline.Pipeline
	blocks   *blockcache.Cache
	syncer   *blocksync.Syncer

	loadContacts contacts.Loader

	closers []func() error
}

// newApp wires the client from CALLERID_* settings
func newApp(ctx context.Context, cfg config.Conf) (*app, error) {
	base := cfg.MayString("API_URL", "")
	if base == "" {
		return nil, perr.InvalidArgf("CALLERID_API_URL is required")
	}

	// a private registry keeps repeated wiring in one process from colliding
	m := metrics.NewClient(prometheus.NewRegistry())

	rc, err := remote.New(remote.Config{
		BaseURL:         base,
		Token:           cfg.MayString("TOKEN", ""),
		Timeout:         cfg.MayDuration("TIMEOUT", remote.DefaultTimeout),
		BreakerFailures: uint32(cfg.MayInt("BREAKER_FAILURES", 5)),
		BreakerCooldown: cfg.MayDuration("BREAKER_COOLDOWN", 30*time.Second),
		Metrics:         m,
	})
	if err != nil {
		return nil, err
	}

	a := &app{remote: rc}

	cacheOpts := resultcache.Options{
		Size: cfg.MayInt("CACHE_SIZE", 4096),
		TTL:  cfg.MayDuration("CACHE_TTL", resultcache.DefaultTTL),
	}
	var cache resultcache.Cache = resultcache.NewMemory(cacheOpts)
	redisURL := cfg.MayString("REDIS_URL", "")
	if redisURL != "" {
		rdb, err := pred.New(ctx, pred.Config{URL: redisURL, DialTimeout: time.Second})
		if err != nil {
			// a cold memory cache still works
			logger.C(ctx).Warn().Err(err).Msg("redis unavailable, using memory cache")
		} else {
			cache = resultcache.NewRedis(rdb, cacheOpts)
			a.closers = append(a.closers, rdb.Close)
		}
	}

	a.loadContacts = contacts.FileLoader(cfg.MayString("CONTACTS_FILE", ""))
	a.contacts = contacts.New(a.loadContacts)
	if _, err := a.contacts.Preload(ctx); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("contacts not loaded")
	}

	a.pipeline = pipeline.New(pipeline.Options{
		Contacts: a.contacts,
		Cache:    cache,
		Remote:   rc,
		Timeout:  rc.Timeout(),
		Metrics:  m,
	})

	a.blocks, err = blockcache.Open(cfg.MayString("BLOCKS_FILE", ""))
	if err != nil {
		a.close()
		return nil, err
	}
	a.syncer = blocksync.New(a.blocks, rc)
	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}
