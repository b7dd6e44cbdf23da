// Package service implements the in-process contact name sync queue and its worker
package service

import (
	"context"
	"sync"
	"time"

	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	rdom "callerid/internal/services/api/reputation/domain"
	dom "callerid/internal/services/namesync/domain"
)

// Service implements both worker and enqueue ports
type Service interface {
	dom.WorkerPort
	dom.EnqueuePort
}

// Config controls the queue and worker
type Config struct {
	QueueSize   int
	Batch       int
	Concurrency int
	FlushEvery  time.Duration
	// DrainTimeout bounds the final flush after Run's context ends
	DrainTimeout time.Duration
}

// Svc is a bounded queue of sightings
type Svc struct {
	cfg     Config
	queue   chan dom.Sighting
	metrics *metrics.Metrics
}

var _ Service = (*Svc)(nil)

// New constructs the service; zero config fields take defaults
func New(cfg Config, m *metrics.Metrics) *Svc {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10_000
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 256
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 500 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	return &Svc{cfg: cfg, queue: make(chan dom.Sighting, cfg.QueueSize), metrics: m}
}

// Enqueue never blocks. Sightings that do not fit are dropped and counted
func (s *Svc) Enqueue(ctx context.Context, batch []dom.Sighting) int {
	queued := 0
	for _, sg := range batch {
		select {
		case s.queue <- sg:
			queued++
		default:
			dropped := len(batch) - queued
			s.metrics.AddDropped(dropped)
			logger.C(ctx).Warn().Int("dropped", dropped).Msg("name sync queue full")
			return queued
		}
	}
	return queued
}

// Pending reports how many sightings wait in the queue
func (s *Svc) Pending() int { return len(s.queue) }

// Run batches queued sightings and applies them with bounded concurrency.
// When ctx ends the queue is drained once more before returning
func (s *Svc) Run(ctx context.Context, apply rdom.SightingPort) error {
	log := logger.Named("namesync")
	sem := make(chan struct{}, s.cfg.Concurrency)
	ticker := time.NewTicker(s.cfg.FlushEvery)
	defer ticker.Stop()

	// Batches in flight when ctx ends get DrainTimeout to land
	actx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()

	var wg sync.WaitGroup
	dispatch := func(batch []dom.Sighting) {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			n, err := apply.ApplySightings(actx, batch)
			if err != nil {
				log.Warn().Err(err).Int("applied", n).Int("batch", len(batch)).Msg("apply sightings failed")
				return
			}
			log.Debug().Int("applied", n).Msg("sightings applied")
		}()
	}

	buf := make([]dom.Sighting, 0, s.cfg.Batch)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		dispatch(buf)
		buf = make([]dom.Sighting, 0, s.cfg.Batch)
	}

	for {
		select {
		case <-ctx.Done():
			deadline := time.AfterFunc(s.cfg.DrainTimeout, stop)
			defer deadline.Stop()
			s.drain(&buf)
			for start := 0; start < len(buf); start += s.cfg.Batch {
				dispatch(buf[start:min(start+s.cfg.Batch, len(buf))])
			}
			wg.Wait()
			return ctx.Err()
		case sg := <-s.queue:
			buf = append(buf, sg)
			if len(buf) >= s.cfg.Batch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *Svc) drain(buf *[]dom.Sighting) {
	for {
		select {
		case sg := <-s.queue:
			*buf = append(*buf, sg)
		default:
			return
		}
	}
}
