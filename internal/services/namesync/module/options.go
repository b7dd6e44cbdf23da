package module

import (
	"time"

	"callerid/internal/platform/config"
)

// Options controls the name sync queue and worker
type Options struct {
	QueueSize    int
	Batch        int
	Concurrency  int
	FlushEvery   time.Duration
	DrainTimeout time.Duration
}

// FromConfig reads with NAMESYNC_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("NAMESYNC_")
	return Options{
		QueueSize:    c.MayInt("QUEUE_SIZE", 10_000),
		Batch:        c.MayInt("BATCH", 256),
		Concurrency:  c.MayInt("CONCURRENCY", 2),
		FlushEvery:   c.MayDuration("FLUSH_EVERY", 500*time.Millisecond),
		DrainTimeout: c.MayDuration("DRAIN_TIMEOUT", 5*time.Second),
	}
}
