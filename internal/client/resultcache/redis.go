package resultcache

import (
	"context"
	"encoding/json"
	"time"

	"callerid/internal/platform/logger"
	pred "callerid/internal/platform/redis"
	ptime "callerid/internal/platform/time"
	rdom "callerid/internal/services/api/reputation/domain"
)

const keyPrefix = "callerid:ident:"

// Redis shares results between devices of one household or a fleet of test phones
type Redis struct {
	c     *pred.Client
	ttl   time.Duration
	clock ptime.Clock
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps c. Redis failures behave like misses
func NewRedis(c *pred.Client, opts Options) *Redis {
	if c == nil {
		panic("resultcache: nil redis client")
	}
	opts = opts.withDefaults()
	return &Redis{c: c, ttl: opts.TTL, clock: opts.Clock}
}

// Get returns a fresh result for key
func (r *Redis) Get(ctx context.Context, key string) (rdom.Identification, bool) {
	b, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !pred.IsNil(err) {
			logger.C(ctx).Debug().Err(err).Msg("result cache read failed")
		}
		return rdom.Identification{}, false
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil || !e.Fresh(r.clock.Now(), r.ttl) {
		return rdom.Identification{}, false
	}
	return e.Result, true
}

// Put stores res with the TTL as the key expiry
func (r *Redis) Put(ctx context.Context, key string, res rdom.Identification) {
	b, err := json.Marshal(Entry{Result: res, FetchedAt: r.clock.Now()})
	if err != nil {
		return
	}
	if err := r.c.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		logger.C(ctx).Debug().Err(err).Msg("result cache write failed")
	}
}
