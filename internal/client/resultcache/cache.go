// Package resultcache holds recent identification results so repeat lookups
// skip the network. Entries older than the TTL are never served
package resultcache

import (
	"context"
	"time"

	ptime "callerid/internal/platform/time"
	rdom "callerid/internal/services/api/reputation/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL is how long a result stays fresh
const DefaultTTL = 24 * time.Hour

// Entry is a cached result and when it was fetched
type Entry struct {
	Result    rdom.Identification `json:"result"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Fresh reports whether e is younger than ttl at now
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Cache is the client result cache surface
type Cache interface {
	Get(ctx context.Context, key string) (rdom.Identification, bool)
	Put(ctx context.Context, key string, res rdom.Identification)
}

// Options configures a cache. Zero values take defaults
type Options struct {
	Size int
	TTL  time.Duration
	// Clock defaults to the wall clock; tests use a manual one
	Clock ptime.Clock
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 4096
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	o.Clock = ptime.Or(o.Clock)
	return o
}

// Memory is a bounded in-process cache
type Memory struct {
	lru   *expirable.LRU[string, Entry]
	ttl   time.Duration
	clock ptime.Clock
}

var _ Cache = (*Memory)(nil)

// NewMemory builds a size-bounded cache whose entries expire after the TTL
func NewMemory(opts Options) *Memory {
	opts = opts.withDefaults()
	return &Memory{
		lru:   expirable.NewLRU[string, Entry](opts.Size, nil, opts.TTL),
		ttl:   opts.TTL,
		clock: opts.Clock,
	}
}

// Get returns a fresh result for key
func (m *Memory) Get(_ context.Context, key string) (rdom.Identification, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return rdom.Identification{}, false
	}
	if !e.Fresh(m.clock.Now(), m.ttl) {
		m.lru.Remove(key)
		return rdom.Identification{}, false
	}
	return e.Result, true
}

// Put stores res stamped with the current time
func (m *Memory) Put(_ context.Context, key string, res rdom.Identification) {
	m.lru.Add(key, Entry{Result: res, FetchedAt: m.clock.Now()})
}

// Len reports the number of live entries
func (m *Memory) Len() int { return m.lru.Len() }
