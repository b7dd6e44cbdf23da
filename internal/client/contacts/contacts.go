// Package contacts is the device-side address book index. It maps a normalized
// number to what the device already knows about the caller
package contacts

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"callerid/internal/core/normalize"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"

	"golang.org/x/sync/singleflight"
)

// Contact is one raw address book row
type Contact struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Photo  string `json:"photo,omitempty"`
}

// Entry is what a lookup returns
type Entry struct {
	Name  string
	Photo string
}

// Loader reads the whole address book
type Loader func(ctx context.Context) ([]Contact, error)

// Cache is rebuilt wholesale on every preload and never edited in place
type Cache struct {
	load  Loader
	group singleflight.Group
	index atomic.Pointer[map[string]Entry]

	mu    sync.Mutex
	loads int
}

// New builds an empty cache over load
func New(load Loader) *Cache {
	if load == nil {
		panic("contacts: nil loader")
	}
	c := &Cache{load: load}
	empty := map[string]Entry{}
	c.index.Store(&empty)
	return c
}

// Preload rebuilds the index. Concurrent callers share one in-flight load
func (c *Cache) Preload(ctx context.Context) (int, error) {
	v, err, shared := c.group.Do("preload", func() (any, error) {
		rows, err := c.load(ctx)
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "address book read failed")
		}

		next := make(map[string]Entry, len(rows))
		for _, r := range rows {
			key, err := normalize.Key(r.Number)
			if err != nil {
				continue
			}
			name := normalize.Name(r.Name)
			if name == "" {
				continue
			}
			next[key] = Entry{Name: name, Photo: r.Photo}
		}
		c.index.Store(&next)

		c.mu.Lock()
		c.loads++
		c.mu.Unlock()
		return len(next), nil
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("contact preload failed")
		return 0, err
	}
	if shared {
		logger.C(ctx).Debug().Msg("contact preload coalesced")
	}
	return v.(int), nil
}

// Refresh re-runs the preload after the address book changed
func (c *Cache) Refresh(ctx context.Context) (int, error) { return c.Preload(ctx) }

// Lookup finds a normalized key. It never touches the loader
func (c *Cache) Lookup(key string) (Entry, bool) {
	e, ok := (*c.index.Load())[key]
	return e, ok
}

// Len reports the number of indexed contacts
func (c *Cache) Len() int { return len(*c.index.Load()) }

// Loads reports how many preloads actually ran
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// FileLoader reads a JSON array of contacts from path. A missing file is an empty book
func FileLoader(path string) Loader {
	return func(ctx context.Context) ([]Contact, error) {
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var out []Contact
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "contacts file")
		}
		return out, nil
	}
}
