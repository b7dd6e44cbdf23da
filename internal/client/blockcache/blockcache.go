// Package blockcache is the device-side mirror of the caller's block list.
// Call screening reads it synchronously and never waits on the network
package blockcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	perr "callerid/internal/platform/errors"
)

// Entry is one locally blocked number
type Entry struct {
	Number    string    `json:"number"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is safe for concurrent use. With a path every change is snapshotted to disk
type Cache struct {
	mu   sync.RWMutex
	m    map[string]Entry
	path string
	now  func() time.Time
}

// Open loads the snapshot at path. An empty path keeps the cache in memory only
func Open(path string) (*Cache, error) {
	c := &Cache{m: map[string]Entry{}, path: path, now: time.Now}
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read block snapshot")
	}
	var rows []Entry
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode block snapshot")
	}
	for _, e := range rows {
		c.m[e.Number] = e
	}
	return c, nil
}

// IsBlocked reports whether key is blocked locally
func (c *Cache) IsBlocked(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.m[key]
	return ok
}

// Add blocks key. Adding an existing key keeps the original entry
func (c *Cache) Add(key, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; ok {
		return nil
	}
	c.m[key] = Entry{Number: key, Reason: reason, CreatedAt: c.now().UTC()}
	return c.persist()
}

// Remove unblocks key and reports whether it was present
func (c *Cache) Remove(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok {
		return false, nil
	}
	delete(c.m, key)
	return true, c.persist()
}

// Replace swaps the whole list for entries
func (c *Cache) Replace(entries []Entry) error {
	next := make(map[string]Entry, len(entries))
	for _, e := range entries {
		next[e.Number] = e
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = next
	return c.persist()
}

// List returns the entries ordered by number
func (c *Cache) List() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.m))
	for _, e := range c.m {
		out = append(out, e)
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		}
		return 0
	})
	return out
}

// Len reports how many numbers are blocked
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// persist writes the snapshot atomically; callers hold mu
func (c *Cache) persist() error {
	if c.path == "" {
		return nil
	}
	rows := make([]Entry, 0, len(c.m))
	for _, e := range c.m {
		rows = append(rows, e)
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode block snapshot")
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".blocks-*")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "write block snapshot")
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "write block snapshot")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "write block snapshot")
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "write block snapshot")
	}
	return nil
}
