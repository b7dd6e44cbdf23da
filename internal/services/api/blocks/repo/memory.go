package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"callerid/internal/modkit/repokit"
	"callerid/internal/services/api/blocks/domain"
)

type key struct{ owner, number string }

// Memory is an in-process block store
type Memory struct {
	mu     sync.RWMutex
	rel    map[key]domain.Block
	nudged map[key]struct{}
}

var (
	_ domain.Repo                 = (*Memory)(nil)
	_ repokit.Binder[domain.Repo] = (*Memory)(nil)
)

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{rel: map[key]domain.Block{}, nudged: map[key]struct{}{}}
}

// Bind implements repokit.Binder
func (m *Memory) Bind(repokit.Queryer) domain.Repo { return m }

// Upsert implements domain.Repo
func (m *Memory) Upsert(_ context.Context, b domain.Block) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{b.OwnerID, b.Number}
	if _, ok := m.rel[k]; ok {
		return false, nil
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.rel[k] = b
	return true, nil
}

// Delete implements domain.Repo
func (m *Memory) Delete(_ context.Context, ownerID, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{ownerID, number}
	if _, ok := m.rel[k]; !ok {
		return false, nil
	}
	delete(m.rel, k)
	return true, nil
}

// List implements domain.Repo
func (m *Memory) List(_ context.Context, ownerID string) ([]domain.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Block
	for k, b := range m.rel {
		if k.owner == ownerID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.Block) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return out, nil
}

// ClaimNudge implements domain.Repo
func (m *Memory) ClaimNudge(_ context.Context, ownerID, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{ownerID, number}
	if _, ok := m.nudged[k]; ok {
		return false, nil
	}
	m.nudged[k] = struct{}{}
	return true, nil
}

// ReleaseNudge implements domain.Repo
func (m *Memory) ReleaseNudge(_ context.Context, ownerID, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nudged, key{ownerID, number})
	return nil
}
