package repo

import (
	"context"
	"sync"

	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/services/ident/domain"
)

// Memory is an in-process identity directory. Bind ignores the Queryer
type Memory struct {
	mu       sync.RWMutex
	byUser   map[string]domain.Identity
	byNumber map[string]string
}

var (
	_ domain.Repo                 = (*Memory)(nil)
	_ repokit.Binder[domain.Repo] = (*Memory)(nil)
)

// NewMemory returns an empty directory
func NewMemory() *Memory {
	return &Memory{byUser: map[string]domain.Identity{}, byNumber: map[string]string{}}
}

// Bind implements repokit.Binder
func (m *Memory) Bind(repokit.Queryer) domain.Repo { return m }

// ByNumber implements domain.Repo
func (m *Memory) ByNumber(_ context.Context, number string) (domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.byNumber[number]
	if !ok {
		return domain.Identity{}, perr.ErrNotFound
	}
	return m.byUser[uid], nil
}

// Upsert implements domain.Repo
func (m *Memory) Upsert(_ context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.byNumber[id.Number]; ok && owner != id.UserID {
		return perr.DuplicateKeyf("number already registered")
	}
	if prev, ok := m.byUser[id.UserID]; ok {
		delete(m.byNumber, prev.Number)
	}
	m.byUser[id.UserID] = id
	m.byNumber[id.Number] = id.UserID
	return nil
}
