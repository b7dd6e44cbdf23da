package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/services/api/reputation/domain"
)

type voteKey struct{ number, reporter string }

// Memory is an in-process reputation store. Pair it with repokit.Local so
// read-modify-write sequences run one at a time
type Memory struct {
	mu      sync.RWMutex
	records map[string]domain.Record
	votes   map[voteKey]domain.Vote
	now     func() time.Time
}

var (
	_ domain.Repo                 = (*Memory)(nil)
	_ repokit.Binder[domain.Repo] = (*Memory)(nil)
)

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{
		records: map[string]domain.Record{},
		votes:   map[voteKey]domain.Vote{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Bind implements repokit.Binder
func (m *Memory) Bind(repokit.Queryer) domain.Repo { return m }

func clone(r domain.Record) domain.Record {
	r.Variations = slices.Clone(r.Variations)
	r.Tags = slices.Clone(r.Tags)
	if r.ManualScore != nil {
		v := *r.ManualScore
		r.ManualScore = &v
	}
	return r
}

// Get implements domain.Repo
func (m *Memory) Get(_ context.Context, number string) (domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[number]
	if !ok {
		return domain.Record{}, perr.ErrNotFound
	}
	return clone(rec), nil
}

// Ensure implements domain.Repo
func (m *Memory) Ensure(_ context.Context, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[number]; !ok {
		now := m.now()
		m.records[number] = domain.Record{Number: number, Tags: []string{}, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

// Lock implements domain.Repo
func (m *Memory) Lock(ctx context.Context, number string) (domain.Record, error) {
	return m.Get(ctx, number)
}

// Save implements domain.Repo
func (m *Memory) Save(_ context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[rec.Number]
	if !ok {
		return perr.NotFoundf("expected exactly one row affected, got 0")
	}
	next := clone(rec)
	next.ManualScore = cur.ManualScore
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = m.now()
	m.records[rec.Number] = next
	return nil
}

// SetManualScore implements domain.Repo
func (m *Memory) SetManualScore(_ context.Context, number string, score *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[number]
	if !ok {
		return perr.NotFoundf("expected exactly one row affected, got 0")
	}
	if score != nil {
		v := *score
		score = &v
	}
	cur.ManualScore = score
	cur.UpdatedAt = m.now()
	m.records[number] = cur
	return nil
}

// InsertVote implements domain.Repo. The check and insert share one critical section
func (m *Memory) InsertVote(_ context.Context, v domain.Vote) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{v.Number, v.ReporterID}
	if _, dup := m.votes[k]; dup {
		return false, nil
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = m.now()
	}
	m.votes[k] = v
	return true, nil
}

// DeleteVote implements domain.Repo
func (m *Memory) DeleteVote(_ context.Context, number, reporterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey{number, reporterID}
	if _, ok := m.votes[k]; !ok {
		return false, nil
	}
	delete(m.votes, k)
	return true, nil
}

// CountVotes implements domain.Repo
func (m *Memory) CountVotes(_ context.Context, number string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.votes {
		if k.number == number {
			n++
		}
	}
	return n, nil
}
