// Package blocksync applies block changes to the device cache first and the
// server second. The two sides are not transactional
package blocksync

import (
	"context"
	"errors"

	"callerid/internal/client/blockcache"
	"callerid/internal/core/normalize"
	"callerid/internal/platform/logger"
	bdom "callerid/internal/services/api/blocks/domain"
)

// Local is the device block cache
type Local interface {
	Add(key, reason string) error
	Remove(key string) (bool, error)
	Replace(entries []blockcache.Entry) error
}

// Server is the remote blocks API
type Server interface {
	Block(ctx context.Context, in bdom.BlockInput) (bdom.BlockOutput, error)
	Unblock(ctx context.Context, number string) (bdom.UnblockOutput, error)
	ListBlocks(ctx context.Context) ([]bdom.Block, error)
}

// Outcome describes what happened on each side of a block
type Outcome struct {
	Number string `json:"number"`
	Synced bool   `json:"synced"`
	Nudged bool   `json:"nudged,omitempty"`
}

// UnsyncedError reports a change the device applied but the server did not.
// Retrying is safe because both sides are idempotent
type UnsyncedError struct {
	Op     string
	Number string
	Err    error
}

func (e *UnsyncedError) Error() string {
	return "blocksync: " + e.Op + " " + e.Number + " applied locally only: " + e.Err.Error()
}

func (e *UnsyncedError) Unwrap() error { return e.Err }

// IsUnsynced reports whether err left the local side applied
func IsUnsynced(err error) bool {
	var u *UnsyncedError
	return errors.As(err, &u)
}

// Syncer coordinates the two stores
type Syncer struct {
	local  Local
	server Server
}

// New builds a Syncer
func New(local Local, server Server) *Syncer {
	if local == nil || server == nil {
		panic("blocksync: nil dependency")
	}
	return &Syncer{local: local, server: server}
}

// Block takes effect locally before the server is called. A server failure
// keeps the local block and returns the outcome with an *UnsyncedError
func (s *Syncer) Block(ctx context.Context, raw, reason string, alsoReport bool) (Outcome, error) {
	key, err := normalize.Key(raw)
	if err != nil {
		return Outcome{}, err
	}
	log := logger.C(ctx)
	if err := s.local.Add(key, reason); err != nil {
		log.Warn().Err(err).Str("number", key).Msg("local block not persisted")
	}

	out, err := s.server.Block(ctx, bdom.BlockInput{Number: key, Reason: reason, AlsoReport: alsoReport})
	if err != nil {
		log.Warn().Err(err).Str("number", key).Msg("server block failed, local block kept")
		return Outcome{Number: key}, &UnsyncedError{Op: "block", Number: key, Err: err}
	}
	return Outcome{Number: key, Synced: true, Nudged: out.Nudged}, nil
}

// Unblock removes the local block whatever the server says. A server failure
// comes back as an *UnsyncedError
func (s *Syncer) Unblock(ctx context.Context, raw string) (Outcome, error) {
	key, err := normalize.Key(raw)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := s.local.Remove(key); err != nil {
		logger.C(ctx).Warn().Err(err).Str("number", key).Msg("local unblock not persisted")
	}
	if _, err := s.server.Unblock(ctx, key); err != nil {
		return Outcome{Number: key}, &UnsyncedError{Op: "unblock", Number: key, Err: err}
	}
	return Outcome{Number: key, Synced: true}, nil
}

// Reconcile replaces the local cache with the server's list
func (s *Syncer) Reconcile(ctx context.Context) (int, error) {
	items, err := s.server.ListBlocks(ctx)
	if err != nil {
		return 0, err
	}
	entries := make([]blockcache.Entry, 0, len(items))
	for _, b := range items {
		entries = append(entries, blockcache.Entry{Number: b.Number, Reason: b.Reason, CreatedAt: b.CreatedAt})
	}
	if err := s.local.Replace(entries); err != nil {
		return 0, err
	}
	logger.C(ctx).Debug().Int("blocks", len(entries)).Msg("block list reconciled")
	return len(entries), nil
}
