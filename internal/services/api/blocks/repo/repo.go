// Package repo provides Postgres and in-memory bindings for block relations
package repo

import (
	"context"
	"time"

	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/store"
	"callerid/internal/services/api/blocks/domain"
)

// Schema is the DDL for block relations
const Schema = `
CREATE TABLE IF NOT EXISTS block_relations (
	owner_id     TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner_id, phone_number)
);

CREATE TABLE IF NOT EXISTS block_nudges (
	owner_id     TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (owner_id, phone_number)
);
`

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

// Upsert inserts the relation; an existing one is left untouched
func (r *queries) Upsert(ctx context.Context, b domain.Block) (bool, error) {
	const sql = `
		INSERT INTO block_relations (owner_id, phone_number, reason, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, phone_number) DO NOTHING
	`
	at := b.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	n, err := store.Affected(ctx, r.q, sql, b.OwnerID, b.Number, b.Reason, at)
	return n == 1, err
}

// Delete removes the relation
func (r *queries) Delete(ctx context.Context, ownerID, number string) (bool, error) {
	const sql = `DELETE FROM block_relations WHERE owner_id = $1 AND phone_number = $2`
	n, err := store.Affected(ctx, r.q, sql, ownerID, number)
	return n > 0, err
}

// List returns the owner's relations, newest first
func (r *queries) List(ctx context.Context, ownerID string) ([]domain.Block, error) {
	const sql = `
		SELECT owner_id, phone_number, reason, created_at
		FROM block_relations
		WHERE owner_id = $1
		ORDER BY created_at DESC, phone_number
	`
	return store.Many(ctx, r.q, func(row store.Row) (domain.Block, error) {
		var b domain.Block
		err := row.Scan(&b.OwnerID, &b.Number, &b.Reason, &b.CreatedAt)
		return b, err
	}, sql, ownerID)
}

// ClaimNudge inserts the owner's one nudge for number
func (r *queries) ClaimNudge(ctx context.Context, ownerID, number string) (bool, error) {
	const sql = `
		INSERT INTO block_nudges (owner_id, phone_number)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, phone_number) DO NOTHING
	`
	n, err := store.Affected(ctx, r.q, sql, ownerID, number)
	return n == 1, err
}

// ReleaseNudge deletes the claim
func (r *queries) ReleaseNudge(ctx context.Context, ownerID, number string) error {
	const sql = `DELETE FROM block_nudges WHERE owner_id = $1 AND phone_number = $2`
	_, err := store.Affected(ctx, r.q, sql, ownerID, number)
	return err
}
