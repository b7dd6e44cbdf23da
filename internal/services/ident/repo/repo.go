// Package repo provides Postgres and in-memory bindings for domain.Repo
package repo

import (
	"context"
	"time"

	"callerid/internal/modkit/repokit"
	"callerid/internal/platform/store"
	"callerid/internal/services/ident/domain"
)

// Schema is the DDL for the identity table. The identity provider normally owns it
const Schema = `
CREATE TABLE IF NOT EXISTS registered_identities (
	user_id        TEXT PRIMARY KEY,
	phone_number   TEXT NOT NULL UNIQUE,
	display_name   TEXT NOT NULL,
	photo_url      TEXT,
	hide_caller_id BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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

func scanIdentity(r store.Row) (domain.Identity, error) {
	var (
		id    domain.Identity
		photo *string
	)
	err := r.Scan(&id.UserID, &id.Number, &id.DisplayName, &photo, &id.HideCallerID, &id.UpdatedAt)
	if photo != nil {
		id.PhotoURL = *photo
	}
	return id, err
}

// ByNumber loads the identity owning number
func (r *queries) ByNumber(ctx context.Context, number string) (domain.Identity, error) {
	const sql = `
		SELECT user_id, phone_number, display_name, photo_url, hide_caller_id, updated_at
		FROM registered_identities
		WHERE phone_number = $1
	`
	return store.One(ctx, r.q, scanIdentity, sql, number)
}

// Upsert inserts or replaces an identity keyed by user id
func (r *queries) Upsert(ctx context.Context, id domain.Identity) error {
	const sql = `
		INSERT INTO registered_identities (user_id, phone_number, display_name, photo_url, hide_caller_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET phone_number   = EXCLUDED.phone_number,
		    display_name   = EXCLUDED.display_name,
		    photo_url      = EXCLUDED.photo_url,
		    hide_caller_id = EXCLUDED.hide_caller_id,
		    updated_at     = EXCLUDED.updated_at
	`
	at := id.UpdatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, sql, id.UserID, id.Number, id.DisplayName, nilIfEmpty(id.PhotoURL), id.HideCallerID, at)
	return err
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
