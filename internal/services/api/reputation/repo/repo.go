// Package repo provides Postgres and in-memory bindings for the reputation store
package repo

import (
	"context"
	"encoding/json"
	"time"

	"callerid/internal/core/names"
	"callerid/internal/modkit/repokit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/store"
	"callerid/internal/services/api/reputation/domain"
)

// VoteUniqueConstraint enforces one vote per (number, reporter)
const VoteUniqueConstraint = "spam_votes_number_reporter_key"

// Schema is the DDL for records and the vote ledger
const Schema = `
CREATE TABLE IF NOT EXISTS reputation_records (
	phone_number    TEXT PRIMARY KEY,
	likely_name     TEXT NOT NULL DEFAULT '',
	name_variations JSONB NOT NULL DEFAULT '[]'::jsonb,
	spam_score      INT NOT NULL DEFAULT 0 CHECK (spam_score BETWEEN 0 AND 100),
	vote_count      INT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
	block_bonus     INT NOT NULL DEFAULT 0 CHECK (block_bonus BETWEEN 0 AND 100),
	manual_score    INT CHECK (manual_score BETWEEN 0 AND 100),
	tags            TEXT[] NOT NULL DEFAULT '{}',
	location        TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS spam_votes (
	id           UUID PRIMARY KEY,
	phone_number TEXT NOT NULL,
	reporter_id  TEXT NOT NULL,
	tag          TEXT NOT NULL,
	comment      TEXT,
	location     TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT spam_votes_number_reporter_key UNIQUE (phone_number, reporter_id)
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

const recordColumns = `
	phone_number, likely_name, name_variations, spam_score, vote_count,
	block_bonus, manual_score, tags, location, created_at, updated_at`

func scanRecord(r store.Row) (domain.Record, error) {
	var (
		rec  domain.Record
		vars []byte
		loc  *string
	)
	if err := r.Scan(
		&rec.Number, &rec.LikelyName, &vars, &rec.SpamScore, &rec.VoteCount,
		&rec.BlockBonus, &rec.ManualScore, &rec.Tags, &loc, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return domain.Record{}, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &rec.Variations); err != nil {
			return domain.Record{}, perr.Wrap(err, perr.ErrorCodeDB, "decode name variations")
		}
	}
	if loc != nil {
		rec.Location = *loc
	}
	return rec, nil
}

// Get loads a record without locking
func (r *queries) Get(ctx context.Context, number string) (domain.Record, error) {
	sql := `SELECT ` + recordColumns + ` FROM reputation_records WHERE phone_number = $1`
	return store.One(ctx, r.q, scanRecord, sql, number)
}

// Ensure inserts an empty record when absent
func (r *queries) Ensure(ctx context.Context, number string) error {
	const sql = `
		INSERT INTO reputation_records (phone_number)
		VALUES ($1)
		ON CONFLICT (phone_number) DO NOTHING
	`
	_, err := r.q.Exec(ctx, sql, number)
	return err
}

// Lock loads a record with a row lock; callers must be inside a transaction
func (r *queries) Lock(ctx context.Context, number string) (domain.Record, error) {
	sql := `SELECT ` + recordColumns + ` FROM reputation_records WHERE phone_number = $1 FOR UPDATE`
	return store.One(ctx, r.q, scanRecord, sql, number)
}

// Save writes the mutable aggregate fields
func (r *queries) Save(ctx context.Context, rec domain.Record) error {
	const sql = `
		UPDATE reputation_records
		SET likely_name     = $2,
		    name_variations = $3::jsonb,
		    spam_score      = $4,
		    vote_count      = $5,
		    block_bonus     = $6,
		    tags            = $7,
		    location        = NULLIF($8, ''),
		    updated_at      = NOW()
		WHERE phone_number = $1
	`
	vars := rec.Variations
	if vars == nil {
		vars = names.Variations{}
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "encode name variations")
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return store.ExecOne(ctx, r.q, sql,
		rec.Number, rec.LikelyName, string(b), rec.SpamScore, rec.VoteCount, rec.BlockBonus, tags, rec.Location)
}

// SetManualScore writes or clears the curated score
func (r *queries) SetManualScore(ctx context.Context, number string, score *int) error {
	const sql = `
		UPDATE reputation_records
		SET manual_score = $2, updated_at = NOW()
		WHERE phone_number = $1
	`
	return store.ExecOne(ctx, r.q, sql, number, score)
}

// InsertVote appends to the ledger. The unique constraint decides duplicates
func (r *queries) InsertVote(ctx context.Context, v domain.Vote) (bool, error) {
	const sql = `
		INSERT INTO spam_votes (id, phone_number, reporter_id, tag, comment, location, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT ON CONSTRAINT spam_votes_number_reporter_key DO NOTHING
	`
	at := v.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	n, err := store.Affected(ctx, r.q, sql, v.ID, v.Number, v.ReporterID, v.Tag, v.Comment, v.Location, at)
	if perr.IsUniqueViolationOn(err, VoteUniqueConstraint) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteVote removes the reporter's vote if any
func (r *queries) DeleteVote(ctx context.Context, number, reporterID string) (bool, error) {
	const sql = `DELETE FROM spam_votes WHERE phone_number = $1 AND reporter_id = $2`
	n, err := store.Affected(ctx, r.q, sql, number, reporterID)
	return n > 0, err
}

// CountVotes counts the ledger for number
func (r *queries) CountVotes(ctx context.Context, number string) (int, error) {
	const sql = `SELECT COUNT(*)::int FROM spam_votes WHERE phone_number = $1`
	return store.Scalar[int](ctx, r.q, sql, number)
}
