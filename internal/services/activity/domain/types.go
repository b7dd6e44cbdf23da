// Package domain defines the mutation activity log
package domain

import (
	"context"
	"time"
)

// Table is the ClickHouse table events land in
const Table = "reputation_activity"

// Schema is the ClickHouse DDL for Table. Column order matches Event.Row
const Schema = `
CREATE TABLE IF NOT EXISTS reputation_activity (
	id           UUID,
	at           DateTime64(3, 'UTC'),
	kind         LowCardinality(String),
	phone_number String,
	actor        String,
	detail       String
) ENGINE = MergeTree
ORDER BY (phone_number, at)
TTL toDateTime(at) + INTERVAL 180 DAY`

// Event is one vote, retract, block or curation
type Event struct {
	ID     string
	At     time.Time
	Kind   string
	Number string
	Actor  string
	Detail string
}

// Row flattens e in table column order
func (e Event) Row() []any {
	return []any{e.ID, e.At, e.Kind, e.Number, e.Actor, e.Detail}
}

// RecorderPort accepts events without blocking the caller
type RecorderPort interface {
	Record(ctx context.Context, kind, number, actor, detail string)
}

// WorkerPort ships recorded events until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}
