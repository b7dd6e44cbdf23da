package domain

import (
	"context"

	identdom "callerid/internal/services/ident/domain"
)

// ServicePort is the reputation service surface
type ServicePort interface {
	Identify(ctx context.Context, in IdentifyInput) (Identification, error)
	Report(ctx context.Context, in ReportInput) (ReportOutput, error)
	Retract(ctx context.Context, in RetractInput) (RetractOutput, error)
	SyncContactNames(ctx context.Context, in SyncInput) (SyncOutput, error)
	Record(ctx context.Context, number string) (Record, error)
	Curate(ctx context.Context, in CurateInput) (Record, error)
}

// NudgePort lets the block flow raise a score without casting a vote
type NudgePort interface {
	Nudge(ctx context.Context, number string) (int, error)
}

// SightingPort applies a batch of name sightings
type SightingPort interface {
	ApplySightings(ctx context.Context, batch []Sighting) (int, error)
}

// EnqueuePort accepts sightings for asynchronous processing and returns how many were queued
type EnqueuePort interface {
	Enqueue(ctx context.Context, batch []Sighting) int
}

// ActivityPort receives best-effort mutation events
type ActivityPort interface {
	Record(ctx context.Context, kind, number, actor, detail string)
}

// IdentityLookup is the registered identity collaborator
type IdentityLookup = identdom.LookupPort

// Repo is the persistence surface for records and the vote ledger
type Repo interface {
	// Get returns perr.ErrNotFound when no record exists
	Get(ctx context.Context, number string) (Record, error)
	// Ensure creates an empty record when none exists
	Ensure(ctx context.Context, number string) error
	// Lock reads a record for update inside a transaction; perr.ErrNotFound when absent
	Lock(ctx context.Context, number string) (Record, error)
	// Save persists every field except ManualScore
	Save(ctx context.Context, rec Record) error
	// SetManualScore writes or clears the curated score
	SetManualScore(ctx context.Context, number string, score *int) error

	// InsertVote returns false when the reporter already voted on the number
	InsertVote(ctx context.Context, v Vote) (bool, error)
	// DeleteVote returns false when there was nothing to delete
	DeleteVote(ctx context.Context, number, reporterID string) (bool, error)
	CountVotes(ctx context.Context, number string) (int, error)
}
