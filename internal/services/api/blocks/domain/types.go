// Package domain holds block relation types, DTOs and ports
package domain

import (
	"context"
	"time"

	perr "callerid/internal/platform/errors"
)

// ErrNotBlocked is returned when unblocking a number that is not blocked
var ErrNotBlocked = perr.New(perr.ErrorCodeNotFound, "not blocked")

// Block is one private (owner, number) relation
type Block struct {
	OwnerID   string    `json:"-"`
	Number    string    `json:"number" example:"9876543210"`
	Reason    string    `json:"reason,omitempty" example:"robocall"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockInput blocks a number for the caller. AlsoReport adds a small score nudge
type BlockInput struct {
	Number     string `json:"number" validate:"required,max=64" example:"9876543210"`
	Reason     string `json:"reason,omitempty" validate:"omitempty,max=200"`
	AlsoReport bool   `json:"also_report"`
	OwnerID    string `json:"-"`
}

// BlockOutput reports the block; Nudged is true when the score was raised
type BlockOutput struct {
	Success bool `json:"success"`
	Nudged  bool `json:"nudged,omitempty"`
}

// UnblockInput removes a block for the caller
type UnblockInput struct {
	Number  string
	OwnerID string
}

// UnblockOutput reports the unblock
type UnblockOutput struct {
	Success bool `json:"success"`
}

// ListOutput is the caller's full block list
type ListOutput struct {
	Items []Block `json:"items"`
}

// ServicePort is the block service surface
type ServicePort interface {
	Block(ctx context.Context, in BlockInput) (BlockOutput, error)
	Unblock(ctx context.Context, in UnblockInput) (UnblockOutput, error)
	List(ctx context.Context, ownerID string) (ListOutput, error)
}

// NudgePort raises a number's reputation score without casting a vote
type NudgePort interface {
	Nudge(ctx context.Context, number string) (int, error)
}

// ActivityPort receives best-effort mutation events
type ActivityPort interface {
	Record(ctx context.Context, kind, number, actor, detail string)
}

// Repo is the persistence surface for block relations
type Repo interface {
	// Upsert returns true when the relation was created, false when it already existed
	Upsert(ctx context.Context, b Block) (bool, error)
	// Delete returns false when no relation existed
	Delete(ctx context.Context, ownerID, number string) (bool, error)
	List(ctx context.Context, ownerID string) ([]Block, error)
	// ClaimNudge records that owner has nudged number. It returns false when the
	// claim already exists. Claims outlive unblock
	ClaimNudge(ctx context.Context, ownerID, number string) (bool, error)
	// ReleaseNudge drops a claim whose nudge did not land
	ReleaseNudge(ctx context.Context, ownerID, number string) error
}
