// Package domain defines registered identities: opted-in users who own a phone number
package domain

import (
	"context"
	"time"
)

// Identity is a registered, opted-in user bound to one normalized number.
// The table is owned by the identity provider; the engine only reads it
type Identity struct {
	UserID       string    `json:"user_id"`
	Number       string    `json:"number"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	HideCallerID bool      `json:"hide_caller_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LookupPort resolves a normalized number to a registered identity
type LookupPort interface {
	ByNumber(ctx context.Context, number string) (Identity, bool, error)
}

// Repo is the persistence surface
type Repo interface {
	// ByNumber returns perr.ErrNotFound when no identity owns number
	ByNumber(ctx context.Context, number string) (Identity, error)
	// Upsert inserts or replaces the identity keyed by user id
	Upsert(ctx context.Context, id Identity) error
}
