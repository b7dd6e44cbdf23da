// Package domain holds the reputation types, DTOs and ports
package domain

import (
	"time"

	"callerid/internal/core/names"
	perr "callerid/internal/platform/errors"
)

// ResultType classifies an identification
type ResultType string

// Identification outcomes, first match wins in this order
const (
	TypeSpam    ResultType = "SPAM"
	TypeUser    ResultType = "USER"
	TypePrivate ResultType = "PRIVATE"
	TypeCrowd   ResultType = "CROWD"
	TypeUnknown ResultType = "UNKNOWN"
)

// SpamFallbackName is shown for spam numbers nobody has named
const SpamFallbackName = "Likely Spam"

// ErrDuplicateVote is returned when a reporter already holds a vote on a number
var ErrDuplicateVote = perr.New(perr.ErrorCodeDuplicateKey, "already reported")

// Record is the canonical per-number aggregate
type Record struct {
	Number     string           `json:"number"`
	LikelyName string           `json:"likely_name,omitempty"`
	Variations names.Variations `json:"name_variations"`
	SpamScore  int              `json:"spam_score"`
	VoteCount  int              `json:"vote_count"`
	// BlockBonus accumulates block nudges; it is not a vote
	BlockBonus int `json:"block_bonus"`
	// ManualScore is a curated override that wins when higher than the computed score
	ManualScore *int      `json:"manual_score,omitempty"`
	Tags        []string  `json:"tags"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasTag reports whether tag is already in the set
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Vote is one ledger entry; at most one per (number, reporter)
type Vote struct {
	ID         string
	Number     string
	ReporterID string
	Tag        string
	Comment    string
	Location   string
	CreatedAt  time.Time
}

// Sighting is a single candidate name reported by a contact sync
type Sighting struct {
	Number string
	Name   string
}
