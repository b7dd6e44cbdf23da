// Package domain defines the contact name sync queue ports
package domain

import (
	"context"

	rdom "callerid/internal/services/api/reputation/domain"
)

// Sighting is one candidate name for a normalized number
type Sighting = rdom.Sighting

// EnqueuePort accepts sightings without blocking and returns how many were queued
type EnqueuePort interface {
	Enqueue(ctx context.Context, batch []Sighting) int
}

// WorkerPort drains the queue into apply until ctx ends
type WorkerPort interface {
	Run(ctx context.Context, apply rdom.SightingPort) error
}
