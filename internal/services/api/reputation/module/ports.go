package module

import (
	"context"

	"callerid/internal/platform/net/middleware"
	"callerid/internal/services/api/reputation/domain"
	rsvc "callerid/internal/services/api/reputation/service"
)

// Ports declares what other modules may inject
type Ports struct {
	// Enqueuer receives contact name sightings; nil applies them inline
	Enqueuer domain.EnqueuePort
	// Activity receives mutation events; optional
	Activity domain.ActivityPort
	// Identities overrides the registered identity lookup
	Identities domain.IdentityLookup
	// Auth parses bearer identities for write routes
	Auth middleware.AuthPort
}

// Exposed is the port set this module offers
type Exposed struct {
	Nudger    domain.NudgePort
	Sightings domain.SightingPort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptNudgePort struct{ svc rsvc.Service }

func (a adaptNudgePort) Nudge(ctx context.Context, number string) (int, error) {
	return a.svc.Nudge(ctx, number)
}

type adaptSightingPort struct{ svc rsvc.Service }

func (a adaptSightingPort) ApplySightings(ctx context.Context, batch []domain.Sighting) (int, error) {
	return a.svc.ApplySightings(ctx, batch)
}
