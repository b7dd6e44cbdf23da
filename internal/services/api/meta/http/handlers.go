// Package http serves the meta endpoints: liveness, readiness against the
// backends, build info and the scoring policy in effect
package http

import (
	"context"
	"net/http"
	"time"

	"callerid/internal/core/scoring"
	"callerid/internal/core/version"
	"callerid/internal/modkit/httpkit"
)

// Pinger is implemented by backends that can report readiness
type Pinger interface {
	Ping(context.Context) error
}

// Deps are what the handlers report on. PG and CH may be nil or not pingable
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Policy      scoring.Policy
}

// ReadyTimeout bounds each readiness ping
const ReadyTimeout = 2 * time.Second

// Register mounts the meta routes on r
func Register(r httpkit.Router, d Deps) {
	if d.Policy == (scoring.Policy{}) {
		d.Policy = scoring.Default()
	}
	h := handlers(d)

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/policy", h.policy)
}

type handlers Deps

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"callerid-api"`
	Started string `json:"started" example:"2025-09-03T13:00:00Z"`
	Now     string `json:"now"     example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck is one backend's result: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok when every check is, fail when any failed, otherwise degraded
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse reports uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name"    example:"callerid-api"`
	Started string `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// PolicyResponse is the scoring policy and the build serving it
type PolicyResponse struct {
	SpamThreshold int               `json:"spam_threshold" example:"50"`
	SpamCutoff    int               `json:"spam_cutoff"    example:"80"`
	BlockNudge    int               `json:"block_nudge"    example:"5"`
	Build         version.BuildInfo `json:"build"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// @Summary Liveness
// @Tags Meta
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.ServiceName, Started: stamp(h.StartedAt), Now: stamp(time.Now())}, nil
}

// @Summary Readiness with backend pings
// @Tags Meta
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h handlers) ready(r *http.Request) (any, error) {
	checks := []ReadyCheck{probe(r.Context(), "pg", h.PG), probe(r.Context(), "ch", h.CH)}

	status := "ok"
	for _, c := range checks {
		switch {
		case c.Status == "fail":
			status = "fail"
		case c.Status != "ok" && status == "ok":
			status = "degraded"
		}
	}
	return ReadyResponse{Status: status, Checks: checks, Now: stamp(time.Now())}, nil
}

func probe(ctx context.Context, name string, backend any) ReadyCheck {
	if backend == nil {
		return ReadyCheck{Name: name, Status: "skipped"}
	}
	p, ok := backend.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: "unknown"}
	}
	ctx, cancel := context.WithTimeout(ctx, ReadyTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: "ok"}
}

// @Summary Build info
// @Tags Meta
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h handlers) version(*http.Request) (any, error) {
	return version.Info(h.ServiceName), nil
}

// @Summary Service uptime
// @Tags Meta
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.ServiceName,
		Started: stamp(h.StartedAt),
		Uptime:  int64(time.Since(h.StartedAt) / time.Second),
	}, nil
}

// @Summary Scoring policy
// @Tags Meta
// @Success 200 {object} PolicyResponse
// @Router /meta/policy [get]
func (h handlers) policy(*http.Request) (any, error) {
	return PolicyResponse{
		SpamThreshold: h.Policy.Threshold,
		SpamCutoff:    h.Policy.Cutoff,
		BlockNudge:    h.Policy.BlockNudge,
		Build:         version.Info(h.ServiceName),
	}, nil
}
