// Package http provides http transport for reputation
package http

import (
	stdhttp "net/http"

	"callerid/internal/modkit/httpkit"
	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/net/middleware"
	"callerid/internal/services/api/reputation/domain"
)

// Register mounts the router. Writes require a bearer identity from auth and
// curation is limited to the curators user ids
func Register(r httpkit.Router, s domain.ServicePort, auth middleware.AuthPort, curators []string) {
	h := &handlers{svc: s, curators: make(map[string]struct{}, len(curators))}
	for _, c := range curators {
		h.curators[c] = struct{}{}
	}
	httpkit.PostValid[domain.IdentifyInput](r, "/identify", h.identify)
	httpkit.Get(r, "/{number}", h.record)

	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostValid[domain.ReportInput](pr, "/report", h.report)
		httpkit.PostValid[domain.RetractInput](pr, "/retract", h.retract)
		httpkit.PostValid[domain.SyncInput](pr, "/contacts/sync", h.syncContacts)
		httpkit.PostValid[domain.CurateInput](pr, "/curate", h.curate)
	})
}

type handlers struct {
	svc      domain.ServicePort
	curators map[string]struct{}
}

// swagger:route POST /reputation/identify Reputation identify
// @Summary Identify a phone number
// @Tags reputation
// @Accept json
// @Produce json
// @Param payload body domain.IdentifyInput true "Identify"
// @Success 200 {object} domain.Identification "ok"
// @Failure 422 {object} httpkit.Envelope "invalid number"
// @Router /reputation/identify [post]
func (h *handlers) identify(r *stdhttp.Request, in domain.IdentifyInput) (any, error) {
	return h.svc.Identify(r.Context(), in)
}

// swagger:route POST /reputation/report Reputation report
// @Summary Report a number as spam
// @Tags reputation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.ReportInput true "Report"
// @Success 200 {object} domain.ReportOutput "ok"
// @Failure 409 {object} httpkit.Envelope "already reported"
// @Router /reputation/report [post]
func (h *handlers) report(r *stdhttp.Request, in domain.ReportInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	in.ReporterID = uid
	return h.svc.Report(r.Context(), in)
}

// swagger:route POST /reputation/retract Reputation retract
// @Summary Retract the caller's spam vote
// @Tags reputation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.RetractInput true "Retract"
// @Success 200 {object} domain.RetractOutput "ok"
// @Router /reputation/retract [post]
func (h *handlers) retract(r *stdhttp.Request, in domain.RetractInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	in.ReporterID = uid
	return h.svc.Retract(r.Context(), in)
}

// swagger:route POST /reputation/contacts/sync Reputation syncContacts
// @Summary Upload contact names for plurality name resolution
// @Tags reputation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.SyncInput true "Entries"
// @Success 200 {object} domain.SyncOutput "accepted"
// @Router /reputation/contacts/sync [post]
func (h *handlers) syncContacts(r *stdhttp.Request, in domain.SyncInput) (any, error) {
	return h.svc.SyncContactNames(r.Context(), in)
}

// swagger:route POST /reputation/curate Reputation curate
// @Summary Set or clear a curated spam score
// @Tags reputation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.CurateInput true "Curate"
// @Success 200 {object} domain.Record "ok"
// @Failure 403 {object} httpkit.Envelope "not a curator"
// @Router /reputation/curate [post]
func (h *handlers) curate(r *stdhttp.Request, in domain.CurateInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	if _, ok := h.curators[uid]; !ok {
		return nil, perr.Forbiddenf("curation not allowed")
	}
	return h.svc.Curate(r.Context(), in)
}

// swagger:route GET /reputation/{number} Reputation record
// @Summary Full reputation record
// @Tags reputation
// @Produce json
// @Param number path string true "Phone number"
// @Success 200 {object} domain.Record "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /reputation/{number} [get]
func (h *handlers) record(r *stdhttp.Request) (any, error) {
	n, err := httpkit.Param(r, "number")
	if err != nil {
		return nil, err
	}
	return h.svc.Record(r.Context(), n)
}
