// Package http provides http transport for blocks
package http

import (
	stdhttp "net/http"

	"callerid/internal/modkit/httpkit"
	"callerid/internal/platform/net/middleware"
	"callerid/internal/services/api/blocks/domain"
)

// Register mounts the router; every route needs a bearer identity
func Register(r httpkit.Router, s domain.ServicePort, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostValid[domain.BlockInput](pr, "/", h.block)
		httpkit.Get(pr, "/", h.list)
		httpkit.Delete(pr, "/{number}", h.unblock)
	})
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /blocks Blocks block
// @Summary Block a number for the caller
// @Tags blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.BlockInput true "Block"
// @Success 200 {object} domain.BlockOutput "ok"
// @Router /blocks [post]
func (h *handlers) block(r *stdhttp.Request, in domain.BlockInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	in.OwnerID = uid
	return h.svc.Block(r.Context(), in)
}

// swagger:route DELETE /blocks/{number} Blocks unblock
// @Summary Unblock a number for the caller
// @Tags blocks
// @Produce json
// @Security BearerAuth
// @Param number path string true "Phone number"
// @Success 200 {object} domain.UnblockOutput "ok"
// @Failure 404 {object} httpkit.Envelope "not blocked"
// @Router /blocks/{number} [delete]
func (h *handlers) unblock(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	n, err := httpkit.Param(r, "number")
	if err != nil {
		return nil, err
	}
	return h.svc.Unblock(r.Context(), domain.UnblockInput{Number: n, OwnerID: uid})
}

// swagger:route GET /blocks Blocks list
// @Summary List the caller's blocked numbers
// @Tags blocks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.ListOutput "ok"
// @Router /blocks [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), uid)
}
