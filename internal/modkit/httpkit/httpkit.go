// Package httpkit is what service modules mount routes with. It re-exports the
// platform router and adds the small request helpers handlers share
package httpkit

import (
	"net/http"
	"strings"

	perr "callerid/internal/platform/errors"
	pnet "callerid/internal/platform/net"
	phttp "callerid/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type (
	// Envelope is the response body every route writes
	Envelope = phttp.Envelope

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// Get mounts a body-less handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.NoBody(h))
}

// Delete mounts a body-less handler under DELETE
func Delete(r Router, path string, h func(*http.Request) (any, error)) {
	r.Delete(path, phttp.NoBody(h))
}

// PostValid mounts a POST handler that binds and validates T first
func PostValid[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

// Param returns a trimmed path parameter or an invalid argument error when it is empty
func Param(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", perr.WithField(perr.InvalidArgf("missing path parameter %s", name), name)
	}
	return v, nil
}

// User returns the authenticated user id or unauthorized
func User(r *http.Request) (string, error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return uid, nil
}
