package httpkit

import (
	"net/http"
	"strings"

	perr "callerid/internal/platform/errors"
)

// TokenFunc turns a raw bearer token into a user id and device id
type TokenFunc func(token string) (userID string, deviceID string, err error)

// Port implements middleware.AuthPort over the Authorization header
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a token parser
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse reads a case-insensitive "Bearer <token>" header. Any parser failure
// is reported as unauthorized without detail
func (p *Port) Parse(r *http.Request) (string, string, error) {
	scheme, raw, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	raw = strings.TrimSpace(raw)
	if !strings.EqualFold(scheme, "bearer") || raw == "" {
		return "", "", perr.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	uid, did, err := p.parse(raw)
	if err != nil || uid == "" {
		return "", "", perr.Unauthorizedf("invalid bearer token")
	}
	return uid, did, nil
}
