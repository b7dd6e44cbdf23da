package middleware

import (
	"net/http"

	pnet "callerid/internal/platform/net"
)

// AuthPort resolves the caller behind a request
type AuthPort interface {
	// Parse returns a user id and device id from the request or an error
	Parse(r *http.Request) (userID string, deviceID string, err error)
}

// Auth rejects requests the port cannot resolve and stores the identity on
// the context for the rest. A nil port lets everything through
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, did, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Failure(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithIdentity(r.Context(), uid, did)))
		})
	}
}
