package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/net/middleware"
)

// CommonStack is the middleware every /api scope runs
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(500 * time.Millisecond),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.RedirectSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Auth is the auth middleware writing rejections through the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// Protected mounts fn's routes behind bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(Auth(p))
		fn(g)
	})
}

// MountAPIV1 mounts a /api/v1 scope with mw applied, then lets mount register on it
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}
