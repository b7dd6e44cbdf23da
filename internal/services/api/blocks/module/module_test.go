package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	modkit "callerid/internal/modkit"
	"callerid/internal/modkit/httpkit"
	"callerid/internal/platform/config"
	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

type countingNudger struct{ n int }

func (c *countingNudger) Nudge(context.Context, string) (int, error) { c.n++; return 5, nil }

func newRouter(t *testing.T, nudger *countingNudger) http.Handler {
	t.Helper()
	t.Setenv("REPUTATION_STORE", "memory")
	m := New(modkit.Deps{Cfg: config.New()}, modkit.WithPorts(Ports{
		Nudger: nudger,
		Auth: httpkit.NewPortFunc(func(tok string) (string, string, error) {
			return tok, "", nil
		}),
	}))
	mux := chi.NewMux()
	m.MountRoutes(phttp.AdaptChi(mux))
	return mux
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestBlocksOverHTTP(t *testing.T) {
	n := &countingNudger{}
	h := newRouter(t, n)

	if w := call(h, http.MethodGet, "/blocks/", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: %d", w.Code)
	}

	w := call(h, http.MethodPost, "/blocks/", "alice", `{"number":"987 654 3210","also_report":true}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"nudged":true`) {
		t.Fatalf("block: %d %s", w.Code, w.Body.String())
	}
	if n.n != 1 {
		t.Fatalf("nudges = %d", n.n)
	}

	w = call(h, http.MethodGet, "/blocks/", "alice", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"9876543210"`) {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}

	if w = call(h, http.MethodDelete, "/blocks/9876543210", "alice", ""); w.Code != http.StatusOK {
		t.Fatalf("unblock: %d %s", w.Code, w.Body.String())
	}
	if w = call(h, http.MethodDelete, "/blocks/9876543210", "alice", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second unblock: %d %s", w.Code, w.Body.String())
	}
}

func TestNew_RequiresNudger(t *testing.T) {
	testkit.MustPanic(t, func() { New(modkit.Deps{Cfg: config.New()}) })
}
