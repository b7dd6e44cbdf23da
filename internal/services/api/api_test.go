package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"callerid/internal/modkit/httpkit"
	"callerid/internal/platform/config"
	"callerid/internal/platform/metrics"
	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// mountInMemory mounts the API the way cmd/callerid-api does and runs its
// workers until the test ends
func mountInMemory(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("REPUTATION_STORE", "memory")

	opt := FromConfig(config.New())
	opt.Metrics = metrics.New(prometheus.NewRegistry())
	opt.Auth = httpkit.NewPortFunc(func(tok string) (string, string, error) {
		return tok, "", nil
	})

	mux := chi.NewMux()
	bg := Mount(phttp.AdaptChi(mux), opt)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bg.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return mux
}

func TestMount_EndToEndInMemory(t *testing.T) {
	t.Setenv("NAMESYNC_FLUSH_EVERY", "5ms")
	mux := mountInMemory(t)

	w := call(t, mux, http.MethodPost, "/api/v1/reputation/contacts/sync", "alice",
		`{"entries":[{"number":"+1 987 654 3210","name":"Jon"},{"number":"9876543210","name":"Jon"}]}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":2`) {
		t.Fatalf("sync: %d %s", w.Code, w.Body.String())
	}

	testkit.Eventually(t, 2*time.Second, func() bool {
		w := call(t, mux, http.MethodPost, "/api/v1/reputation/identify", "", `{"number":"9876543210"}`)
		return strings.Contains(w.Body.String(), `"CROWD"`) && strings.Contains(w.Body.String(), `"Jon"`)
	})

	w = call(t, mux, http.MethodPost, "/api/v1/blocks", "alice", `{"number":"9876543210","also_report":true}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"nudged":true`) {
		t.Fatalf("block: %d %s", w.Code, w.Body.String())
	}
	w = call(t, mux, http.MethodGet, "/api/v1/reputation/9876543210", "", "")
	if !strings.Contains(w.Body.String(), `"spam_score":5`) {
		t.Fatalf("record after nudge: %s", w.Body.String())
	}

	w = call(t, mux, http.MethodGet, "/api/v1/blocks", "alice", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"9876543210"`) {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	w = call(t, mux, http.MethodDelete, "/api/v1/blocks/9876543210", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unblock: %d %s", w.Code, w.Body.String())
	}
	w = call(t, mux, http.MethodDelete, "/api/v1/blocks/9876543210", "alice", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second unblock: %d %s", w.Code, w.Body.String())
	}

	for _, path := range []string{"/api/v1/meta/health", "/health", "/metrics"} {
		if w := call(t, mux, http.MethodGet, path, "", ""); w.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}
}

func TestMount_ModulesReadRootKeys(t *testing.T) {
	t.Setenv("REPUTATION_CURATORS", "admin")
	t.Setenv("REPUTATION_SPAM_THRESHOLD", "5")
	t.Setenv("CORE_API_REPUTATION_SPAM_THRESHOLD", "99")
	mux := mountInMemory(t)

	w := call(t, mux, http.MethodGet, "/api/v1/meta/policy", "", "")
	if !strings.Contains(w.Body.String(), `"spam_threshold":5`) {
		t.Fatalf("policy: %s", w.Body.String())
	}

	w = call(t, mux, http.MethodPost, "/api/v1/reputation/curate", "admin", `{"number":"9876543210","score":90}`)
	if w.Code != http.StatusOK {
		t.Fatalf("curate as admin: %d %s", w.Code, w.Body.String())
	}
	w = call(t, mux, http.MethodPost, "/api/v1/reputation/curate", "mallory", `{"number":"9876543210","score":0}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("curate as non-curator: %d %s", w.Code, w.Body.String())
	}
}

func TestMount_BlockCyclesNudgeOnce(t *testing.T) {
	mux := mountInMemory(t)

	for i := 0; i < 16; i++ {
		w := call(t, mux, http.MethodPost, "/api/v1/blocks", "mallory", `{"number":"9876543210","also_report":true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("block #%d: %d %s", i, w.Code, w.Body.String())
		}
		if w = call(t, mux, http.MethodDelete, "/api/v1/blocks/9876543210", "mallory", ""); w.Code != http.StatusOK {
			t.Fatalf("unblock #%d: %d %s", i, w.Code, w.Body.String())
		}
	}

	w := call(t, mux, http.MethodGet, "/api/v1/reputation/9876543210", "", "")
	if !strings.Contains(w.Body.String(), `"block_bonus":5`) || !strings.Contains(w.Body.String(), `"spam_score":5`) {
		t.Fatalf("record after cycles: %s", w.Body.String())
	}
	w = call(t, mux, http.MethodPost, "/api/v1/reputation/identify", "", `{"number":"9876543210"}`)
	if strings.Contains(w.Body.String(), `"SPAM"`) {
		t.Fatalf("identify: %s", w.Body.String())
	}
}
