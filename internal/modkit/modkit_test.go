package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"callerid/internal/modkit/httpkit"
	phttp "callerid/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type lookupPorts struct{ Source string }

func TestBuild_OptionsApplyInOrder(t *testing.T) {
	b := Build(
		WithName("reputation"),
		WithPrefix("/reputation"),
		WithPorts(lookupPorts{Source: "first"}),
		WithPrefix("/rep"),
		WithPorts(lookupPorts{Source: "second"}),
	)
	if b.Name != "reputation" || b.Prefix != "/rep" {
		t.Fatalf("built = %+v", b)
	}
	if p, ok := b.Ports.(lookupPorts); !ok || p.Source != "second" {
		t.Fatalf("ports = %#v", b.Ports)
	}
	if Build().Ports != nil {
		t.Fatal("zero build should carry no ports")
	}
}

func TestBuilt_Mount(t *testing.T) {
	var seen []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	b := Build(WithPrefix("/blocks"), WithMiddlewares(tag("a")), WithMiddlewares(tag("b")))

	mux := chi.NewRouter()
	b.Mount(phttp.AdaptChi(mux), func(r httpkit.Router) {
		httpkit.Get(r, "/", func(*http.Request) (any, error) { return []string{}, nil })
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blocks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("middleware order = %v", seen)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reputation", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unmounted prefix status = %d", rec.Code)
	}
}
