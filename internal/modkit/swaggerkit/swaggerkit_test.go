package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "callerid/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestMount(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json status = %d", rec.Code)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Servers    []struct{ URL string } `json:"servers"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.OpenAPI != "3.0.3" || doc.Info.Title != "Caller ID API" {
		t.Fatalf("doc = %+v", doc)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/api/v1" {
		t.Fatalf("servers = %+v", doc.Servers)
	}
	if _, ok := doc.Components.Schemas["ErrorResponse"]; !ok {
		t.Fatalf("ErrorResponse schema missing: %v", doc.Components.Schemas)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect status = %d", rec.Code)
	}
}

func TestMount_Disabled(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMount_UnparsableDoc(t *testing.T) {
	prev := docReader
	docReader = func() string { return "{" }
	t.Cleanup(func() { docReader = prev })

	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		openapi string
	}{
		{"swagger 2", `{"swagger":"2.0","paths":{}}`, "3.0.3"},
		{"oas 3.1", `{"openapi":"3.1.0","paths":{}}`, "3.0.3"},
		{"oas 3.0", `{"openapi":"3.0.1","paths":{}}`, "3.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec map[string]any
			if err := json.Unmarshal([]byte(tt.in), &spec); err != nil {
				t.Fatal(err)
			}
			shape(spec)
			if spec["openapi"] != tt.openapi {
				t.Fatalf("openapi = %v", spec["openapi"])
			}
			if _, ok := spec["swagger"]; ok {
				t.Fatal("swagger key kept")
			}
		})
	}
}

func TestShape_DefaultRepliesKeepDocumentedOnes(t *testing.T) {
	var spec map[string]any
	in := `{"openapi":"3.1.0","paths":{"/blocks":{"post":{"responses":{"400":{"description":"bad number"}}}}}}`
	if err := json.Unmarshal([]byte(in), &spec); err != nil {
		t.Fatal(err)
	}
	shape(spec)

	resps := spec["paths"].(map[string]any)["/blocks"].(map[string]any)["post"].(map[string]any)["responses"].(map[string]any)
	if d := resps["400"].(map[string]any)["description"]; d != "bad number" {
		t.Fatalf("400 overwritten: %v", d)
	}
	if d := resps["500"].(map[string]any)["description"]; d != "Internal Server Error" {
		t.Fatalf("500 = %v", d)
	}
}
