package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/infrastructure"
)

func newTestRouter(t *testing.T) (http.Handler, *infrastructure.Infrastructure) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","data":[]}`)
	}))
	t.Cleanup(upstream.Close)

	t.Chdir(t.TempDir())
	t.Setenv("SETU_BACKEND_BASE_URL", upstream.URL)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}

	infra, err := infrastructure.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}
	t.Cleanup(func() { infra.Lifecycle.Shutdown(time.Second) })

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("modules: %v", err)
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)
	return router, infra
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNativeRoutes(t *testing.T) {
	router, infra := newTestRouter(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"healthz", "/healthz", http.StatusOK, `"ok"`},
		{"readyz before startup", "/readyz", http.StatusServiceUnavailable, "not ready"},
		{"root redirect", "/", http.StatusFound, ""},
		{"unknown path", "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target)
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	if loc := serve(router, http.MethodGet, "/").Header().Get("Location"); loc != "/app/analytics" {
		t.Errorf("redirect location: got %s, want /app/analytics", loc)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		t.Fatalf("startup: %v", err)
	}

	if rec := serve(router, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz after startup: got %d, want 200", rec.Code)
	}
}

func TestModulesMounted(t *testing.T) {
	router, _ := newTestRouter(t)

	if rec := serve(router, http.MethodGet, "/api/filters"); rec.Code != http.StatusOK {
		t.Errorf("api filters: got %d, want 200", rec.Code)
	}

	rec := serve(router, http.MethodGet, "/app/analytics")
	if rec.Code != http.StatusOK {
		t.Fatalf("app analytics: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Carbon Setu") {
		t.Error("app page missing layout")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	serve(router, http.MethodGet, "/api/filters")

	rec := serve(router, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `setu_http_requests_total{method="GET",module="api",status="200"} 1`) {
		t.Errorf("metrics missing api request counter:\n%s", rec.Body.String())
	}
}
