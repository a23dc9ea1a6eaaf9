package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

type stubProvider struct {
	prefix string
	routes []plugin.Route
}

func (s stubProvider) RoutePrefix() string    { return s.prefix }
func (s stubProvider) Routes() []plugin.Route { return s.routes }

func newTestServer(opts Options) *Server {
	opts.Addr = "127.0.0.1:0"
	return New(opts, zap.NewNop())
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(Options{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}
}

func TestHandleReadyz(t *testing.T) {
	tests := []struct {
		name  string
		ready ReadinessChecker
		want  int
	}{
		{name: "nil checker", ready: nil, want: http.StatusOK},
		{name: "healthy", ready: func(context.Context) error { return nil }, want: http.StatusOK},
		{name: "unhealthy", ready: func(context.Context) error { return errors.New("database locked") }, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(Options{Ready: tt.ready})

			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(Options{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Service != "moodwatch" {
		t.Errorf("service = %q, want moodwatch", body.Service)
	}
	if body.Version["version"] == "" {
		t.Error("expected version in health response")
	}
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(Options{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestProviderRoutes_Mounted(t *testing.T) {
	provider := stubProvider{
		prefix: "emergency",
		routes: []plugin.Route{{
			Method: http.MethodGet,
			Path:   "/status",
			Handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			},
		}},
	}
	srv := newTestServer(Options{Providers: []plugin.HTTPProvider{provider}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/emergency/status", http.NoBody))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/emergency/status", http.NoBody))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: status = %d, want 405", w.Code)
	}
}

func TestAuthMiddleware_Applied(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Error(w, http.StatusUnauthorized, "nope", r.URL.Path)
		})
	}
	srv := newTestServer(Options{Auth: deny})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("outer middleware did not run before auth")
	}
}

func TestAlertLimit_KeyedOnAuthenticatedUser(t *testing.T) {
	provider := stubProvider{
		prefix: "emergency",
		routes: []plugin.Route{{
			Method:  http.MethodPost,
			Path:    "/trigger",
			Handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
		}},
	}
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.Claims{UserID: r.Header.Get("X-Test-User")}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
	srv := newTestServer(Options{Providers: []plugin.HTTPProvider{provider}, Auth: asUser})

	limit := DefaultRateLimitPolicy().AlertPerHour
	for i := range limit + 1 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency/trigger", http.NoBody)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.1:4000", i)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Test-User", "u1")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		want := http.StatusOK
		if i == limit {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Fatalf("alert %d: status = %d, want %d", i, w.Code, want)
		}
	}
}

func TestConfigAddr(t *testing.T) {
	c := Config{Host: "127.0.0.1", Port: 9090}
	if got := c.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr = %q", got)
	}
}

func TestWriteProblem_DefaultsTitle(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadGateway, "sms provider unavailable", "/api/v1/emergency/test")

	var p Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Title != "Bad Gateway" || p.Type != ProblemTypeBadGateway || p.Status != http.StatusBadGateway {
		t.Errorf("problem = %+v", p)
	}
}
