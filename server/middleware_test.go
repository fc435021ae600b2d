package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthDisabledPassesThrough(t *testing.T) {
	cfg := &adminAuthConfig{enabled: false}
	rec := httptest.NewRecorder()
	adminAuth(okHandler(), cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/catalog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminAuthToken(t *testing.T) {
	cfg := &adminAuthConfig{token: "sekrit", enabled: true}
	h := adminAuth(okHandler(), cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/catalog", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate header")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/catalog", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/catalog", nil)
	req.Header.Set("X-Admin-Token", "sekrit")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
}

func TestAdminAuthBasic(t *testing.T) {
	cfg := &adminAuthConfig{username: "admin", password: "hunter2", enabled: true}
	h := adminAuth(okHandler(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/admin/catalog", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/catalog", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid credentials: status = %d", rec.Code)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{
		enabled:       true,
		requestsPerIP: 3,
		window:        time.Minute,
	})

	for i := 0; i < 3; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatalf("request %d denied under limit", i+1)
		}
	}
	if limiter.allow("10.0.0.1") {
		t.Fatal("request over limit allowed")
	}
	// Other clients are unaffected.
	if !limiter.allow("10.0.0.2") {
		t.Fatal("unrelated client denied")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{enabled: false, requestsPerIP: 1, window: time.Minute})
	for i := 0; i < 10; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatal("disabled limiter denied a request")
		}
	}
}

func TestRateLimitMiddlewareResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter := newIPRateLimiter(ctx, &rateLimiterConfig{
		enabled:       true,
		requestsPerIP: 1,
		window:        time.Minute,
	})
	h := rateLimitMiddleware(okHandler(), limiter)

	req := httptest.NewRequest(http.MethodPost, "/api/media", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestCORSPermissive(t *testing.T) {
	h := withCORSConfig(okHandler(), &corsConfig{permissive: true})

	req := httptest.NewRequest(http.MethodOptions, "/api/media", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSRestricted(t *testing.T) {
	cfg := &corsConfig{allowedOrigins: []string{"https://blog.example.com", "*.example.org"}}
	h := withCORSConfig(okHandler(), cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://blog.example.com" {
		t.Fatalf("listed origin not allowed: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/media", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unlisted origin got CORS headers")
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://blog.example.com", "*.example.org"}
	cases := []struct {
		origin string
		want   bool
	}{
		{"https://blog.example.com", true},
		{"https://api.example.org", true},
		{"https://example.net", false},
		{"https://blog.example.com.evil.net", false},
	}
	for _, tc := range cases {
		if got := isOriginAllowed(tc.origin, allowed); got != tc.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/catalog?limit=25&offset=junk", nil)
	if got := parseIntQuery(req, "limit", 50); got != 25 {
		t.Errorf("limit = %d", got)
	}
	if got := parseIntQuery(req, "offset", 0); got != 0 {
		t.Errorf("offset fallback = %d", got)
	}
	if got := parseIntQuery(req, "missing", 7); got != 7 {
		t.Errorf("missing fallback = %d", got)
	}
}
