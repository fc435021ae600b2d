package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/voxlog/audioblog/backend/config"
	"github.com/voxlog/audioblog/backend/testutil"
)

func TestHealthz(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHealthzFailsWhenDirGone(t *testing.T) {
	store, _ := testutil.NewStore(t)
	h := NewHandlers(store, &config.Config{MediaBaseURL: "/media"}, nil)

	if err := os.RemoveAll(store.Dir()); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	cfg := &config.Config{
		MaxUploadBytes:    1 << 20,
		MediaBaseURL:      "/media",
		TranscodeDisabled: true, // no ffmpeg in CI
	}
	mux, _ := newTestMux(t, cfg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body["status"] != "ready" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestReadyzReportsMissingTranscoder(t *testing.T) {
	store, _ := testutil.NewStore(t)
	cfg := &config.Config{
		MediaBaseURL: "/media",
		FFmpegPath:   "/nonexistent/ffmpeg-binary",
	}
	h := NewHandlers(store, cfg, nil)

	rec := httptest.NewRecorder()
	h.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if body["failed_check"] != "transcoder" {
		t.Fatalf("failed_check = %q", body["failed_check"])
	}
}

func TestAdminEndpointsWithoutCatalog(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/catalog", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("catalog status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("reconcile status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/reconcile", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET reconcile status = %d", rec.Code)
	}
}
