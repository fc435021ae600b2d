package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
)

// HandleHealthz responds to liveness probes by checking the media directory
// is still reachable.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if info, err := os.Stat(h.store.Dir()); err != nil || !info.IsDir() {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probes with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"media_dir", func() error {
			probe, err := os.CreateTemp(h.store.Dir(), ".readyz-*")
			if err != nil {
				return fmt.Errorf("media dir not writable: %w", err)
			}
			name := probe.Name()
			_ = probe.Close()
			return os.Remove(name)
		}},
		{"transcoder", func() error {
			if h.cfg.TranscodeDisabled {
				return nil
			}
			if _, err := exec.LookPath(h.cfg.FFmpegPath); err != nil {
				return fmt.Errorf("ffmpeg not found: %w", err)
			}
			return nil
		}},
		{"catalog_index", func() error {
			if h.db == nil {
				return nil // optional feature, absent is ready
			}
			return h.db.PingContext(r.Context())
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
