package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "MAX_UPLOAD_BYTES", "MEDIA_DIR", "MEDIA_BASE_URL",
		"ADMIN_EMAILS", "AUTH_HMAC_SECRET", "TRANSCODE_DISABLED",
		"FFMPEG_PATH", "MP3_BITRATE", "MP3_SAMPLE_RATE",
		"DB_DSN", "CATALOG_RECONCILE_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.MediaDir != "data/media" || cfg.MediaBaseURL != "/media" {
		t.Errorf("media defaults = %q, %q", cfg.MediaDir, cfg.MediaBaseURL)
	}
	if cfg.TranscodeDisabled {
		t.Error("transcoding disabled by default")
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.MP3Bitrate != "128k" || cfg.MP3SampleRate != 44100 {
		t.Errorf("transcode defaults = %q, %q, %d", cfg.FFmpegPath, cfg.MP3Bitrate, cfg.MP3SampleRate)
	}
	if cfg.DBDsn != "" || cfg.ReconcileInterval != 5*time.Minute {
		t.Errorf("catalog defaults = %q, %v", cfg.DBDsn, cfg.ReconcileInterval)
	}
	if len(cfg.AdminEmails) != 0 {
		t.Errorf("AdminEmails = %v", cfg.AdminEmails)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("MEDIA_DIR", "/srv/clips")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com ,")
	t.Setenv("TRANSCODE_DISABLED", "1")
	t.Setenv("MP3_SAMPLE_RATE", "48000")
	t.Setenv("CATALOG_RECONCILE_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.MaxUploadBytes != 1048576 || cfg.MediaDir != "/srv/clips" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[0] != "a@example.com" || cfg.AdminEmails[1] != "b@example.com" {
		t.Errorf("AdminEmails = %v", cfg.AdminEmails)
	}
	if !cfg.TranscodeDisabled || cfg.MP3SampleRate != 48000 {
		t.Errorf("transcode overrides not applied: %+v", cfg)
	}
	if cfg.ReconcileInterval != 30*time.Second {
		t.Errorf("ReconcileInterval = %v", cfg.ReconcileInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MAX_UPLOAD_BYTES":           "zero",
		"MP3_SAMPLE_RATE":            "-1",
		"CATALOG_RECONCILE_INTERVAL": "yearly",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q accepted", key, val)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminEmails: []string{"Admin@Example.com"}}
	if !cfg.IsAdmin("admin@example.com") {
		t.Error("allowlist match should ignore case")
	}
	if cfg.IsAdmin("other@example.com") {
		t.Error("unlisted email treated as admin")
	}
	if (&Config{}).IsAdmin("admin@example.com") {
		t.Error("empty allowlist granted admin")
	}
}
