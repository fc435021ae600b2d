// Package config loads environment variables and provides a typed Config used
// across the service. It applies sensible defaults so the binary can run
// locally with minimal setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	HTTPAddr       string
	MaxUploadBytes int64

	// Storage
	MediaDir     string
	MediaBaseURL string

	// Identity
	AdminEmails    []string
	AuthHMACSecret string

	// Transcoding
	TranscodeDisabled bool
	FFmpegPath        string
	MP3Bitrate        string
	MP3SampleRate     int

	// Catalog index (optional; empty DSN disables it)
	DBDsn             string
	ReconcileInterval time.Duration
}

// Load reads environment variables and applies defaults. The catalog index
// and transcoding are optional features: a missing DB_DSN disables the index,
// TRANSCODE_DISABLED=1 skips MP3 conversion.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.MaxUploadBytes = 32 << 20 // 32 MiB default cap on one recording
	if s := os.Getenv("MAX_UPLOAD_BYTES"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", s)
		}
		cfg.MaxUploadBytes = n
	}

	cfg.MediaDir = os.Getenv("MEDIA_DIR")
	if cfg.MediaDir == "" {
		cfg.MediaDir = "data/media"
	}
	cfg.MediaBaseURL = os.Getenv("MEDIA_BASE_URL")
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = "/media"
	}

	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, e)
		}
	}
	cfg.AuthHMACSecret = os.Getenv("AUTH_HMAC_SECRET")

	cfg.TranscodeDisabled = os.Getenv("TRANSCODE_DISABLED") == "1"
	cfg.FFmpegPath = os.Getenv("FFMPEG_PATH")
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	cfg.MP3Bitrate = os.Getenv("MP3_BITRATE")
	if cfg.MP3Bitrate == "" {
		cfg.MP3Bitrate = "128k"
	}
	cfg.MP3SampleRate = 44100
	if s := os.Getenv("MP3_SAMPLE_RATE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MP3_SAMPLE_RATE %q", s)
		}
		cfg.MP3SampleRate = n
	}

	cfg.DBDsn = os.Getenv("DB_DSN")
	cfg.ReconcileInterval = 5 * time.Minute
	if s := os.Getenv("CATALOG_RECONCILE_INTERVAL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid CATALOG_RECONCILE_INTERVAL %q", s)
		}
		cfg.ReconcileInterval = d
	}

	return cfg, nil
}

// IsAdmin reports whether the verified email is on the admin allowlist.
func (c *Config) IsAdmin(email string) bool {
	for _, a := range c.AdminEmails {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}
