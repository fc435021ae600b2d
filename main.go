// Command backend is the main entrypoint for the audioblog API.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens the media directory that holds clip payloads and sidecars.
//   - Optionally connects to Postgres for the catalog index and starts the
//     reconcile job that keeps it in line with the directory.
//   - Exposes the HTTP server with the media API, payload files, /healthz,
//     /readyz, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/voxlog/audioblog/backend/catalog"
	"github.com/voxlog/audioblog/backend/config"
	"github.com/voxlog/audioblog/backend/db"
	"github.com/voxlog/audioblog/backend/media"
	"github.com/voxlog/audioblog/backend/server"
	"github.com/voxlog/audioblog/backend/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("audioblog", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Media store, with ffmpeg transcoding unless disabled
	var transcoder media.Transcoder
	if cfg.TranscodeDisabled {
		slog.Info("transcoding disabled; uploads keep only the original payload")
	} else {
		transcoder = &media.FFmpeg{
			Bin:        cfg.FFmpegPath,
			Bitrate:    cfg.MP3Bitrate,
			SampleRate: cfg.MP3SampleRate,
		}
	}
	store, err := media.NewStore(cfg.MediaDir, media.Options{
		BaseURL:    cfg.MediaBaseURL,
		Transcoder: transcoder,
	})
	if err != nil {
		slog.Error("failed to open media store", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("media store opened", slog.String("dir", cfg.MediaDir))

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional catalog index: versioned migrations first, embedded SQL as the
	// fallback for deployments that ship without the migration files.
	var catalogDB *sql.DB
	if cfg.DBDsn != "" {
		catalogDB, err = db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open catalog db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := catalogDB.Close(); err != nil {
				slog.Error("failed to close catalog db", slog.Any("err", err))
			}
		}()
		slog.Info("running catalog migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(catalogDB); err != nil {
			slog.Warn("versioned migrations failed, attempting embedded SQL fallback", slog.Any("err", err), slog.String("component", "db_migrate"))
			if err := db.Migrate(context.Background(), catalogDB); err != nil {
				slog.Error("failed to migrate catalog db", slog.Any("err", err))
				os.Exit(1)
			}
		}
		go catalog.StartReconcileJob(ctx, catalogDB, store, cfg.ReconcileInterval)
	} else {
		slog.Info("catalog index disabled (DB_DSN not set); directory scans serve all queries")
	}

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	slog.Info("http server starting", slog.String("addr", cfg.HTTPAddr))
	if err := server.Start(ctx, store, cfg, catalogDB); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
