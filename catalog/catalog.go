// Package catalog maintains an optional Postgres index over the media
// directory. The directory remains the source of truth; the index exists for
// paginated operator queries over large clip sets and is rebuilt from a
// directory scan, so it can always be dropped and recreated.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxlog/audioblog/backend/media"
)

// Entry is one indexed clip row.
type Entry struct {
	Basename  string    `json:"basename"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	OwnerHash string    `json:"ownerHash"`
	Parent    string    `json:"parent,omitempty"`
	Date      time.Time `json:"date"`
	HasMP3    bool      `json:"hasMp3"`
}

// Reconcile scans the store and brings the index in line with it: every clip
// on disk is upserted and rows for clips no longer on disk are purged.
func Reconcile(ctx context.Context, dbc *sql.DB, store *media.Store) error {
	clips, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("scan media dir: %w", err)
	}
	present := make(map[string]struct{}, len(clips))
	for _, c := range clips {
		present[c.Basename] = struct{}{}
		_, err := dbc.ExecContext(ctx, `
			INSERT INTO clips (basename, author, title, owner_hash, parent, date, has_mp3, seen_at)
			VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,NOW())
			ON CONFLICT (basename) DO UPDATE SET
				author=EXCLUDED.author,
				title=EXCLUDED.title,
				owner_hash=EXCLUDED.owner_hash,
				parent=EXCLUDED.parent,
				date=EXCLUDED.date,
				has_mp3=EXCLUDED.has_mp3,
				seen_at=NOW()`,
			c.Basename, c.Author, c.Title, c.OwnerHash, c.Parent, c.Date, c.URLs.MP3 != "")
		if err != nil {
			return fmt.Errorf("upsert clip %s: %w", c.Basename, err)
		}
	}

	rows, err := dbc.QueryContext(ctx, `SELECT basename FROM clips`)
	if err != nil {
		return fmt.Errorf("list indexed clips: %w", err)
	}
	var stale []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			_ = rows.Close()
			return err
		}
		if _, ok := present[b]; !ok {
			stale = append(stale, b)
		}
	}
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", slog.Any("err", err), slog.String("component", "catalog"))
	}
	for _, b := range stale {
		if _, err := dbc.ExecContext(ctx, `DELETE FROM clips WHERE basename=$1`, b); err != nil {
			return fmt.Errorf("purge clip %s: %w", b, err)
		}
	}
	if len(stale) > 0 {
		slog.Info("catalog purged stale rows", slog.Int("count", len(stale)), slog.String("component", "catalog"))
	}
	return nil
}

// StartReconcileJob runs Reconcile at an interval until the context ends.
// An immediate run happens on start so the index is warm after boot.
func StartReconcileJob(ctx context.Context, dbc *sql.DB, store *media.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	slog.Info("catalog reconcile job starting", slog.Duration("interval", interval))
	if err := Reconcile(ctx, dbc, store); err != nil {
		slog.Warn("catalog reconcile", slog.Any("err", err), slog.String("component", "catalog"))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog reconcile job stopped")
			return
		case <-ticker.C:
			if err := Reconcile(ctx, dbc, store); err != nil {
				slog.Warn("catalog reconcile", slog.Any("err", err), slog.String("component", "catalog"))
			}
		}
	}
}

// ListPage returns one page of the index, newest first.
func ListPage(ctx context.Context, dbc *sql.DB, limit, offset int) ([]Entry, error) {
	rows, err := dbc.QueryContext(ctx, `
		SELECT basename, author, title, owner_hash, COALESCE(parent, ''), date, COALESCE(has_mp3, FALSE)
		FROM clips
		ORDER BY date DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", slog.Any("err", err), slog.String("component", "catalog"))
		}
	}()
	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Basename, &e.Author, &e.Title, &e.OwnerHash, &e.Parent, &e.Date, &e.HasMP3); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed clips.
func Count(ctx context.Context, dbc *sql.DB) (int, error) {
	var n int
	err := dbc.QueryRowContext(ctx, `SELECT COUNT(1) FROM clips`).Scan(&n)
	return n, err
}
