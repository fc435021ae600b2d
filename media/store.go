package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/voxlog/audioblog/backend/crypto"
	"github.com/voxlog/audioblog/backend/telemetry"
)

// Store persists clips in a single directory. All operations reload state
// from disk; the mutex serializes Add so the author name claim check and the
// subsequent write are atomic with respect to other writers in this process.
type Store struct {
	dir        string
	baseURL    string
	transcoder Transcoder
	now        func() time.Time
	mu         sync.Mutex
}

// Options configures optional store behavior. The zero value is usable.
type Options struct {
	// BaseURL prefixes resolved payload URLs. Defaults to "/media".
	BaseURL string
	// Transcoder produces the MP3 derivative after a successful Add.
	// Nil disables transcoding; uploads then carry only the original.
	Transcoder Transcoder
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewStore opens (creating if necessary) the media directory.
func NewStore(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	telemetry.Init()
	s := &Store{
		dir:        dir,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		transcoder: opts.Transcoder,
		now:        opts.Now,
	}
	if s.baseURL == "" {
		s.baseURL = "/media"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Dir returns the backing media directory.
func (s *Store) Dir() string { return s.dir }

// AddRequest carries the fields of one upload.
type AddRequest struct {
	Author    string
	Title     string
	Parent    string
	OwnerHash string
	Content   io.Reader
}

// List returns all clips, newest first. A sidecar that cannot be read or
// parsed fails the whole call: a corrupt record must not be mistaken for a
// deleted one.
func (s *Store) List(ctx context.Context) ([]Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clips, err := s.listLocked(ctx)
	if err == nil {
		telemetry.SetClipCount(len(clips))
	}
	return clips, err
}

func (s *Store) listLocked(ctx context.Context) ([]Clip, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &StorageError{Op: "readdir", Path: s.dir, Err: err}
	}
	clips := make([]Clip, 0, len(entries)/2)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, extSidecar) {
			continue
		}
		basename := strings.TrimSuffix(name, extSidecar)
		clip, err := s.readClip(basename)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	sort.Slice(clips, func(i, j int) bool {
		return newerThan(clips[i].Basename, clips[j].Basename)
	})
	return clips, nil
}

// readClip loads one sidecar and resolves payload URLs.
func (s *Store) readClip(basename string) (Clip, error) {
	sidecarPath := filepath.Join(s.dir, basename+extSidecar)
	raw, err := os.ReadFile(sidecarPath)
	if err != nil {
		return Clip{}, &StorageError{Op: "read", Path: sidecarPath, Err: err}
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return Clip{}, &StorageError{Op: "parse", Path: sidecarPath, Err: err}
	}
	date, err := time.Parse(time.RFC3339Nano, sc.Date)
	if err != nil {
		return Clip{}, &StorageError{Op: "parse", Path: sidecarPath, Err: fmt.Errorf("date %q: %w", sc.Date, err)}
	}
	clip := Clip{
		Basename:  basename,
		Author:    sc.Author,
		OwnerHash: sc.OwnerHash,
		Parent:    sc.Parent,
		Title:     sc.Title,
		Date:      date,
		URLs:      URLs{WebM: s.url(basename + extWebM)},
	}
	if _, err := os.Stat(filepath.Join(s.dir, basename+extMP3)); err == nil {
		clip.URLs.MP3 = s.url(basename + extMP3)
	}
	return clip, nil
}

func (s *Store) url(filename string) string {
	return s.baseURL + "/" + path.Clean(filename)
}

// Add validates the request, enforces the author name claim, and persists the
// payload plus metadata sidecar. The payload is written first; if the sidecar
// write fails, the payload is deleted again so no half-recorded clip remains.
// Transcoding runs afterwards, outside the store lock, and its failure does
// not undo the write.
func (s *Store) Add(ctx context.Context, req AddRequest) (Clip, error) {
	switch {
	case strings.TrimSpace(req.Author) == "":
		return Clip{}, &ValidationError{Field: "author"}
	case strings.TrimSpace(req.Title) == "":
		return Clip{}, &ValidationError{Field: "title"}
	case req.Content == nil:
		return Clip{}, &ValidationError{Field: "content"}
	case req.OwnerHash == "":
		return Clip{}, &ValidationError{Field: "ownerHash"}
	}

	telemetry.UploadsStarted.Inc()
	start := s.now()
	clip, err := s.addLocked(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNameClaimed) {
			telemetry.NameClaimRejections.Inc()
		}
		telemetry.UploadsFailed.Inc()
		return Clip{}, err
	}
	telemetry.UploadsSucceeded.Inc()
	telemetry.UploadDuration.Observe(s.now().Sub(start).Seconds())

	if s.transcoder != nil {
		if url, ok := s.transcode(ctx, clip.Basename); ok {
			clip.URLs.MP3 = url
		}
	}
	return clip, nil
}

func (s *Store) addLocked(ctx context.Context, req AddRequest) (Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.listLocked(ctx)
	if err != nil {
		return Clip{}, err
	}
	for _, c := range existing {
		if c.Author == req.Author && !crypto.EqualHashes(c.OwnerHash, req.OwnerHash) {
			return Clip{}, fmt.Errorf("author %q: %w", req.Author, ErrNameClaimed)
		}
	}

	now := s.now().UTC()
	ms := now.UnixMilli()
	basename := strconv.FormatInt(ms, 10)
	for s.exists(basename) {
		ms++
		basename = strconv.FormatInt(ms, 10)
	}

	payloadPath := filepath.Join(s.dir, basename+extWebM)
	n, err := s.writePayload(payloadPath, req.Content)
	if err != nil {
		return Clip{}, err
	}
	if n == 0 {
		_ = os.Remove(payloadPath)
		return Clip{}, &ValidationError{Field: "content"}
	}

	sc := sidecar{
		Author:    req.Author,
		Title:     req.Title,
		OwnerHash: req.OwnerHash,
		Date:      now.Format(time.RFC3339Nano),
		Parent:    req.Parent,
	}
	if err := s.writeSidecar(basename, sc); err != nil {
		// Compensating delete so the payload does not outlive its metadata.
		if rmErr := os.Remove(payloadPath); rmErr != nil {
			slog.Warn("orphan payload cleanup failed", slog.String("path", payloadPath), slog.Any("err", rmErr), slog.String("component", "media_store"))
		}
		return Clip{}, err
	}

	return Clip{
		Basename:  basename,
		Author:    req.Author,
		OwnerHash: req.OwnerHash,
		Parent:    req.Parent,
		Title:     req.Title,
		Date:      now,
		URLs:      URLs{WebM: s.url(basename + extWebM)},
	}, nil
}

// exists reports whether any file for the basename is already present.
func (s *Store) exists(basename string) bool {
	for _, ext := range []string{extSidecar, extWebM, extMP3} {
		if _, err := os.Stat(filepath.Join(s.dir, basename+ext)); err == nil {
			return true
		}
	}
	return false
}

func (s *Store) writePayload(payloadPath string, content io.Reader) (int64, error) {
	f, err := os.OpenFile(payloadPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, &StorageError{Op: "create", Path: payloadPath, Err: err}
	}
	n, copyErr := io.Copy(f, content)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(payloadPath)
		return 0, &StorageError{Op: "write", Path: payloadPath, Err: copyErr}
	}
	return n, nil
}

// writeSidecar writes the metadata record via a temp file and rename so a
// crash mid-write cannot leave a truncated sidecar behind.
func (s *Store) writeSidecar(basename string, sc sidecar) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return &StorageError{Op: "encode", Path: basename + extSidecar, Err: err}
	}
	final := filepath.Join(s.dir, basename+extSidecar)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return &StorageError{Op: "rename", Path: final, Err: err}
	}
	return nil
}

// transcode produces the MP3 derivative for a just-written clip. Failures are
// logged and counted but never fail the upload; the contract with the
// external tool is best-effort enrichment.
func (s *Store) transcode(ctx context.Context, basename string) (string, bool) {
	src := filepath.Join(s.dir, basename+extWebM)
	dst := filepath.Join(s.dir, basename+extMP3)
	ctx, span := telemetry.StartSpan(ctx, "media-store", "transcode")
	defer span.End()
	start := s.now()
	if err := s.transcoder.Transcode(ctx, src, dst); err != nil {
		telemetry.TranscodesFailed.Inc()
		telemetry.RecordError(span, err)
		var terr *TranscodeError
		if errors.As(err, &terr) {
			slog.Warn("transcode failed", slog.String("basename", basename), slog.Any("err", terr.Err), slog.String("out", terr.Output), slog.String("component", "media_store"))
		} else {
			slog.Warn("transcode failed", slog.String("basename", basename), slog.Any("err", err), slog.String("component", "media_store"))
		}
		return "", false
	}
	telemetry.TranscodesSucceeded.Inc()
	telemetry.TranscodeDuration.Observe(s.now().Sub(start).Seconds())
	return s.url(basename + extMP3), true
}

// Remove deletes the clip with the given basename after verifying ownership.
// Payload, derivative and sidecar are deleted independently; each failure is
// logged and swallowed, so an admin-requested delete succeeds even when some
// bytes linger.
func (s *Store) Remove(ctx context.Context, basename, callerHash string) error {
	if basename == "" || basename != filepath.Base(basename) {
		return fmt.Errorf("basename %q: %w", basename, ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.listLocked(ctx)
	if err != nil {
		return err
	}
	var matches []Clip
	for _, c := range clips {
		if c.Basename == basename {
			matches = append(matches, c)
		}
	}
	// Uniqueness should make >1 impossible; checked anyway.
	if len(matches) != 1 {
		return fmt.Errorf("basename %q (%d matches): %w", basename, len(matches), ErrNotFound)
	}
	if !crypto.EqualHashes(matches[0].OwnerHash, callerHash) {
		return fmt.Errorf("basename %q: %w", basename, ErrForbidden)
	}

	for _, ext := range []string{extWebM, extMP3, extSidecar} {
		p := filepath.Join(s.dir, basename+ext)
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("delete failed", slog.String("path", p), slog.Any("err", err), slog.String("component", "media_store"))
		}
	}
	telemetry.DeletesSucceeded.Inc()
	return nil
}
