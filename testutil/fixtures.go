// Package testutil provides shared fixtures: the catalog test database, a
// temp-dir media store, a deterministic clock, and a fake transcoder.
package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/voxlog/audioblog/backend/media"
)

// Clock hands out strictly increasing timestamps, one millisecond apart, so
// store tests produce deterministic basenames.
type Clock struct {
	mu   sync.Mutex
	next time.Time
}

// NewClock starts a clock at the given time.
func NewClock(start time.Time) *Clock {
	return &Clock{next: start}
}

// Now returns the next tick.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(time.Millisecond)
	return t
}

// FakeTranscoder records invocations and writes a marker derivative instead
// of running ffmpeg. Set Err to simulate conversion failure.
type FakeTranscoder struct {
	mu    sync.Mutex
	Err   error
	Calls []string // src paths, in order
}

func (f *FakeTranscoder) Transcode(_ context.Context, src, dst string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, src)
	f.mu.Unlock()
	if f.Err != nil {
		return &media.TranscodeError{Src: src, Err: f.Err}
	}
	return os.WriteFile(dst, []byte("mp3"), 0o644)
}

// CallCount returns how many conversions were attempted.
func (f *FakeTranscoder) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// ErrTranscodeFailed is a canned failure for FakeTranscoder.Err.
var ErrTranscodeFailed = errors.New("simulated transcode failure")

// NewStore opens a media store over a fresh temp directory with a
// deterministic clock and no transcoder.
func NewStore(t *testing.T) (*media.Store, *Clock) {
	t.Helper()
	return NewStoreWithTranscoder(t, nil)
}

// NewStoreWithTranscoder is NewStore with a transcoder attached.
func NewStoreWithTranscoder(t *testing.T, tc media.Transcoder) (*media.Store, *Clock) {
	t.Helper()
	clock := NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	store, err := media.NewStore(t.TempDir(), media.Options{
		Transcoder: tc,
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, clock
}
