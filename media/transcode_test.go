package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFFmpegMissingBinary(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.webm")
	dst := filepath.Join(dir, "out.mp3")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	f := &FFmpeg{Bin: filepath.Join(dir, "no-such-ffmpeg")}
	err := f.Transcode(context.Background(), src, dst)
	var terr *TranscodeError
	if !errors.As(err, &terr) {
		t.Fatalf("expected transcode error, got %v", err)
	}
	if terr.Src != src {
		t.Fatalf("error names wrong source %q", terr.Src)
	}
	for _, p := range []string{dst, dst + ".transcode.tmp"} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("leftover output %s: stat err=%v", p, err)
		}
	}
}

func TestTail(t *testing.T) {
	short := []byte("ffmpeg said no")
	if got := tail(short); got != string(short) {
		t.Errorf("tail mangled short output: %q", got)
	}
	long := []byte(strings.Repeat("x", maxOutputTail) + "END")
	got := tail(long)
	if len(got) != maxOutputTail {
		t.Errorf("tail length = %d, want %d", len(got), maxOutputTail)
	}
	if !strings.HasSuffix(got, "END") {
		t.Error("tail dropped the end of the output")
	}
}
