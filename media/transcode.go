package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Transcoder converts a stored payload into a more widely playable
// derivative. Implementations own their temp-file hygiene: on error no
// partial output may remain at dst.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// FFmpeg invokes the ffmpeg binary to convert WebM audio to MP3. The output
// is written to a temp file and renamed into place on success.
type FFmpeg struct {
	// Bin is the ffmpeg binary path. Empty means "ffmpeg" on PATH.
	Bin string
	// Bitrate is the target audio bitrate, e.g. "128k".
	Bitrate string
	// SampleRate is the output sample rate in Hz, e.g. 44100.
	SampleRate int
}

// maxOutputTail bounds how much tool output is carried in errors.
const maxOutputTail = 2048

func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	bin := f.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	bitrate := f.Bitrate
	if bitrate == "" {
		bitrate = "128k"
	}
	rate := f.SampleRate
	if rate == 0 {
		rate = 44100
	}
	tmp := dst + ".transcode.tmp"
	args := []string{
		"-y", "-i", src,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		"-ar", strconv.Itoa(rate),
		"-f", "mp3",
		tmp,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(tmp)
		return &TranscodeError{Src: src, Output: tail(out), Err: err}
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return &TranscodeError{Src: src, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}

func tail(out []byte) string {
	if len(out) > maxOutputTail {
		out = out[len(out)-maxOutputTail:]
	}
	return string(out)
}
