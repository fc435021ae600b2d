package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no clip matches the requested basename.
	ErrNotFound = errors.New("clip not found")
	// ErrForbidden indicates the caller's owner hash does not match the clip's.
	ErrForbidden = errors.New("caller does not own clip")
	// ErrNameClaimed indicates the author name is already bound to a different
	// owner hash (first writer wins).
	ErrNameClaimed = errors.New("author name claimed by another identity")
)

// ValidationError reports a missing or empty required field on Add.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// StorageError wraps an I/O failure while reading or writing the media
// directory. The primary write contract surfaces these directly; no retry.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// TranscodeError reports a failed external conversion. It is non-fatal to the
// upload that triggered it; the original payload remains authoritative.
type TranscodeError struct {
	Src    string
	Output string // tail of the tool's combined output, for diagnostics
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", e.Src, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
