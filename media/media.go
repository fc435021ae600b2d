// Package media owns the clip store: a directory of audio payloads with JSON
// metadata sidecars. It exposes list, add and remove, enforces the
// first-writer-wins author name claim, and assembles the reply tree from flat
// parent references. The directory is the source of truth; every call reloads
// from disk.
package media

import (
	"strconv"
	"time"
)

const (
	// payload and derivative extensions; the basename ties them together.
	extWebM    = ".webm"
	extMP3     = ".mp3"
	extSidecar = ".json"
)

// URLs points at the served payloads for one clip. MP3 is empty until a
// transcoded derivative exists.
type URLs struct {
	WebM string `json:"webm"`
	MP3  string `json:"mp3,omitempty"`
}

// Clip is one stored recording plus its metadata.
type Clip struct {
	Basename  string    `json:"basename"`
	Author    string    `json:"author"`
	OwnerHash string    `json:"ownerHash"`
	Parent    string    `json:"parent,omitempty"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	URLs      URLs      `json:"urls"`
}

// sidecar is the flat on-disk metadata record stored next to the payload.
type sidecar struct {
	Author    string `json:"author"`
	Title     string `json:"title"`
	OwnerHash string `json:"ownerHash"`
	Date      string `json:"date"`
	Parent    string `json:"parent,omitempty"`
}

// decodeBasename returns the millisecond timestamp a basename encodes.
// Basenames are compared numerically, not lexicographically, so ordering
// holds even across identifier-width boundaries.
func decodeBasename(basename string) (int64, bool) {
	ms, err := strconv.ParseInt(basename, 10, 64)
	return ms, err == nil
}

// newerThan reports whether basename a encodes a later timestamp than b,
// falling back to string comparison for non-numeric names.
func newerThan(a, b string) bool {
	am, aok := decodeBasename(a)
	bm, bok := decodeBasename(b)
	if aok && bok {
		return am > bm
	}
	return a > b
}
