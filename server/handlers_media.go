package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/voxlog/audioblog/backend/auth"
	"github.com/voxlog/audioblog/backend/media"
)

// HandleMediaCollection serves GET (list clips / reply tree) and POST
// (upload) on /api/media.
func (h *Handlers) HandleMediaCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleMediaList(w, r)
	case http.MethodPost:
		h.handleMediaCreate(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) handleMediaList(w http.ResponseWriter, r *http.Request) {
	clips, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("view") == "tree" {
		_ = json.NewEncoder(w).Encode(media.BuildTree(clips))
		return
	}
	_ = json.NewEncoder(w).Encode(clips)
}

func (h *Handlers) handleMediaCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromRequest(r, h.cfg)
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}
	content, _, err := r.FormFile("content")
	if err != nil {
		http.Error(w, "missing content", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := content.Close(); err != nil {
			slog.Warn("failed to close upload", slog.Any("err", err))
		}
	}()

	clip, err := h.store.Add(r.Context(), media.AddRequest{
		Author:    r.FormValue("author"),
		Title:     r.FormValue("title"),
		Parent:    r.FormValue("parent"),
		OwnerHash: id.OwnerHash,
		Content:   content,
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(clip)
}

// HandleMediaItem serves GET (detail) and DELETE on /api/media/{basename}.
func (h *Handlers) HandleMediaItem(w http.ResponseWriter, r *http.Request) {
	basename := strings.TrimPrefix(r.URL.Path, "/api/media/")
	if basename == "" || strings.Contains(basename, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleMediaDetail(w, r, basename)
	case http.MethodDelete:
		h.handleMediaDelete(w, r, basename)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) handleMediaDetail(w http.ResponseWriter, r *http.Request, basename string) {
	clip, err := h.findClip(r, basename)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(clip)
}

func (h *Handlers) handleMediaDelete(w http.ResponseWriter, r *http.Request, basename string) {
	id, ok := auth.FromRequest(r, h.cfg)
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// The store only knows hash equality. Admin override happens here, at the
	// caller: an admin deletes on behalf of the clip's owner.
	callerHash := id.OwnerHash
	if id.Admin {
		clip, err := h.findClip(r, basename)
		if err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		callerHash = clip.OwnerHash
	}

	if err := h.store.Remove(r.Context(), basename, callerHash); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// findClip resolves a single clip by basename from the store.
func (h *Handlers) findClip(r *http.Request, basename string) (media.Clip, error) {
	clips, err := h.store.List(r.Context())
	if err != nil {
		return media.Clip{}, err
	}
	for _, c := range clips {
		if c.Basename == basename {
			return c, nil
		}
	}
	return media.Clip{}, media.ErrNotFound
}

// HandleMediaFile serves payload files under the media base URL. Only audio
// payloads are reachable; metadata sidecars stay private to the API.
func (h *Handlers) HandleMediaFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, h.cfg.MediaBaseURL+"/")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	switch filepath.Ext(name) {
	case ".webm", ".mp3":
	default:
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.store.Dir(), name))
}

// writeStoreError maps store errors onto HTTP status codes: 400 validation,
// 403 forbidden, 404 not found, 409 name claim conflict, 500 storage.
func (h *Handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *media.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, media.ErrNameClaimed):
		http.Error(w, "author name already claimed", http.StatusConflict)
	case errors.Is(err, media.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, media.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		slog.Error("media store error", slog.Any("err", err), slog.String("path", r.URL.Path), slog.String("component", "http"))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
