package server

import (
	"encoding/json"
	"net/http"

	"github.com/voxlog/audioblog/backend/catalog"
)

// HandleAdminCatalog returns a paginated view of the catalog index.
func (h *Handlers) HandleAdminCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.db == nil {
		http.Error(w, "catalog index not configured", http.StatusServiceUnavailable)
		return
	}
	limit := parseIntQuery(r, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := catalog.ListPage(r.Context(), h.db, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := catalog.Count(r.Context(), h.db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"entries": entries,
	})
}

// HandleAdminReconcile triggers an immediate directory-to-index reconcile.
func (h *Handlers) HandleAdminReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.db == nil {
		http.Error(w, "catalog index not configured", http.StatusServiceUnavailable)
		return
	}
	if err := catalog.Reconcile(r.Context(), h.db, h.store); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
