// HTTP API handlers.
package server

import (
	"database/sql"

	"github.com/voxlog/audioblog/backend/config"
	"github.com/voxlog/audioblog/backend/media"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	store *media.Store
	cfg   *config.Config
	db    *sql.DB // catalog index; nil when not configured
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(store *media.Store, cfg *config.Config, db *sql.DB) *Handlers {
	return &Handlers{store: store, cfg: cfg, db: db}
}
