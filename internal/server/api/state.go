package api

import (
	"net/http"

	"github.com/ayusman/physiotrack/internal/engine"
)

// Snapshotter exposes a copy of the engine state.
type Snapshotter interface {
	Snapshot() engine.State
}

// StateHandler serves GET /api/pose/state.
type StateHandler struct {
	engine Snapshotter
}

// NewStateHandler creates a StateHandler reading from e.
func NewStateHandler(e Snapshotter) *StateHandler {
	return &StateHandler{engine: e}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}
