// Package handlers is the HTTP surface of the syndication service:
// batch control, live status, the SSE event stream, and the operator
// page.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ecomm-asset-tools/syndicator/internal/batch"
	"github.com/ecomm-asset-tools/syndicator/internal/events"
	"github.com/ecomm-asset-tools/syndicator/internal/retailer"
)

type Handler struct {
	runner      *batch.Runner
	broadcaster *events.Broadcaster
	registry    *retailer.Registry
	uploadDir   string
}

func New(runner *batch.Runner, broadcaster *events.Broadcaster, registry *retailer.Registry, uploadDir string) *Handler {
	return &Handler{
		runner:      runner,
		broadcaster: broadcaster,
		registry:    registry,
		uploadDir:   uploadDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}
