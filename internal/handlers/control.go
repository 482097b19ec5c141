package handlers

import "net/http"

// HandleStop requests cooperative cancellation of the running batch.
func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stopped := h.runner.Stop()
	message := "Stop requested. The batch will halt after the current item."
	if !stopped {
		message = "No batch is currently running."
	}
	h.writeJSON(w, map[string]any{
		"success": true,
		"stopped": stopped,
		"message": message,
	})
}

// HandleStatus returns the full run snapshot, including the bounded log
// tail, so a page load can reconstruct the view mid-run.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.runner.Snapshot())
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}
