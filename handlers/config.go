package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sasta-kro/dockyard/models"
)

func (h *handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.state.ConfigInfo())
}

// updateConfig merges a partial update and persists it before answering, so
// a success response means the change survives a daemon restart.
func (h *handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req models.ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid request body: "+err.Error())
		return
	}
	if err := h.state.UpdateConfig(req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "configuration updated"})
}
