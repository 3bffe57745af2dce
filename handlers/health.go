package handlers

import (
	"net/http"

	"github.com/sasta-kro/dockyard/models"
)

// health reports daemon liveness plus the two numbers the CLI banner shows.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, models.HealthResponse{
		Status:       "ok",
		UptimeSecs:   h.state.UptimeSecs(),
		ProjectCount: h.state.ProjectCount(),
	})
}
