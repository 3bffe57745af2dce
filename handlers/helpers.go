// Package handlers implements the daemon's two HTTP surfaces: the control
// API served over the unix socket for the CLI, and the public webhook
// ingress. Handlers translate between HTTP and the daemon state; no business
// logic lives here.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
)

// writeJSON serializes v with the given status. Encoding failures at this
// point cannot be reported to the client anymore, only logged.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError renders the uniform error envelope with the status code the
// taxonomy assigns to the error.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	writeJSON(w, logger, errs.HTTPStatus(err), models.ErrorResponse{Error: err.Error()})
}

// writeBadRequest renders a 400 with a caller-supplied message (body parse
// failures, bad query parameters).
func writeBadRequest(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeJSON(w, logger, http.StatusBadRequest, models.ErrorResponse{Error: message})
}
