package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sasta-kro/dockyard/models"
)

// defaultLogTail is used when the logs route gets no tail parameter.
const defaultLogTail = 100

// defaultHistoryLimit is used when the history route gets no limit parameter.
const defaultHistoryLimit = 20

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.state.ListStatuses(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.ProjectListResponse{Projects: statuses})
}

// deployProject registers a project and answers 201 as soon as the record is
// persisted and the build job queued; the build itself is asynchronous.
func (h *handler) deployProject(w http.ResponseWriter, r *http.Request) {
	var req models.DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, h.logger, "invalid request body: "+err.Error())
		return
	}
	if req.RepoURL == "" {
		writeBadRequest(w, h.logger, "repo_url is required")
		return
	}

	resp, err := h.state.Deploy(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *handler) getProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.state.Detail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, detail)
}

func (h *handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.state.Delete(r.Context(), slug); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "project '" + slug + "' deleted"})
}

func (h *handler) rebuildProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.state.Rebuild(slug, ""); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "rebuild queued for '" + slug + "'"})
}

func (h *handler) startProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.state.Start(r.Context(), slug); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "project '" + slug + "' started"})
}

func (h *handler) stopProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.state.Stop(r.Context(), slug); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "project '" + slug + "' stopped"})
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, h.logger, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.state.History(chi.URLParam(r, "slug"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.HistoryResponse{Attempts: entries})
}

func (h *handler) getLogs(w http.ResponseWriter, r *http.Request) {
	tail := defaultLogTail
	if raw := r.URL.Query().Get("tail"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, h.logger, "tail must be a positive integer")
			return
		}
		tail = parsed
	}

	logs, err := h.state.Logs(r.Context(), chi.URLParam(r, "slug"), tail)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.LogsResponse{Logs: logs})
}
