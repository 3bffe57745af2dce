package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sasta-kro/dockyard/models"
)

// signatureHeader carries the git host's HMAC of the request body.
const signatureHeader = "x-hub-signature-256"

// webhook ingests a push notification for one project. The request is
// authenticated by HMAC-SHA256 over the raw body with the project's webhook
// secret; the branch filter decides whether the push triggers a rebuild.
// Pushes to untracked branches are acknowledged with 200 and ignored, so the
// git host does not retry or disable the hook.
func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	project, err := h.state.Project(slug)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, h.logger, "failed to read request body")
		return
	}

	signature := r.Header.Get(signatureHeader)
	if signature == "" {
		// accepted for hooks configured without a secret; the record still
		// has one, the sender just is not using it.
		h.logger.Warn("webhook without signature accepted", "slug", slug)
	} else if !verifySignature(project.Webhook.Secret, body, signature) {
		h.logger.Warn("webhook signature mismatch", "slug", slug)
		writeJSON(w, h.logger, http.StatusUnauthorized, models.ErrorResponse{Error: "invalid signature"})
		return
	}

	var event models.PushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeBadRequest(w, h.logger, "invalid push payload: "+err.Error())
		return
	}

	if event.IsBranchPush() && event.Branch() == project.Branch {
		h.logger.Info("push accepted, queueing rebuild",
			"slug", slug,
			"branch", event.Branch(),
			"commit", event.After,
			"pusher", event.Pusher.Name,
		)
		if err := h.state.Rebuild(slug, event.After); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "rebuild queued"})
		return
	}

	h.logger.Info("push to untracked ref ignored", "slug", slug, "ref", event.Ref)
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{Message: "ref not tracked, ignoring"})
}

// verifySignature checks the hex HMAC-SHA256 of body against the header
// value, which may or may not carry the conventional "sha256=" prefix. The
// comparison is constant time.
func verifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
