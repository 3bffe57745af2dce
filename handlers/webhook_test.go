package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sasta-kro/dockyard/models"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(router http.Handler, slug, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+slug, strings.NewReader(body))
	if signature != "" {
		req.Header.Set("x-hub-signature-256", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func expectJob(t *testing.T, state interface{ Jobs() <-chan models.Job }) models.Job {
	t.Helper()
	select {
	case job := <-state.Jobs():
		return job
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected a job on the queue")
		return models.Job{}
	}
}

func expectNoJob(t *testing.T, state interface{ Jobs() <-chan models.Job }) {
	t.Helper()
	select {
	case job := <-state.Jobs():
		t.Fatalf("unexpected job on the queue: %+v", job)
	case <-time.After(50 * time.Millisecond):
	}
}

const pushBody = `{"ref":"refs/heads/main","after":"abc123def","repository":{"full_name":"acme/app"},"pusher":{"name":"alice"}}`

func TestWebhookValidSignatureQueuesRebuild(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	rec := postWebhook(webhookRouter, project.Slug, pushBody, "sha256="+sign(project.Webhook.Secret, []byte(pushBody)))
	require.Equal(t, http.StatusOK, rec.Code)

	job := expectJob(t, state)
	assert.Equal(t, models.JobRebuild, job.Kind)
	assert.Equal(t, project.Slug, job.Slug)
	assert.Equal(t, "abc123def", job.CommitSHA)
}

func TestWebhookSignatureWithoutPrefixAccepted(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	rec := postWebhook(webhookRouter, project.Slug, pushBody, sign(project.Webhook.Secret, []byte(pushBody)))
	require.Equal(t, http.StatusOK, rec.Code)
	expectJob(t, state)
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	signature := "sha256=" + sign(project.Webhook.Secret, []byte(pushBody))
	tampered := strings.Replace(pushBody, "abc123def", "abc123deX", 1)

	rec := postWebhook(webhookRouter, project.Slug, tampered, signature)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	expectNoJob(t, state)
}

func TestWebhookWrongSecretRejected(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	rec := postWebhook(webhookRouter, project.Slug, pushBody, "sha256="+sign("wrong-secret", []byte(pushBody)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	expectNoJob(t, state)
}

func TestWebhookMissingSignatureAccepted(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	rec := postWebhook(webhookRouter, project.Slug, pushBody, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	expectJob(t, state)
}

func TestWebhookUntrackedBranchIgnored(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	body := strings.Replace(pushBody, "refs/heads/main", "refs/heads/feature", 1)
	rec := postWebhook(webhookRouter, project.Slug, body, "sha256="+sign(project.Webhook.Secret, []byte(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	expectNoJob(t, state)
}

func TestWebhookTagPushIgnored(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	body := strings.Replace(pushBody, "refs/heads/main", "refs/tags/v1.0", 1)
	rec := postWebhook(webhookRouter, project.Slug, body, "sha256="+sign(project.Webhook.Secret, []byte(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	expectNoJob(t, state)
}

func TestWebhookUnknownSlug(t *testing.T) {
	_, _, webhookRouter := newTestRouters(t)
	rec := postWebhook(webhookRouter, "ghost", pushBody, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookMalformedPayload(t *testing.T) {
	state, _, webhookRouter := newTestRouters(t)
	project := deployTestProject(t, state, "https://example.com/acme/app.git")

	body := "{not json"
	rec := postWebhook(webhookRouter, project.Slug, body, "sha256="+sign(project.Webhook.Secret, []byte(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	expectNoJob(t, state)
}
