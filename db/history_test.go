package db

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sasta-kro/dockyard/models"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := Open(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordLifecycle(t *testing.T) {
	h := newTestHistory(t)

	id, err := h.RecordStart("widgets", models.JobDeploy, "abc123")
	require.NoError(t, err)
	require.NotZero(t, id)

	// still running: no last error
	lastErr, err := h.LastError("widgets")
	require.NoError(t, err)
	assert.Empty(t, lastErr)

	require.NoError(t, h.RecordResult(id, ""))

	lastErr, err = h.LastError("widgets")
	require.NoError(t, err)
	assert.Empty(t, lastErr)
}

func TestLastErrorReflectsLatestAttempt(t *testing.T) {
	h := newTestHistory(t)

	first, err := h.RecordStart("widgets", models.JobDeploy, "")
	require.NoError(t, err)
	require.NoError(t, h.RecordResult(first, "build failed: no Dockerfile"))

	lastErr, err := h.LastError("widgets")
	require.NoError(t, err)
	assert.Equal(t, "build failed: no Dockerfile", lastErr)

	// a later success clears the error
	second, err := h.RecordStart("widgets", models.JobRebuild, "def456")
	require.NoError(t, err)
	require.NoError(t, h.RecordResult(second, ""))

	lastErr, err = h.LastError("widgets")
	require.NoError(t, err)
	assert.Empty(t, lastErr)
}

func TestLastErrorUnknownSlug(t *testing.T) {
	h := newTestHistory(t)
	lastErr, err := h.LastError("never-built")
	require.NoError(t, err)
	assert.Empty(t, lastErr)
}

func TestRecentNewestFirst(t *testing.T) {
	h := newTestHistory(t)

	for i := 0; i < 3; i++ {
		id, err := h.RecordStart("widgets", models.JobRebuild, "")
		require.NoError(t, err)
		require.NoError(t, h.RecordResult(id, ""))
	}

	entries, err := h.Recent("widgets", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID)
	assert.Equal(t, StatusSuccess, entries[0].Status)
	require.NotNil(t, entries[0].FinishedAt)
}

func TestPurge(t *testing.T) {
	h := newTestHistory(t)

	id, err := h.RecordStart("widgets", models.JobDeploy, "")
	require.NoError(t, err)
	require.NoError(t, h.RecordResult(id, "boom"))
	require.NoError(t, h.Purge("widgets"))

	lastErr, err := h.LastError("widgets")
	require.NoError(t, err)
	assert.Empty(t, lastErr)

	entries, err := h.Recent("widgets", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
