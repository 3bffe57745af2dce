package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sasta-kro/dockyard/config"
	"github.com/sasta-kro/dockyard/daemon"
	"github.com/sasta-kro/dockyard/db"
	"github.com/sasta-kro/dockyard/models"
	"github.com/sasta-kro/dockyard/store"
)

// newTestState builds a daemon state on temp dirs with no engine connection.
// The paths exercised here (deploy registration, webhook verification,
// config, history) never reach the engine. The history handle is returned so
// tests can seed build attempts directly.
func newTestState(t *testing.T) (*daemon.State, *db.History) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	projectStore, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	history, err := db.Open(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	return daemon.NewState(config.Default(), nil, projectStore, history, logger), history
}

func newTestRouters(t *testing.T) (*daemon.State, http.Handler, http.Handler) {
	t.Helper()
	state, _ := newTestState(t)
	deps := RouterDependencies{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		State:  state,
	}
	return state, NewControlRouter(deps), NewWebhookRouter(deps)
}

// deployTestProject registers a project through the state and consumes the
// deploy job it enqueues, leaving the queue empty for the assertion under
// test.
func deployTestProject(t *testing.T, state *daemon.State, repoURL string) models.Project {
	t.Helper()
	resp, err := state.Deploy(models.DeployRequest{RepoURL: repoURL, Branch: "main"})
	require.NoError(t, err)

	job := <-state.Jobs()
	require.Equal(t, models.JobDeploy, job.Kind)
	require.Equal(t, resp.Slug, job.Slug)

	project, err := state.Project(resp.Slug)
	require.NoError(t, err)
	return project
}
