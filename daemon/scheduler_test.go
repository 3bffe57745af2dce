package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sasta-kro/dockyard/config"
	"github.com/sasta-kro/dockyard/db"
	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
	"github.com/sasta-kro/dockyard/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine records every call so tests can assert on the exact step
// sequence of a rollover without a container engine.
type fakeEngine struct {
	mu         sync.Mutex
	calls      []string
	running    bool // what IsRunning reports after the stabilization window
	states     map[string]models.ProjectState
	createPort int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{states: map[string]models.ProjectState{}}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeEngine) lastCreatePort() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createPort
}

func (f *fakeEngine) BuildImage(_ context.Context, _, _, imageTag string) error {
	f.record("build " + imageTag)
	return nil
}

func (f *fakeEngine) CreateAndStart(_ context.Context, containerName, imageTag string, hostPort, _ int, _ map[string]string) (string, error) {
	f.record(fmt.Sprintf("create %s %s", containerName, imageTag))
	f.mu.Lock()
	f.createPort = hostPort
	f.mu.Unlock()
	return "cafebabecafebabe", nil
}

func (f *fakeEngine) Start(_ context.Context, name string) error {
	f.record("start " + name)
	return nil
}

func (f *fakeEngine) Stop(_ context.Context, name string) error {
	f.record("stop " + name)
	return nil
}

func (f *fakeEngine) Remove(_ context.Context, name string) error {
	f.record("remove " + name)
	return nil
}

func (f *fakeEngine) Rename(_ context.Context, from, to string) error {
	f.record("rename " + from + " " + to)
	return nil
}

func (f *fakeEngine) Tag(_ context.Context, source, target string) error {
	f.record("tag " + source + " " + target)
	return nil
}

func (f *fakeEngine) RemoveImage(_ context.Context, ref string) error {
	f.record("rmi " + ref)
	return nil
}

func (f *fakeEngine) State(_ context.Context, name string) (models.ProjectState, error) {
	if state, ok := f.states[name]; ok {
		return state, nil
	}
	return models.StateOffline, nil
}

func (f *fakeEngine) IsRunning(_ context.Context, _ string) (bool, error) {
	return f.running, nil
}

func (f *fakeEngine) Stats(_ context.Context, _ string) (float64, float64, error) {
	return 0, 0, nil
}

func (f *fakeEngine) Uptime(_ context.Context, _ string) (*uint64, error) {
	return nil, nil
}

func (f *fakeEngine) Logs(_ context.Context, _ string, _ int, _ bool) ([]string, error) {
	return nil, nil
}

func newEngineTestState(t *testing.T, engine Engine) *State {
	t.Helper()
	logger := discardLogger()

	projectStore, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	history, err := db.Open(filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	s := NewState(config.Default(), engine, projectStore, history, logger)
	s.stabilization = 0
	return s
}

// registerProject deploys through the state and discards the initial build
// job, leaving a clean record for the behavior under test.
func registerProject(t *testing.T, s *State) models.Project {
	t.Helper()
	resp, err := s.Deploy(models.DeployRequest{RepoURL: "https://example.com/acme/app.git", Branch: "main"})
	require.NoError(t, err)
	<-s.Jobs()

	project, err := s.Project(resp.Slug)
	require.NoError(t, err)
	return project
}

func TestRolloverFailedReplacementCleansUp(t *testing.T) {
	engine := newFakeEngine()
	engine.running = false
	s := newEngineTestState(t, engine)
	project := registerProject(t, s)
	transientTag := project.Container.ImageName + ":build-1"

	err := s.rollover(context.Background(), &project, transientTag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new container failed to start")

	// transient artifacts are gone, the promotion never happened
	transientName := project.Container.ContainerName + "-new"
	assert.True(t, engine.called("remove "+transientName))
	assert.True(t, engine.called("rmi "+transientTag))
	assert.False(t, engine.called("rename"))
	assert.False(t, engine.called("tag"))

	// the old container was never touched and the record keeps its port
	assert.False(t, engine.called("stop "+project.Container.ContainerName))
	after, err := s.Project(project.Slug)
	require.NoError(t, err)
	assert.Equal(t, project.Domain.HostPort, after.Domain.HostPort)
}

func TestRolloverPromotesReplacement(t *testing.T) {
	engine := newFakeEngine()
	engine.running = true
	s := newEngineTestState(t, engine)
	project := registerProject(t, s)
	transientTag := project.Container.ImageName + ":build-1"

	require.NoError(t, s.rollover(context.Background(), &project, transientTag))

	containerName := project.Container.ContainerName
	assert.True(t, engine.called("stop "+containerName))
	assert.True(t, engine.called("remove "+containerName))
	assert.True(t, engine.called("rename "+containerName+"-new "+containerName))
	assert.True(t, engine.called("tag "+transientTag+" "+project.Container.ImageName+":latest"))
	assert.True(t, engine.called("rmi "+transientTag))

	// the record follows the replacement container's port
	after, err := s.Project(project.Slug)
	require.NoError(t, err)
	assert.Equal(t, engine.lastCreatePort(), after.Domain.HostPort)
	assert.False(t, after.UpdatedAt.Before(project.UpdatedAt))
}

func TestDeleteRemovesProjectFromStatuses(t *testing.T) {
	engine := newFakeEngine()
	s := newEngineTestState(t, engine)
	project := registerProject(t, s)

	require.NoError(t, s.Delete(context.Background(), project.Slug))

	statuses, err := s.ListStatuses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)

	_, err = s.Project(project.Slug)
	assert.True(t, errs.IsNotFound(err))

	// a second delete reports not found rather than failing mid-cleanup
	err = s.Delete(context.Background(), project.Slug)
	assert.True(t, errs.IsNotFound(err))
}
