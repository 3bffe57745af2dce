package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(t.TempDir(), logger)
	require.NoError(t, err)
	return s
}

func sampleProject(slug string) *models.Project {
	p := models.NewProject(slug, slug, "https://example.com/acme/"+slug+".git",
		"main", models.NetworkLocalOnly, "", 3000, 49152, "s3cret")
	p.Container.EnvVars["DATABASE_URL"] = "postgres://localhost/app"
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	saved := sampleProject("widgets")
	require.NoError(t, s.Save(saved))

	loaded, err := s.Load("widgets")
	require.NoError(t, err)

	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, saved.Name, loaded.Name)
	assert.Equal(t, saved.Slug, loaded.Slug)
	assert.Equal(t, saved.RepoURL, loaded.RepoURL)
	assert.Equal(t, saved.Branch, loaded.Branch)
	assert.Equal(t, saved.NetworkMode, loaded.NetworkMode)
	assert.Equal(t, saved.Domain, loaded.Domain)
	assert.Equal(t, saved.Container.ContainerName, loaded.Container.ContainerName)
	assert.Equal(t, saved.Container.ImageName, loaded.Container.ImageName)
	assert.Equal(t, saved.Container.EnvVars, loaded.Container.EnvVars)
	assert.Equal(t, saved.Webhook.Secret, loaded.Webhook.Secret)
	assert.True(t, loaded.Enabled)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load("nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestListSlugsSortedAndFiltered(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(sampleProject("zebra")))
	require.NoError(t, s.Save(sampleProject("alpha")))

	// a directory without a record file is not a project
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "stray"), 0o755))

	slugs, err := s.ListSlugs()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zebra"}, slugs)
}

func TestDeleteRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(sampleProject("widgets")))
	require.NoError(t, os.MkdirAll(s.RepoDir("widgets"), 0o755))

	require.NoError(t, s.Delete("widgets"))

	_, err := s.Load("widgets")
	assert.True(t, errs.IsNotFound(err))
	_, statErr := os.Stat(s.ProjectDir("widgets"))
	assert.True(t, os.IsNotExist(statErr))

	// deleting again is a no-op
	assert.NoError(t, s.Delete("widgets"))
}

func TestLoadAllSkipsCorruptRecords(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(sampleProject("good")))

	badDir := filepath.Join(s.root, "bad")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "project.toml"), []byte("not [toml"), 0o644))

	projects, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "good", projects[0].Slug)
}

func TestLoadDefaultsForSparseRecord(t *testing.T) {
	s := newTestStore(t)
	dir := filepath.Join(s.root, "sparse")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	raw := `
id = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
name = "sparse"
slug = "sparse"
repo_url = "https://example.com/sparse.git"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.toml"), []byte(raw), 0o644))

	p, err := s.Load("sparse")
	require.NoError(t, err)
	assert.Equal(t, "main", p.Branch)
	assert.True(t, p.Enabled)
	assert.Equal(t, "Dockerfile", p.Container.DockerfilePath)
}
