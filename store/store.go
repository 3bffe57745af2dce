/*
Package store persists project records on disk. Each project owns one
directory under <data>/projects/<slug>/ containing:

	project.toml  - the record itself
	repo/         - the git working tree the scheduler builds from
	logs/         - reserved for future per-project log files

There is no file locking and no cross-project transaction: a single daemon
process is the only writer, and each record is written atomically by writing
a temporary sibling and renaming it into place.
*/
package store

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
)

const recordFileName = "project.toml"

// Store wraps the projects directory with a logger. Wrapping rather than
// exposing path helpers keeps the on-disk layout private to this package.
type Store struct {
	root   string
	logger *slog.Logger
}

// New constructs a Store rooted at the given projects directory, creating it
// if absent.
func New(root string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, logger: logger}, nil
}

// ProjectDir returns the directory owned by a slug.
func (s *Store) ProjectDir(slug string) string {
	return filepath.Join(s.root, slug)
}

// RepoDir returns the git working tree directory for a slug.
func (s *Store) RepoDir(slug string) string {
	return filepath.Join(s.root, slug, "repo")
}

func (s *Store) recordPath(slug string) string {
	return filepath.Join(s.root, slug, recordFileName)
}

// ListSlugs returns the sorted slugs of every directory that contains a
// record file. Directories without one (half-deleted projects, stray files)
// are skipped silently.
func (s *Store) ListSlugs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var slugs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(s.recordPath(entry.Name())); err == nil {
			slugs = append(slugs, entry.Name())
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// Load reads and decodes the record for a slug. A missing record file is a
// NotFound error; a record that exists but does not parse is a Config error,
// because it means someone edited the file by hand and got it wrong.
func (s *Store) Load(slug string) (*models.Project, error) {
	raw, err := os.ReadFile(s.recordPath(slug))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NotFound(slug)
		}
		return nil, err
	}

	project := &models.Project{
		// Fields absent from old record files keep these defaults.
		Branch:  "main",
		Enabled: true,
	}
	if err := toml.Unmarshal(raw, project); err != nil {
		return nil, errs.Config("record for " + slug + ": " + err.Error())
	}
	if project.Container.DockerfilePath == "" {
		project.Container.DockerfilePath = "Dockerfile"
	}
	return project, nil
}

// LoadAll loads every listed record, skipping (and logging) any that fail to
// parse so one corrupt file cannot keep the daemon from starting.
func (s *Store) LoadAll() ([]*models.Project, error) {
	slugs, err := s.ListSlugs()
	if err != nil {
		return nil, err
	}

	var projects []*models.Project
	for _, slug := range slugs {
		project, err := s.Load(slug)
		if err != nil {
			s.logger.Warn("failed to load project record", "slug", slug, "error", err)
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// Save writes the record atomically: encode to a temporary sibling file,
// then rename over the destination. A crash mid-write leaves either the old
// record or the new one, never a truncated file.
func (s *Store) Save(project *models.Project) error {
	dir := s.ProjectDir(project.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	raw, err := toml.Marshal(project)
	if err != nil {
		return errs.Config(err.Error())
	}

	tmp, err := os.CreateTemp(dir, recordFileName+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.recordPath(project.Slug))
}

// Delete removes the project directory and everything under it: record,
// working tree, logs. Deleting a slug that was never saved is a no-op.
func (s *Store) Delete(slug string) error {
	return os.RemoveAll(s.ProjectDir(slug))
}
