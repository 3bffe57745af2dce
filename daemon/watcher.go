package daemon

import (
	"context"
	"time"

	"github.com/sasta-kro/dockyard/models"
)

// watcherInterval is how often the health watcher reconciles observed
// container state against intent.
const watcherInterval = 30 * time.Second

// RunWatcher is the periodic reconciliation loop. Every tick it snapshots
// the records and, for each enabled project, compares the engine's view with
// what should be true: a stopped container is restarted, a running one left
// alone. It never mutates records and never creates containers; creation is
// the scheduler's job.
func (s *State) RunWatcher(ctx context.Context) {
	s.logger.Info("health watcher started", "interval", watcherInterval)
	ticker := time.NewTicker(watcherInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

func (s *State) reconcile(ctx context.Context) {
	for _, project := range s.snapshot() {
		if !project.Enabled {
			continue
		}
		// a slug mid-build is in a transient state the watcher must not
		// touch; the rollover briefly stops the old container on purpose.
		if _, building := s.builds.kind(project.Slug); building {
			continue
		}

		state, err := s.docker.State(ctx, project.Container.ContainerName)
		if err != nil {
			s.logger.Error("health check failed", "slug", project.Slug, "error", err)
			continue
		}

		switch state {
		case models.StateOnline:
			// healthy
		case models.StateStopped:
			s.logger.Warn("container stopped unexpectedly, restarting", "slug", project.Slug)
			if err := s.docker.Start(ctx, project.Container.ContainerName); err != nil {
				s.logger.Error("restart failed", "slug", project.Slug, "error", err)
			} else {
				s.logger.Info("restarted", "slug", project.Slug)
			}
		default:
			s.logger.Debug("container state", "slug", project.Slug, "state", state)
		}
	}
}
