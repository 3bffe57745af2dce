package daemon

import (
	"context"

	"github.com/sasta-kro/dockyard/models"
)

// Restore brings reality back in line with the records after a daemon
// restart. Containers that survived (restart policy, host reboot with the
// engine's autostart) are left alone; stopped ones are started; anything
// missing is rebuilt from scratch via a deploy job. Disabled projects are
// skipped entirely.
func (s *State) Restore(ctx context.Context) error {
	for _, project := range s.snapshot() {
		if !project.Enabled {
			s.logger.Info("project disabled, skipping", "slug", project.Slug)
			continue
		}

		state, err := s.docker.State(ctx, project.Container.ContainerName)
		if err != nil {
			return err
		}

		switch state {
		case models.StateOnline:
			s.logger.Info("already running", "slug", project.Slug)
		case models.StateStopped:
			s.logger.Info("starting stopped container", "slug", project.Slug)
			if err := s.docker.Start(ctx, project.Container.ContainerName); err != nil {
				return err
			}
		default:
			s.logger.Info("container missing, queueing deploy", "slug", project.Slug)
			s.jobs <- models.Job{Kind: models.JobDeploy, Slug: project.Slug}
		}
	}
	return nil
}
