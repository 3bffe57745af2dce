package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sasta-kro/dockyard/docker"
	"github.com/sasta-kro/dockyard/models"
	"github.com/sasta-kro/dockyard/util"
)

// rebuildStabilization is how long a freshly started replacement container
// gets to crash before the rollover commits to it. A fixed sleep, not a
// health probe: applications do not declare readiness endpoints here.
const rebuildStabilization = 3 * time.Second

// RunScheduler is the single consumer of the job queue. Each job runs in its
// own goroutine, so builds for distinct slugs proceed concurrently; the
// build tracker ensures at most one build per slug. Stop and Delete bypass
// the tracker: they are quick engine calls and must work even while a build
// for the slug is stuck.
func (s *State) RunScheduler(ctx context.Context) {
	s.logger.Info("scheduler started")
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			go s.dispatch(ctx, job)
		}
	}
}

func (s *State) dispatch(ctx context.Context, job models.Job) {
	switch job.Kind {
	case models.JobDeploy, models.JobRebuild:
		if !s.builds.tryBegin(job.Slug, job.Kind) {
			s.logger.Warn("build already in progress, dropping job", "slug", job.Slug, "kind", job.Kind)
			return
		}
		defer s.builds.end(job.Slug)
		s.runBuild(ctx, job)
	case models.JobStop:
		if err := s.Stop(ctx, job.Slug); err != nil {
			s.logger.Error("stop failed", "slug", job.Slug, "error", err)
		}
	case models.JobDelete:
		if err := s.Delete(ctx, job.Slug); err != nil {
			s.logger.Error("delete failed", "slug", job.Slug, "error", err)
		}
	}
}

// runBuild executes one deploy or rebuild attempt and records the outcome in
// the history ledger. Failures are logged and recorded, never propagated:
// there is no caller to propagate to.
func (s *State) runBuild(ctx context.Context, job models.Job) {
	attemptID, err := s.history.RecordStart(job.Slug, job.Kind, job.CommitSHA)
	if err != nil {
		s.logger.Warn("could not record build start", "slug", job.Slug, "error", err)
	}

	if job.Kind == models.JobDeploy {
		err = s.executeDeploy(ctx, job.Slug)
	} else {
		err = s.executeRebuild(ctx, job.Slug)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		s.logger.Error("build failed", "slug", job.Slug, "kind", job.Kind, "error", err)
	}
	if attemptID != 0 {
		if recErr := s.history.RecordResult(attemptID, errMsg); recErr != nil {
			s.logger.Warn("could not record build result", "slug", job.Slug, "error", recErr)
		}
	}
}

// executeDeploy is the first-time build: clone, build :latest, start the
// canonical container on the record's assigned port.
func (s *State) executeDeploy(ctx context.Context, slug string) error {
	project, err := s.Project(slug)
	if err != nil {
		return err
	}

	repoDir := s.store.RepoDir(slug)
	// clone requires a fresh destination; a leftover tree from a failed
	// earlier attempt is discarded.
	if err := os.RemoveAll(repoDir); err != nil {
		return err
	}

	s.logger.Info("cloning repository", "slug", slug, "repo", project.RepoURL, "branch", project.Branch)
	if err := util.GitClone(ctx, project.RepoURL, repoDir, project.Branch); err != nil {
		return err
	}

	dockerfile, err := docker.FindDockerfile(repoDir)
	if err != nil {
		return err
	}

	imageTag := project.Container.ImageName + ":latest"
	if err := s.docker.BuildImage(ctx, repoDir, dockerfile, imageTag); err != nil {
		return err
	}

	containerID, err := s.docker.CreateAndStart(ctx,
		project.Container.ContainerName, imageTag,
		project.Domain.HostPort, project.Domain.ContainerPort,
		project.Container.EnvVars)
	if err != nil {
		return err
	}

	s.mutateRecord(slug, func(p *models.Project) {
		p.UpdatedAt = time.Now().UTC()
	})

	s.logger.Info("deployed", "slug", slug, "container_id", shortID(containerID), "host_port", project.Domain.HostPort)
	return nil
}

// executeRebuild is the blue-green rollover. The new container comes up on
// a fresh port under a transient name and tag, proves it can survive a few
// seconds, and only then replaces the old one. Each step is ordered so a
// failure leaves the smallest possible mess: a leftover transient tag or
// container, never a dead canonical container while the old one still ran.
func (s *State) executeRebuild(ctx context.Context, slug string) error {
	project, err := s.Project(slug)
	if err != nil {
		return err
	}
	repoDir := s.store.RepoDir(slug)

	s.logger.Info("pulling latest code", "slug", slug, "branch", project.Branch)
	sha, err := util.GitPull(ctx, repoDir, project.Branch)
	if err != nil {
		return err
	}
	s.logger.Info("pulled", "slug", slug, "commit", shortSHA(sha))

	dockerfile, err := docker.FindDockerfile(repoDir)
	if err != nil {
		return err
	}

	transientTag := fmt.Sprintf("%s:build-%d", project.Container.ImageName, time.Now().Unix())
	if err := s.docker.BuildImage(ctx, repoDir, dockerfile, transientTag); err != nil {
		return err
	}

	return s.rollover(ctx, &project, transientTag)
}

// rollover is the swap half of a rebuild: bring up the replacement container
// from an already-built transient tag, verify it survives the stabilization
// window, and only then retire the old container and promote the new one.
// A failed replacement leaves the old container running and removes the
// transient artifacts.
func (s *State) rollover(ctx context.Context, project *models.Project, transientTag string) error {
	slug := project.Slug
	containerName := project.Container.ContainerName
	transientName := containerName + "-new"
	freshPort, err := util.FindAvailablePort()
	if err != nil {
		return err
	}

	s.logger.Info("starting replacement container", "slug", slug, "host_port", freshPort)
	if _, err := s.docker.CreateAndStart(ctx, transientName, transientTag,
		freshPort, project.Domain.ContainerPort, project.Container.EnvVars); err != nil {
		return err
	}

	time.Sleep(s.stabilization)

	running, err := s.docker.IsRunning(ctx, transientName)
	if err != nil {
		return err
	}
	if !running {
		if err := s.docker.Remove(ctx, transientName); err != nil {
			s.logger.Debug("transient container cleanup", "slug", slug, "error", err)
		}
		if err := s.docker.RemoveImage(ctx, transientTag); err != nil {
			s.logger.Debug("transient image cleanup", "slug", slug, "error", err)
		}
		return fmt.Errorf("new container failed to start")
	}

	// the old container goes away best-effort: on a first rebuild after a
	// failed deploy there may be nothing to stop.
	s.logger.Info("switching to replacement container", "slug", slug)
	if err := s.docker.Stop(ctx, containerName); err != nil {
		s.logger.Debug("old container stop", "slug", slug, "error", err)
	}
	if err := s.docker.Remove(ctx, containerName); err != nil {
		s.logger.Debug("old container remove", "slug", slug, "error", err)
	}

	if err := s.docker.Rename(ctx, transientName, containerName); err != nil {
		return err
	}

	if err := s.docker.Tag(ctx, transientTag, project.Container.ImageName+":latest"); err != nil {
		return err
	}
	if err := s.docker.RemoveImage(ctx, transientTag); err != nil {
		s.logger.Debug("transient tag removal", "slug", slug, "error", err)
	}

	s.mutateRecord(slug, func(p *models.Project) {
		p.Domain.HostPort = freshPort
		p.UpdatedAt = time.Now().UTC()
	})

	if project.Domain.Hostname != "" {
		if err := s.proxy.UpdateRoute(ctx, slug, freshPort); err != nil {
			s.logger.Warn("could not update proxy route", "slug", slug, "error", err)
		}
	}

	s.logger.Info("rebuild complete", "slug", slug, "host_port", freshPort)
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
