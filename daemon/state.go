// Package daemon contains the long-running side of the system: the shared
// state every handler operates on, the job scheduler that executes deploys
// and rebuilds, the health watcher, the startup reconciler, and the external
// collaborators (reverse proxy admin client, tunnel supervisor). The HTTP
// surface itself lives in the handlers package; the CLI entry point wires
// the two together.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sasta-kro/dockyard/config"
	"github.com/sasta-kro/dockyard/db"
	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
	"github.com/sasta-kro/dockyard/store"
	"github.com/sasta-kro/dockyard/util"
)

// jobQueueCapacity bounds the scheduler queue. Producers block when the
// queue is full, which is the backpressure mechanism: a hundred pending
// builds means something is very wrong and slowing the producers down is
// the right answer.
const jobQueueCapacity = 100

// defaultContainerPort is assumed when a deploy request does not say which
// port the application listens on.
const defaultContainerPort = 3000

// State is the process-wide shared state. One instance exists per daemon
// process; handlers, the scheduler, the watcher, and the webhook ingress all
// hold the same pointer.
//
// Locking: cfg and the projects map have their own read-write locks. Records
// leave the map only as clones, so no caller ever holds a reference into the
// map across an engine call.
type State struct {
	cfg   *config.Global
	cfgMu sync.RWMutex

	docker  Engine
	store   *store.Store
	history *db.History
	proxy   *Proxy
	tunnel  *Tunnel

	projects   map[string]*models.Project
	projectsMu sync.RWMutex

	jobs   chan models.Job
	builds *buildTracker

	// stabilization is how long a replacement container must stay up before
	// a rollover commits to it. Tests shorten it.
	stabilization time.Duration

	startedAt time.Time
	logger    *slog.Logger
}

// NewState wires the shared state together. The engine is an interface so
// tests can drive builds against a fake; tests that never reach the engine
// (deploy registration, webhook verification, config) may pass nil.
func NewState(cfg *config.Global, engine Engine, st *store.Store, history *db.History, logger *slog.Logger) *State {
	return &State{
		cfg:           cfg,
		docker:        engine,
		store:         st,
		history:       history,
		proxy:         NewProxy(cfg.Proxy.AdminAPI, logger),
		tunnel:        NewTunnel(logger),
		projects:      make(map[string]*models.Project),
		jobs:          make(chan models.Job, jobQueueCapacity),
		builds:        newBuildTracker(),
		stabilization: rebuildStabilization,
		startedAt:     time.Now(),
		logger:        logger,
	}
}

// LoadRecords fills the in-memory map from disk. Called once at startup,
// before anything can enqueue work.
func (s *State) LoadRecords() error {
	projects, err := s.store.LoadAll()
	if err != nil {
		return err
	}
	s.projectsMu.Lock()
	defer s.projectsMu.Unlock()
	for _, project := range projects {
		s.projects[project.Slug] = project
		s.logger.Info("loaded project", "slug", project.Slug)
	}
	return nil
}

// Tunnel exposes the tunnel supervisor for the bootstrap sequence.
func (s *State) Tunnel() *Tunnel {
	return s.tunnel
}

// Jobs exposes the queue receiver. The scheduler consumes it; tests observe
// it.
func (s *State) Jobs() <-chan models.Job {
	return s.jobs
}

// UptimeSecs reports seconds since the daemon process started.
func (s *State) UptimeSecs() uint64 {
	return uint64(time.Since(s.startedAt).Seconds())
}

// ProjectCount reports the number of loaded records.
func (s *State) ProjectCount() int {
	s.projectsMu.RLock()
	defer s.projectsMu.RUnlock()
	return len(s.projects)
}

// Project returns a clone of the record for a slug, or NotFound.
func (s *State) Project(slug string) (models.Project, error) {
	s.projectsMu.RLock()
	defer s.projectsMu.RUnlock()
	project, ok := s.projects[slug]
	if !ok {
		return models.Project{}, errs.NotFound(slug)
	}
	return project.Clone(), nil
}

// snapshot returns clones of every record, sorted by slug for stable output.
func (s *State) snapshot() []models.Project {
	s.projectsMu.RLock()
	defer s.projectsMu.RUnlock()
	out := make([]models.Project, 0, len(s.projects))
	for _, project := range s.projects {
		out = append(out, project.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// mutateRecord applies fn to the stored record under the write lock and
// persists the result. A no-op when the record was deleted in the meantime.
func (s *State) mutateRecord(slug string, fn func(*models.Project)) {
	s.projectsMu.Lock()
	defer s.projectsMu.Unlock()
	project, ok := s.projects[slug]
	if !ok {
		return
	}
	fn(project)
	if err := s.store.Save(project); err != nil {
		s.logger.Error("failed to persist project record", "slug", slug, "error", err)
	}
}

// webhookURL is the address a git host should POST push events to. The
// daemon cannot know its own public address, so the placeholder is left for
// the operator to substitute.
func (s *State) webhookURL(slug string) string {
	s.cfgMu.RLock()
	port := s.cfg.Daemon.WebhookPort
	s.cfgMu.RUnlock()
	return fmt.Sprintf("http://YOUR_SERVER:%d/webhook/%s", port, slug)
}

// Deploy registers a new project and enqueues its first build. The name and
// slug are derived from the repository URL; a slug collision is a conflict.
// The record is persisted and inserted into the map before the job is
// enqueued, so the scheduler is guaranteed to observe it.
func (s *State) Deploy(req models.DeployRequest) (*models.DeployResponse, error) {
	name := util.RepoName(req.RepoURL)
	slug := util.Slugify(name)

	s.projectsMu.RLock()
	_, exists := s.projects[slug]
	s.projectsMu.RUnlock()
	if exists {
		return nil, errs.AlreadyExists(slug)
	}

	branch := req.Branch
	if branch == "" {
		branch = "main"
	}
	containerPort := req.ContainerPort
	if containerPort == 0 {
		containerPort = defaultContainerPort
	}
	mode := req.NetworkMode
	if mode == "" {
		mode = models.NetworkLocalOnly
	}

	hostPort, err := util.FindAvailablePort()
	if err != nil {
		return nil, err
	}
	secret, err := util.GenerateWebhookSecret()
	if err != nil {
		return nil, err
	}

	project := models.NewProject(name, slug, req.RepoURL, branch, mode, req.Hostname, containerPort, hostPort, secret)
	if len(req.EnvVars) > 0 {
		for key, value := range req.EnvVars {
			project.Container.EnvVars[key] = value
		}
	}

	if err := s.store.Save(project); err != nil {
		return nil, err
	}

	s.projectsMu.Lock()
	s.projects[slug] = project
	s.projectsMu.Unlock()

	if project.Domain.Hostname != "" {
		// route failures do not fail the deploy: the proxy may simply not be
		// running yet, and the route can be re-added by a later rebuild.
		if err := s.proxy.AddRoute(context.Background(), slug, project.Domain.Hostname, hostPort); err != nil {
			s.logger.Warn("could not add proxy route", "slug", slug, "error", err)
		}
	}

	s.jobs <- models.Job{Kind: models.JobDeploy, Slug: slug}
	s.logger.Info("project registered", "slug", slug, "repo", req.RepoURL, "branch", branch)

	return &models.DeployResponse{
		Slug:       slug,
		Name:       name,
		URL:        project.URL(),
		WebhookURL: s.webhookURL(slug),
		HostPort:   hostPort,
	}, nil
}

// Rebuild enqueues a rebuild for an existing project. commitSHA is optional
// and informational (webhook pushes carry one, manual rebuilds do not).
func (s *State) Rebuild(slug, commitSHA string) error {
	s.projectsMu.RLock()
	_, exists := s.projects[slug]
	s.projectsMu.RUnlock()
	if !exists {
		return errs.NotFound(slug)
	}
	s.jobs <- models.Job{Kind: models.JobRebuild, Slug: slug, CommitSHA: commitSHA}
	return nil
}

// Start starts the project's existing container.
func (s *State) Start(ctx context.Context, slug string) error {
	project, err := s.Project(slug)
	if err != nil {
		return err
	}
	return s.docker.Start(ctx, project.Container.ContainerName)
}

// Stop stops the project's container with the engine's graceful timeout.
func (s *State) Stop(ctx context.Context, slug string) error {
	project, err := s.Project(slug)
	if err != nil {
		return err
	}
	return s.docker.Stop(ctx, project.Container.ContainerName)
}

// Delete removes the project completely: container, image, proxy route,
// in-memory record, on-disk directory, and build history. Engine-side
// removals are best-effort so a half-deployed project can still be deleted.
func (s *State) Delete(ctx context.Context, slug string) error {
	project, err := s.Project(slug)
	if err != nil {
		return err
	}

	containerName := project.Container.ContainerName
	if err := s.docker.Stop(ctx, containerName); err != nil {
		s.logger.Debug("stop during delete", "slug", slug, "error", err)
	}
	if err := s.docker.Remove(ctx, containerName); err != nil {
		s.logger.Debug("remove during delete", "slug", slug, "error", err)
	}
	if err := s.docker.RemoveImage(ctx, project.Container.ImageName+":latest"); err != nil {
		s.logger.Debug("image remove during delete", "slug", slug, "error", err)
	}
	if project.Domain.Hostname != "" {
		s.proxy.RemoveRoute(ctx, slug)
	}

	s.projectsMu.Lock()
	delete(s.projects, slug)
	s.projectsMu.Unlock()

	if err := s.store.Delete(slug); err != nil {
		return err
	}
	if err := s.history.Purge(slug); err != nil {
		s.logger.Warn("could not purge build history", "slug", slug, "error", err)
	}

	s.logger.Info("deleted project", "slug", slug)
	return nil
}

// Logs returns the last tail lines of the project's container output.
func (s *State) Logs(ctx context.Context, slug string, tail int) ([]string, error) {
	project, err := s.Project(slug)
	if err != nil {
		return nil, err
	}
	return s.docker.Logs(ctx, project.Container.ContainerName, tail, false)
}

// History returns the most recent build attempts for a project, newest
// first, or NotFound for an unknown slug.
func (s *State) History(slug string, limit int) ([]models.HistoryEntry, error) {
	if _, err := s.Project(slug); err != nil {
		return nil, err
	}
	return s.history.Recent(slug, limit)
}

// statusFor synthesizes the ephemeral status view for one record. An
// in-flight build wins over whatever the engine observes, because the engine
// sees only the confusing intermediate states of a rollover.
func (s *State) statusFor(ctx context.Context, project *models.Project) models.ProjectStatus {
	status := models.ProjectStatus{
		Slug:          project.Slug,
		Name:          project.Name,
		URL:           project.URL(),
		HostPort:      project.Domain.HostPort,
		ContainerPort: project.Domain.ContainerPort,
		NetworkMode:   string(project.NetworkMode),
	}
	lastDeploy := project.UpdatedAt
	status.LastDeploy = &lastDeploy

	if kind, building := s.builds.kind(project.Slug); building {
		if kind == models.JobRebuild {
			status.State = models.StateRebuilding
		} else {
			status.State = models.StateBuilding
		}
		return status
	}

	state, err := s.docker.State(ctx, project.Container.ContainerName)
	if err != nil {
		s.logger.Error("container state query failed", "slug", project.Slug, "error", err)
		status.State = models.StateError
	} else {
		status.State = state
	}

	if status.State == models.StateOnline {
		if memory, cpu, err := s.docker.Stats(ctx, project.Container.ContainerName); err == nil {
			status.MemoryUsageMB = &memory
			status.CPUPercent = &cpu
		}
		if uptime, err := s.docker.Uptime(ctx, project.Container.ContainerName); err == nil {
			status.UptimeSecs = uptime
		}
	}

	if lastError, err := s.history.LastError(project.Slug); err == nil && lastError != "" {
		status.LastError = lastError
	}

	return status
}

// ListStatuses returns the status view of every project, sorted by slug.
func (s *State) ListStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	projects := s.snapshot()
	statuses := make([]models.ProjectStatus, 0, len(projects))
	for i := range projects {
		statuses = append(statuses, s.statusFor(ctx, &projects[i]))
	}
	return statuses, nil
}

// Detail returns the full detail view for one project: live status plus the
// record fields the status command shows.
func (s *State) Detail(ctx context.Context, slug string) (*models.ProjectDetailResponse, error) {
	project, err := s.Project(slug)
	if err != nil {
		return nil, err
	}
	return &models.ProjectDetailResponse{
		Status:        s.statusFor(ctx, &project),
		RepoURL:       project.RepoURL,
		Branch:        project.Branch,
		WebhookSecret: project.Webhook.Secret,
	}, nil
}

// ConfigInfo returns the redacted configuration view. Secrets are reported
// as presence booleans only; they never cross the socket.
func (s *State) ConfigInfo() models.ConfigResponse {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return models.ConfigResponse{
		GitHubSSHKeyPath:   s.cfg.GitHub.SSHKeyPath,
		GitHubAPITokenSet:  s.cfg.GitHub.APIToken != "",
		CloudflareEnabled:  s.cfg.Cloudflare.Enabled,
		CloudflareTunnelID: s.cfg.Cloudflare.TunnelID,
		WebhookPort:        s.cfg.Daemon.WebhookPort,
		SocketPath:         s.cfg.Daemon.SocketPath,
	}
}

// UpdateConfig merges a partial update into the global config and persists
// it before acknowledging. Toggling the tunnel takes effect immediately.
func (s *State) UpdateConfig(req models.ConfigUpdateRequest) error {
	s.cfgMu.Lock()
	if req.GitHubSSHKeyPath != nil {
		s.cfg.GitHub.SSHKeyPath = *req.GitHubSSHKeyPath
	}
	if req.GitHubAPIToken != nil {
		s.cfg.GitHub.APIToken = *req.GitHubAPIToken
	}
	if req.CloudflareTunnelToken != nil {
		s.cfg.Cloudflare.TunnelToken = *req.CloudflareTunnelToken
	}
	if req.CloudflareEnabled != nil {
		s.cfg.Cloudflare.Enabled = *req.CloudflareEnabled
	}
	err := s.cfg.Save()
	enabled := s.cfg.Cloudflare.Enabled
	token := s.cfg.Cloudflare.TunnelToken
	webhookPort := s.cfg.Daemon.WebhookPort
	s.cfgMu.Unlock()
	if err != nil {
		return err
	}

	switch {
	case enabled && !s.tunnel.IsRunning():
		if token != "" {
			if err := s.tunnel.StartNamed(token); err != nil {
				s.logger.Warn("could not start tunnel", "error", err)
			}
		} else if url, err := s.tunnel.StartQuick(webhookPort); err != nil {
			s.logger.Warn("could not start quick tunnel", "error", err)
		} else {
			s.logger.Info("webhook ingress exposed", "url", url)
		}
	case !enabled && s.tunnel.IsRunning():
		if err := s.tunnel.Stop(); err != nil {
			s.logger.Warn("could not stop tunnel", "error", err)
		}
	}
	return nil
}
