// Package models defines the data structures shared across the application.
// this package has no imports from other internal packages, making it the
// foundation of the dependency graph. other packages (store, docker, daemon,
// handlers) import from here.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NamePrefix is the fixed prefix used to derive container and image names
// from a slug. container_name = "dockyard-<slug>", image_name =
// "dockyard/<slug>". These are derived, never edited independently of the slug.
const NamePrefix = "dockyard"

// ProjectState represents the observed lifecycle state of a project's
// container. using a named string type instead of plain string enforces that
// only valid states are used at compile time when combined with the constants
// below.
type ProjectState string

const (
	// StateOnline means the container exists and the engine reports it running.
	StateOnline ProjectState = "online"

	// StateBuilding means the scheduler is executing the initial deploy.
	StateBuilding ProjectState = "building"

	// StateRebuilding means the scheduler is executing a blue-green rollover.
	StateRebuilding ProjectState = "rebuilding"

	// StateStarting means the container exists but is created or restarting.
	StateStarting ProjectState = "starting"

	// StateOffline means no container with the canonical name exists.
	StateOffline ProjectState = "offline"

	// StateStopped means the container exists but has exited.
	StateStopped ProjectState = "stopped"

	// StateError means the engine query itself failed.
	StateError ProjectState = "error"
)

// Display returns the human-readable form used by the CLI.
func (s ProjectState) Display() string {
	switch s {
	case StateOnline:
		return "Online"
	case StateBuilding:
		return "Building"
	case StateRebuilding:
		return "Rebuilding"
	case StateStarting:
		return "Starting"
	case StateStopped:
		return "Stopped"
	case StateError:
		return "Error"
	default:
		return "Offline"
	}
}

// NetworkMode controls how a project is exposed.
type NetworkMode string

const (
	// NetworkLocalOnly binds the host port on this machine only; the project
	// is reachable at http://localhost:<host_port>.
	NetworkLocalOnly NetworkMode = "local_only"

	// NetworkPublic exposes the project through the tunnel / reverse proxy.
	NetworkPublic NetworkMode = "public"
)

// Display returns the human-readable form used by the CLI.
func (m NetworkMode) Display() string {
	if m == NetworkPublic {
		return "Public"
	}
	return "Local Only"
}

// DomainConfig holds the routing half of a project record: the optional
// public hostname and the port pair the container is bound to.
type DomainConfig struct {
	Hostname      string `toml:"hostname,omitempty" json:"hostname,omitempty"`
	ContainerPort int    `toml:"container_port" json:"container_port"`
	HostPort      int    `toml:"host_port" json:"host_port"`
}

// ContainerConfig holds the engine-facing identifiers and build inputs.
// ImageName and ContainerName are derived from the slug at creation time.
type ContainerConfig struct {
	ImageName      string            `toml:"image_name" json:"image_name"`
	ContainerName  string            `toml:"container_name" json:"container_name"`
	DockerfilePath string            `toml:"dockerfile_path" json:"dockerfile_path"`
	EnvVars        map[string]string `toml:"env_vars,omitempty" json:"env_vars,omitempty"`
}

// WebhookConfig holds the HMAC signing secret for push notifications and,
// when the daemon registered the hook through the git host API, its id.
type WebhookConfig struct {
	Secret           string `toml:"secret" json:"secret"`
	GitHostWebhookID uint64 `toml:"git_host_webhook_id,omitempty" json:"git_host_webhook_id,omitempty"`
}

// Project is the persisted per-project record. One record maps to one
// directory under the data root and to at most one running container.
type Project struct {
	ID          uuid.UUID       `toml:"id" json:"id"`
	Name        string          `toml:"name" json:"name"`
	Slug        string          `toml:"slug" json:"slug"`
	RepoURL     string          `toml:"repo_url" json:"repo_url"`
	Branch      string          `toml:"branch" json:"branch"`
	NetworkMode NetworkMode     `toml:"network_mode" json:"network_mode"`
	Domain      DomainConfig    `toml:"domain" json:"domain"`
	Container   ContainerConfig `toml:"container" json:"container"`
	Webhook     WebhookConfig   `toml:"webhook" json:"webhook"`
	CreatedAt   time.Time       `toml:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `toml:"updated_at" json:"updated_at"`
	Enabled     bool            `toml:"enabled" json:"enabled"`
}

// ContainerName derives the canonical container name for a slug.
func ContainerName(slug string) string {
	return fmt.Sprintf("%s-%s", NamePrefix, slug)
}

// ImageName derives the canonical image repository for a slug.
func ImageName(slug string) string {
	return fmt.Sprintf("%s/%s", NamePrefix, slug)
}

// NewProject builds a record with derived identifiers, a fresh id and
// webhook secret, and both timestamps set to now (UTC).
func NewProject(name, slug, repoURL, branch string, mode NetworkMode, hostname string, containerPort, hostPort int, secret string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		RepoURL:     repoURL,
		Branch:      branch,
		NetworkMode: mode,
		Domain: DomainConfig{
			Hostname:      hostname,
			ContainerPort: containerPort,
			HostPort:      hostPort,
		},
		Container: ContainerConfig{
			ImageName:      ImageName(slug),
			ContainerName:  ContainerName(slug),
			DockerfilePath: "Dockerfile",
			EnvVars:        map[string]string{},
		},
		Webhook: WebhookConfig{
			Secret: secret,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Enabled:   true,
	}
}

// URL reconstructs the user-facing address for the project, if any:
// a configured hostname wins, local-only projects fall back to localhost
// with the bound host port, and public projects without a hostname have
// no stable address.
func (p *Project) URL() string {
	if p.Domain.Hostname != "" {
		return "https://" + p.Domain.Hostname
	}
	if p.NetworkMode == NetworkLocalOnly {
		return fmt.Sprintf("http://localhost:%d", p.Domain.HostPort)
	}
	return ""
}

// Clone returns a deep copy. Records handed out of the daemon's map are
// always clones so readers never share the env var map with the scheduler.
func (p *Project) Clone() Project {
	out := *p
	if p.Container.EnvVars != nil {
		env := make(map[string]string, len(p.Container.EnvVars))
		for k, v := range p.Container.EnvVars {
			env[k] = v
		}
		out.Container.EnvVars = env
	}
	return out
}

// ProjectStatus is the ephemeral per-project view synthesized on each query
// by combining the stored record with live engine observations. It is never
// persisted.
type ProjectStatus struct {
	Slug          string       `json:"slug"`
	Name          string       `json:"name"`
	State         ProjectState `json:"state"`
	UptimeSecs    *uint64      `json:"uptime_secs,omitempty"`
	MemoryUsageMB *float64     `json:"memory_usage_mb,omitempty"`
	CPUPercent    *float64     `json:"cpu_percent,omitempty"`
	URL           string       `json:"url,omitempty"`
	HostPort      int          `json:"host_port"`
	ContainerPort int          `json:"container_port"`
	NetworkMode   string       `json:"network_mode"`
	LastDeploy    *time.Time   `json:"last_deploy,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
}
