package daemon

import (
	"context"

	"github.com/sasta-kro/dockyard/models"
)

// Engine is the container-engine surface the daemon drives. docker.Client is
// the production implementation; tests substitute a fake to exercise the
// scheduler's step sequences without an engine connection.
type Engine interface {
	BuildImage(ctx context.Context, repoDir, dockerfile, imageTag string) error
	CreateAndStart(ctx context.Context, containerName, imageTag string, hostPort, containerPort int, envVars map[string]string) (string, error)
	Start(ctx context.Context, containerName string) error
	Stop(ctx context.Context, containerName string) error
	Remove(ctx context.Context, containerName string) error
	Rename(ctx context.Context, from, to string) error
	Tag(ctx context.Context, source, target string) error
	RemoveImage(ctx context.Context, ref string) error
	State(ctx context.Context, containerName string) (models.ProjectState, error)
	IsRunning(ctx context.Context, containerName string) (bool, error)
	Stats(ctx context.Context, containerName string) (float64, float64, error)
	Uptime(ctx context.Context, containerName string) (*uint64, error)
	Logs(ctx context.Context, containerName string, tail int, follow bool) ([]string, error)
}
