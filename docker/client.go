// Package docker wraps the Docker SDK client and provides the high-level
// operations the daemon needs: creating and starting project containers,
// stopping and removing them, building images, and observing state and
// resource usage. All SDK calls are isolated here so no other package
// imports the Docker SDK directly.
package docker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dockerclient "github.com/docker/docker/client"
)

// Client wraps the SDK client with a logger. The SDK client manages the
// connection to the engine over the Unix socket and is safe to share across
// goroutines, so one Client serves the whole daemon.
type Client struct {
	sdk    *dockerclient.Client
	logger *slog.Logger
}

// NewClient connects to the Docker engine using the environment defaults
// (DOCKER_HOST or the standard socket) and verifies the connection with a
// ping before returning. An error here is fatal to the daemon: if the engine
// is unreachable, the platform cannot function.
func NewClient(logger *slog.Logger) (*Client, error) {
	sdk, err := dockerclient.NewClientWithOpts(
		dockerclient.FromEnv,
		// negotiate the highest API version both sides support; without
		// this a version mismatch fails every call.
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker sdk client: %w", err)
	}

	client := &Client{sdk: sdk, logger: logger}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	logger.Info("docker client connected", "host", sdk.DaemonHost())
	return client, nil
}

// Ping verifies engine reachability.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.sdk.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying SDK connection.
func (c *Client) Close() error {
	return c.sdk.Close()
}
