package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/sasta-kro/dockyard/models"
)

// stopTimeoutSecs is the grace period before the engine escalates from
// SIGTERM to SIGKILL on stop.
const stopTimeoutSecs = 10

// CreateAndStart creates a container from an already-built image and starts
// it. Policy is fixed for every project container: restart unless-stopped
// (survives crashes and host reboots without an external process manager),
// a single TCP port published on 0.0.0.0:<hostPort>, env vars flattened to
// KEY=VALUE, and membership in the shared bridge network. Returns the
// container id.
func (c *Client) CreateAndStart(ctx context.Context, containerName, imageTag string, hostPort, containerPort int, envVars map[string]string) (string, error) {
	env := make([]string, 0, len(envVars))
	for key, value := range envVars {
		env = append(env, key+"="+value)
	}

	port, err := nat.NewPort("tcp", fmt.Sprintf("%d", containerPort))
	if err != nil {
		return "", fmt.Errorf("invalid container port %d: %w", containerPort, err)
	}

	containerConfig := &container.Config{
		Image:        imageTag,
		Env:          env,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{
				HostIP:   "0.0.0.0",
				HostPort: fmt.Sprintf("%d", hostPort),
			}},
		},
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyUnlessStopped,
		},
	}

	// joining the network at creation rather than after start avoids the
	// window where the container runs but is not yet routable.
	networkingConfig := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			NetworkName: {},
		},
	}

	// nil platform = host native architecture.
	var platform *ocispec.Platform

	createResponse, err := c.sdk.ContainerCreate(ctx, containerConfig, hostConfig, networkingConfig, platform, containerName)
	if err != nil {
		return "", fmt.Errorf("failed to create container %q: %w", containerName, err)
	}

	if err := c.sdk.ContainerStart(ctx, createResponse.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container %q: %w", containerName, err)
	}

	c.logger.Info("container started",
		"container_id", shortID(createResponse.ID),
		"container_name", containerName,
		"host_port", hostPort,
	)
	return createResponse.ID, nil
}

// Start starts an existing (stopped or created) container by name.
func (c *Client) Start(ctx context.Context, containerName string) error {
	if err := c.sdk.ContainerStart(ctx, containerName, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %q: %w", containerName, err)
	}
	return nil
}

// Stop sends SIGTERM and gives the process ten seconds before SIGKILL.
func (c *Client) Stop(ctx context.Context, containerName string) error {
	timeout := stopTimeoutSecs
	err := c.sdk.ContainerStop(ctx, containerName, container.StopOptions{Timeout: &timeout})
	if err != nil {
		return fmt.Errorf("failed to stop container %q: %w", containerName, err)
	}
	return nil
}

// Remove force-removes a container and its anonymous volumes.
func (c *Client) Remove(ctx context.Context, containerName string) error {
	err := c.sdk.ContainerRemove(ctx, containerName, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return fmt.Errorf("failed to remove container %q: %w", containerName, err)
	}
	return nil
}

// Rename renames a container. Used by the blue-green rollover to promote
// the transient container to the canonical name.
func (c *Client) Rename(ctx context.Context, from, to string) error {
	if err := c.sdk.ContainerRename(ctx, from, to); err != nil {
		return fmt.Errorf("failed to rename container %q to %q: %w", from, to, err)
	}
	return nil
}

// lookup finds a container summary by exact name. The engine's name filter
// is a substring match and names carry a leading slash internally, so the
// result list is checked for the exact name. A nil summary with nil error
// means "no such container".
func (c *Client) lookup(ctx context.Context, containerName string) (*container.Summary, error) {
	containers, err := c.sdk.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", containerName)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for %q: %w", containerName, err)
	}

	target := "/" + containerName
	for i := range containers {
		for _, name := range containers[i].Names {
			if name == target {
				return &containers[i], nil
			}
		}
	}
	return nil, nil
}

// State maps the engine's container state onto the project state model:
// running is Online, exited is Stopped, created and restarting are Starting,
// and anything else (including no container at all) is Offline.
func (c *Client) State(ctx context.Context, containerName string) (models.ProjectState, error) {
	summary, err := c.lookup(ctx, containerName)
	if err != nil {
		return models.StateOffline, err
	}
	if summary == nil {
		return models.StateOffline, nil
	}
	switch summary.State {
	case container.StateRunning:
		return models.StateOnline, nil
	case container.StateExited:
		return models.StateStopped, nil
	case container.StateCreated, container.StateRestarting:
		return models.StateStarting, nil
	default:
		return models.StateOffline, nil
	}
}

// IsRunning reports whether a container with the given name is running.
func (c *Client) IsRunning(ctx context.Context, containerName string) (bool, error) {
	state, err := c.State(ctx, containerName)
	if err != nil {
		return false, err
	}
	return state == models.StateOnline, nil
}

// Stats returns a one-shot (memoryMB, cpuPercent) sample. The engine
// reports cumulative CPU counters, so the percentage is computed from the
// delta between the last two samples:
//
//	(cpu_delta / system_delta) * num_cpus * 100
//
// and is zero when the system delta is not positive (first sample, or a
// clock oddity).
func (c *Client) Stats(ctx context.Context, containerName string) (float64, float64, error) {
	statsReader, err := c.sdk.ContainerStatsOneShot(ctx, containerName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read stats for %q: %w", containerName, err)
	}
	defer statsReader.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(statsReader.Body).Decode(&stats); err != nil {
		return 0, 0, fmt.Errorf("failed to decode stats for %q: %w", containerName, err)
	}

	memoryMB := float64(stats.MemoryStats.Usage) / 1_048_576.0

	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)
	numCPUs := float64(len(stats.CPUStats.CPUUsage.PercpuUsage))
	if numCPUs == 0 {
		numCPUs = float64(stats.CPUStats.OnlineCPUs)
	}
	if numCPUs == 0 {
		numCPUs = 1
	}

	var cpuPercent float64
	if systemDelta > 0 {
		cpuPercent = (cpuDelta / systemDelta) * numCPUs * 100.0
	}

	return memoryMB, cpuPercent, nil
}

// Uptime returns seconds since the container started, or nil when the
// container has no recorded start time. Never negative, even if the engine
// clock and ours disagree slightly.
func (c *Client) Uptime(ctx context.Context, containerName string) (*uint64, error) {
	inspect, err := c.sdk.ContainerInspect(ctx, containerName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %q: %w", containerName, err)
	}
	if inspect.State == nil || inspect.State.StartedAt == "" {
		return nil, nil
	}
	startedAt, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt)
	if err != nil {
		return nil, nil
	}
	secs := int64(time.Since(startedAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	uptime := uint64(secs)
	return &uptime, nil
}

// Logs returns up to tail lines of combined stdout and stderr. When follow
// is true the call streams until ctx is cancelled or the container exits;
// otherwise it returns after the tail is exhausted. Containers run without
// a TTY, so the engine multiplexes the two streams with its 8-byte header
// protocol; stdcopy demultiplexes them back into chronological text.
func (c *Client) Logs(ctx context.Context, containerName string, tail int, follow bool) ([]string, error) {
	logReader, err := c.sdk.ContainerLogs(ctx, containerName, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", tail),
		Follow:     follow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read logs for %q: %w", containerName, err)
	}
	defer logReader.Close()

	var demuxed bytes.Buffer
	if _, err := stdcopy.StdCopy(&demuxed, &demuxed, logReader); err != nil {
		return nil, fmt.Errorf("failed to demultiplex logs for %q: %w", containerName, err)
	}

	var lines []string
	scanner := bufio.NewScanner(&demuxed)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if !follow && len(lines) >= tail {
			break
		}
	}
	return lines, scanner.Err()
}

// shortID is the conventional 12-character container id used in logs.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
