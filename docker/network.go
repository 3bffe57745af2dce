package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/network"
)

// NetworkName is the shared bridge network every project container joins.
// Containers on the same bridge can reach each other by container name,
// which is how a deployed app talks to a deployed database.
const NetworkName = "dockyard-network"

// EnsureNetwork creates the shared bridge network if it does not already
// exist. Idempotent, called once at daemon startup.
func (c *Client) EnsureNetwork(ctx context.Context) error {
	networks, err := c.sdk.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	for _, summary := range networks {
		if summary.Name == NetworkName {
			return nil
		}
	}

	_, err = c.sdk.NetworkCreate(ctx, NetworkName, network.CreateOptions{
		Driver: "bridge",
	})
	if err != nil {
		return fmt.Errorf("failed to create network %q: %w", NetworkName, err)
	}
	c.logger.Info("created bridge network", "network", NetworkName)
	return nil
}
