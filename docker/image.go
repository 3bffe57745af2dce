package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/image"
)

// Tag applies an additional tag to an existing image. The rollover uses
// this to promote a transient build tag to :latest.
func (c *Client) Tag(ctx context.Context, source, target string) error {
	if err := c.sdk.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("failed to tag image %q as %q: %w", source, target, err)
	}
	return nil
}

// RemoveImage force-removes an image reference. Removing a tag that other
// tags still point at only untags; the layers stay until the last reference
// goes.
func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	_, err := c.sdk.ImageRemove(ctx, ref, image.RemoveOptions{Force: true})
	if err != nil {
		return fmt.Errorf("failed to remove image %q: %w", ref, err)
	}
	return nil
}
