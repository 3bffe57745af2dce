package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/build"
	"github.com/moby/go-archive"

	"github.com/sasta-kro/dockyard/errs"
)

// dockerfileCandidates are checked in order at the repository root.
var dockerfileCandidates = []string{"Dockerfile", "dockerfile", "Dockerfile.prod"}

// FindDockerfile returns the Dockerfile name (relative to the repo root) to
// build with, trying the conventional spellings in order.
func FindDockerfile(repoDir string) (string, error) {
	for _, candidate := range dockerfileCandidates {
		if info, err := os.Stat(filepath.Join(repoDir, candidate)); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", errs.BuildFailed("No Dockerfile found in repository")
}

// buildStreamLine is one JSON object from the engine's build output stream.
// Progress arrives in "stream", failures in "error".
type buildStreamLine struct {
	Stream string `json:"stream"`
	Error  string `json:"error"`
}

// BuildImage tars the repository directory into a build context and asks the
// engine to build it, tagging the result with imageTag. The engine streams
// progress as newline-delimited JSON; each line is surfaced through the
// logger, and an "error" line aborts the build. The stream must be consumed
// to the end even on success, because the engine only finishes the build as
// the client reads.
func (c *Client) BuildImage(ctx context.Context, repoDir, dockerfile, imageTag string) error {
	buildContext, err := archive.TarWithOptions(repoDir, &archive.TarOptions{})
	if err != nil {
		return errs.BuildFailed(fmt.Sprintf("failed to tar build context: %v", err))
	}
	defer buildContext.Close()

	c.logger.Info("building image", "image", imageTag, "dockerfile", dockerfile)

	response, err := c.sdk.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        []string{imageTag},
		Dockerfile:  dockerfile,
		Remove:      true,
		ForceRemove: true,
		Version:     build.BuilderV1,
	})
	if err != nil {
		return errs.BuildFailed(fmt.Sprintf("failed to start build: %v", err))
	}
	defer response.Body.Close()

	decoder := json.NewDecoder(response.Body)
	for {
		var line buildStreamLine
		if err := decoder.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return errs.BuildFailed(fmt.Sprintf("failed to decode build output: %v", err))
		}
		if line.Error != "" {
			return errs.BuildFailed(line.Error)
		}
		if line.Stream != "" && line.Stream != "\n" {
			c.logger.Info("build", "image", imageTag, "output", line.Stream)
		}
	}

	c.logger.Info("image built", "image", imageTag)
	return nil
}
