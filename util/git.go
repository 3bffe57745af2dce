package util

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/sasta-kro/dockyard/errs"
)

// Git operations shell out to the system git binary rather than using a
// pure-Go implementation. The native binary handles every protocol and
// credential edge case, and a shallow clone is a fire-and-forget operation
// that does not justify a library dependency. Git writes progress to stderr,
// so stderr is what ends up in the error when a command fails.

// GitClone performs a shallow, single-branch clone of repoURL at branch into
// dest. dest must not already exist; git creates it.
func GitClone(ctx context.Context, repoURL, dest, branch string) error {
	cmd := exec.CommandContext(ctx, "git", "clone",
		"--branch", branch,
		"--single-branch",
		"--depth", "1",
		repoURL, dest,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.Git("git clone failed: " + strings.TrimSpace(stderr.String()))
	}
	return nil
}

// GitPull fast-forwards the checkout at repoPath to the tip of branch and
// returns the commit SHA HEAD now points at.
func GitPull(ctx context.Context, repoPath, branch string) (string, error) {
	pull := exec.CommandContext(ctx, "git", "pull", "origin", branch)
	pull.Dir = repoPath
	var stderr bytes.Buffer
	pull.Stderr = &stderr
	if err := pull.Run(); err != nil {
		return "", errs.Git("git pull failed: " + strings.TrimSpace(stderr.String()))
	}

	revParse := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	revParse.Dir = repoPath
	out, err := revParse.Output()
	if err != nil {
		return "", errs.Git("git rev-parse failed: " + err.Error())
	}
	return strings.TrimSpace(string(out)), nil
}
