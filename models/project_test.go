package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedNames(t *testing.T) {
	assert.Equal(t, "dockyard-myapp", ContainerName("myapp"))
	assert.Equal(t, "dockyard/myapp", ImageName("myapp"))
}

func TestNewProjectInvariants(t *testing.T) {
	p := NewProject("My App", "my-app", "https://example.com/acme/my-app.git",
		"main", NetworkLocalOnly, "", 3000, 49152, "s3cret")

	assert.Equal(t, ContainerName(p.Slug), p.Container.ContainerName)
	assert.Equal(t, ImageName(p.Slug), p.Container.ImageName)
	assert.Equal(t, "Dockerfile", p.Container.DockerfilePath)
	assert.True(t, p.Enabled)
	assert.NotEqual(t, p.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	require.NotNil(t, p.Container.EnvVars)
}

func TestProjectURL(t *testing.T) {
	tests := []struct {
		name     string
		mode     NetworkMode
		hostname string
		hostPort int
		want     string
	}{
		{"hostname_wins", NetworkPublic, "app.example.com", 49152, "https://app.example.com"},
		{"local_only_fallback", NetworkLocalOnly, "", 49152, "http://localhost:49152"},
		{"public_without_hostname", NetworkPublic, "", 49152, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProject("a", "a", "r", "main", tt.mode, tt.hostname, 3000, tt.hostPort, "s")
			assert.Equal(t, tt.want, p.URL())
		})
	}
}

func TestProjectCloneIsolatesEnvVars(t *testing.T) {
	p := NewProject("a", "a", "r", "main", NetworkLocalOnly, "", 3000, 49152, "s")
	p.Container.EnvVars["KEY"] = "original"

	clone := p.Clone()
	clone.Container.EnvVars["KEY"] = "mutated"

	assert.Equal(t, "original", p.Container.EnvVars["KEY"])
}

func TestPushEventBranch(t *testing.T) {
	branchPush := PushEvent{Ref: "refs/heads/main"}
	assert.True(t, branchPush.IsBranchPush())
	assert.Equal(t, "main", branchPush.Branch())

	tagPush := PushEvent{Ref: "refs/tags/v1.0"}
	assert.False(t, tagPush.IsBranchPush())
}
