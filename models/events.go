package models

import "strings"

// PushEvent is the subset of a git host push payload the webhook ingress
// cares about: the ref that moved and the commit it now points at. The
// repository and pusher blocks are decoded for logging but never acted on.
type PushEvent struct {
	Ref        string         `json:"ref"`
	After      string         `json:"after"`
	Repository PushRepository `json:"repository"`
	Pusher     Pusher         `json:"pusher"`
}

// PushRepository is the nested repository metadata of a push event.
type PushRepository struct {
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
	SSHURL   string `json:"ssh_url"`
}

// Pusher is the nested pusher metadata of a push event.
type Pusher struct {
	Name string `json:"name"`
}

// Branch extracts the branch name from the ref. Only meaningful when
// IsBranchPush is true; for tag and note refs the ref comes back unchanged.
func (e *PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// IsBranchPush reports whether the ref names a branch at all.
func (e *PushEvent) IsBranchPush() bool {
	return strings.HasPrefix(e.Ref, "refs/heads/")
}
