package models

// JobKind discriminates the variants the scheduler matches on.
type JobKind string

const (
	// JobDeploy clones, builds, and starts a project for the first time.
	JobDeploy JobKind = "deploy"

	// JobRebuild pulls, builds, and performs the blue-green rollover.
	JobRebuild JobKind = "rebuild"

	// JobStop stops the project's container.
	JobStop JobKind = "stop"

	// JobDelete removes the container, image, and record.
	JobDelete JobKind = "delete"
)

// Job is one unit of work on the scheduler queue. CommitSHA is only set for
// webhook-triggered rebuilds, and only for logging and the history ledger;
// the build always uses whatever git pull fetched.
type Job struct {
	Kind      JobKind
	Slug      string
	CommitSHA string
}
