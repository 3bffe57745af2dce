package models

// protocol.go defines the request and response bodies exchanged over the
// control socket. The CLI's ipc client and the daemon's handlers both import
// these, so the wire format lives in one place.

// DeployRequest creates a new project. The name and slug are derived from
// the repo URL server-side; callers only choose routing and the branch.
type DeployRequest struct {
	RepoURL       string            `json:"repo_url"`
	Branch        string            `json:"branch"`
	NetworkMode   NetworkMode       `json:"network_mode"`
	Hostname      string            `json:"hostname,omitempty"`
	ContainerPort int               `json:"container_port"`
	EnvVars       map[string]string `json:"env_vars,omitempty"`
}

// DeployResponse is returned with 201 once the record is persisted and the
// deploy job is on the queue. The build itself runs asynchronously.
type DeployResponse struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	WebhookURL string `json:"webhook_url"`
	HostPort   int    `json:"host_port"`
}

// ProjectListResponse wraps the status list.
type ProjectListResponse struct {
	Projects []ProjectStatus `json:"projects"`
}

// ProjectDetailResponse combines the live status with the record fields the
// CLI status view shows.
type ProjectDetailResponse struct {
	Status        ProjectStatus `json:"status"`
	RepoURL       string        `json:"repo_url"`
	Branch        string        `json:"branch"`
	WebhookSecret string        `json:"webhook_secret"`
}

// LogsResponse carries tailed container log lines.
type LogsResponse struct {
	Logs []string `json:"logs"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status       string `json:"status"`
	UptimeSecs   uint64 `json:"uptime_secs"`
	ProjectCount int    `json:"project_count"`
}

// ConfigResponse is the redacted configuration view. Secrets are reported
// only as set/unset booleans.
type ConfigResponse struct {
	GitHubSSHKeyPath   string `json:"github_ssh_key_path,omitempty"`
	GitHubAPITokenSet  bool   `json:"github_api_token_set"`
	CloudflareEnabled  bool   `json:"cloudflare_enabled"`
	CloudflareTunnelID string `json:"cloudflare_tunnel_id,omitempty"`
	WebhookPort        int    `json:"webhook_port"`
	SocketPath         string `json:"socket_path"`
}

// ConfigUpdateRequest is a partial update; nil pointers leave the current
// value untouched.
type ConfigUpdateRequest struct {
	GitHubSSHKeyPath      *string `json:"github_ssh_key_path,omitempty"`
	GitHubAPIToken        *string `json:"github_api_token,omitempty"`
	CloudflareTunnelToken *string `json:"cloudflare_tunnel_token,omitempty"`
	CloudflareEnabled     *bool   `json:"cloudflare_enabled,omitempty"`
}

// ErrorResponse is the uniform error envelope for every non-2xx body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges state-changing calls that return no data.
type SuccessResponse struct {
	Message string `json:"message"`
}

// HistoryResponse carries the most recent build attempts, newest first.
type HistoryResponse struct {
	Attempts []HistoryEntry `json:"attempts"`
}

// HistoryEntry is one build attempt from the deploy-history ledger.
type HistoryEntry struct {
	ID         int64   `json:"id"`
	Slug       string  `json:"slug"`
	Kind       string  `json:"kind"`
	CommitSHA  string  `json:"commit_sha,omitempty"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}
