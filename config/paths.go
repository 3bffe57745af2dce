package config

import "path/filepath"

// Filesystem layout. The daemon runs as a system service, so paths are fixed
// rather than XDG-relative: config under /etc, state under /var/lib, runtime
// artifacts under /var/run. Tests override the data root through the store
// and history constructors instead of touching these.

const (
	configDir = "/etc/dockyard"
	dataDir   = "/var/lib/dockyard"
)

// GlobalConfigPath is the location of the daemon-wide TOML config file.
func GlobalConfigPath() string {
	return filepath.Join(configDir, "config.toml")
}

// DataDir is the state root that holds project records, working trees, and
// the deploy-history database.
func DataDir() string {
	return dataDir
}

// ProjectsDir holds one subdirectory per project, keyed by slug.
func ProjectsDir() string {
	return filepath.Join(dataDir, "projects")
}

// HistoryDBPath is the SQLite deploy-history ledger.
func HistoryDBPath() string {
	return filepath.Join(dataDir, "history.db")
}

// SocketPath is the default control socket location.
func SocketPath() string {
	return "/var/run/dockyard.sock"
}

// PIDFilePath is where the daemon records its process id.
func PIDFilePath() string {
	return "/var/run/dockyard.pid"
}
