/*
Package config handles loading and saving the daemon-wide configuration.
All values have sensible defaults so the daemon can start with no config
file present at all. The file is TOML at /etc/dockyard/config.toml; callers
receive a *Global explicitly rather than reading a package-level variable,
making dependencies visible and the code easier to test.
*/
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sasta-kro/dockyard/errs"
)

// Global holds every daemon-wide setting. It is read often (status queries,
// webhook URL construction) and written rarely (config set), so the daemon
// keeps it behind a read-write lock.
type Global struct {
	GitHub     GitHubConfig     `toml:"github"`
	Cloudflare CloudflareConfig `toml:"cloudflare"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Proxy      ProxyConfig      `toml:"proxy"`
}

// GitHubConfig carries credentials for private clones and for registering
// webhooks through the git host API.
type GitHubConfig struct {
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
	APIToken   string `toml:"api_token,omitempty"`
}

// CloudflareConfig controls the optional public tunnel. Enabled with a token
// runs the account's named tunnel; enabled without one falls back to a quick
// tunnel that exposes the webhook port on a generated hostname.
type CloudflareConfig struct {
	TunnelToken string `toml:"tunnel_token,omitempty"`
	TunnelID    string `toml:"tunnel_id,omitempty"`
	Enabled     bool   `toml:"enabled"`
}

// DaemonConfig controls the daemon's own listeners and logging.
type DaemonConfig struct {
	WebhookPort int    `toml:"webhook_port"`
	SocketPath  string `toml:"socket_path"`
	LogLevel    string `toml:"log_level"`
}

// ProxyConfig points at the reverse proxy's admin API.
type ProxyConfig struct {
	AdminAPI string `toml:"admin_api"`
}

// Default returns a Global with every field at its documented default.
func Default() *Global {
	return &Global{
		Daemon: DaemonConfig{
			WebhookPort: 9876,
			SocketPath:  SocketPath(),
			LogLevel:    "info",
		},
		Proxy: ProxyConfig{
			AdminAPI: "http://localhost:2019",
		},
	}
}

// Load reads the global config file, falling back to defaults when the file
// does not exist. A file that exists but does not parse is a hard error;
// silently running with defaults over a typo'd config would be worse.
func Load() (*Global, error) {
	return LoadFrom(GlobalConfigPath())
}

// LoadFrom is Load with an explicit path, for tests.
func LoadFrom(path string) (*Global, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	// toml.Unmarshal leaves fields absent from the file at their current
	// (default) values, which is exactly the defaulting behavior we want.
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Config(err.Error())
	}
	return cfg, nil
}

// Save writes the config back to disk, creating the parent directory as
// needed. Called by the config-update API before it acknowledges success.
func (g *Global) Save() error {
	return g.SaveTo(GlobalConfigPath())
}

// SaveTo is Save with an explicit path, for tests.
func (g *Global) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := toml.Marshal(g)
	if err != nil {
		return errs.Config(err.Error())
	}
	return os.WriteFile(path, raw, 0o644)
}

// NewLogger constructs a *slog.Logger honoring the configured log level.
// Output is a text handler on stdout; the daemon runs under systemd or in a
// terminal, both of which are happier with text than JSON.
func (g *Global) NewLogger() *slog.Logger {
	var level slog.Level
	switch g.Daemon.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
