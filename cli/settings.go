package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sasta-kro/dockyard/ipc"
	"github.com/sasta-kro/dockyard/models"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change daemon configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the daemon configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ipc.NewClient().GetConfig()
			if err != nil {
				return err
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s %s\n", bold("github.ssh_key_path:"), orDash(cfg.GitHubSSHKeyPath))
			fmt.Printf("%s %s\n", bold("github.api_token:"), setOrUnset(cfg.GitHubAPITokenSet))
			fmt.Printf("%s %t\n", bold("cloudflare.enabled:"), cfg.CloudflareEnabled)
			fmt.Printf("%s %s\n", bold("cloudflare.tunnel_id:"), orDash(cfg.CloudflareTunnelID))
			fmt.Printf("%s %d\n", bold("daemon.webhook_port:"), cfg.WebhookPort)
			fmt.Printf("%s %s\n", bold("daemon.socket_path:"), cfg.SocketPath)
			return nil
		},
	}
}

// settableKeys maps a config key to the partial-update request carrying its
// new value.
func configUpdateFor(key, value string) (models.ConfigUpdateRequest, error) {
	var req models.ConfigUpdateRequest
	switch key {
	case "github.ssh_key_path":
		req.GitHubSSHKeyPath = &value
	case "github.api_token":
		req.GitHubAPIToken = &value
	case "cloudflare.tunnel_token":
		req.CloudflareTunnelToken = &value
	case "cloudflare.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return req, fmt.Errorf("cloudflare.enabled must be true or false")
		}
		req.CloudflareEnabled = &enabled
	default:
		return req, fmt.Errorf("unknown config key %q (known: github.ssh_key_path, github.api_token, cloudflare.tunnel_token, cloudflare.enabled)", key)
	}
	return req, nil
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := configUpdateFor(args[0], args[1])
			if err != nil {
				return err
			}
			if err := ipc.NewClient().UpdateConfig(req); err != nil {
				return err
			}
			fmt.Printf("%s Updated %s\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

func setOrUnset(set bool) string {
	if set {
		return "(set)"
	}
	return "(unset)"
}
