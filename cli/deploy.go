package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sasta-kro/dockyard/ipc"
	"github.com/sasta-kro/dockyard/models"
)

func newDeployCmd() *cobra.Command {
	var (
		repo   string
		branch string
		public bool
		domain string
		port   int
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a git repository as a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := models.NetworkLocalOnly
			if public {
				mode = models.NetworkPublic
			}

			client := ipc.NewClient()
			resp, err := client.Deploy(models.DeployRequest{
				RepoURL:       repo,
				Branch:        branch,
				NetworkMode:   mode,
				Hostname:      domain,
				ContainerPort: port,
			})
			if err != nil {
				return err
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s Project %q registered, build queued\n", color.GreenString("✓"), resp.Slug)
			fmt.Println()
			if resp.URL != "" {
				fmt.Printf("  %s %s\n", bold("URL:"), resp.URL)
			}
			fmt.Printf("  %s %d\n", bold("Host port:"), resp.HostPort)
			fmt.Println()
			fmt.Printf("  %s %s\n", bold("Webhook URL:"), resp.WebhookURL)
			fmt.Println("  Add this URL as a push webhook in your git host to enable auto-deploys.")
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Git repository URL (required)")
	cmd.Flags().StringVar(&branch, "branch", "main", "Branch to track")
	cmd.Flags().BoolVar(&public, "public", false, "Expose publicly through the tunnel")
	cmd.Flags().StringVar(&domain, "domain", "", "Custom hostname routed by the reverse proxy")
	cmd.Flags().IntVar(&port, "port", 3000, "Container port your app listens on")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}
