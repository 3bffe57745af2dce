package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sasta-kro/dockyard/ipc"
	"github.com/sasta-kro/dockyard/models"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ipc.NewClient()
			health, err := client.Health()
			if err != nil {
				return err
			}
			statuses, err := client.List()
			if err != nil {
				return err
			}

			fmt.Printf("Daemon up %s, %d projects\n\n", formatDuration(health.UptimeSecs), health.ProjectCount)
			if len(statuses) == 0 {
				fmt.Println("No projects yet. Deploy one with: dockyard deploy --repo <url>")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tSTATE\tURL\tPORT\tLAST DEPLOY")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					s.Slug,
					colorState(s.State),
					orDash(s.URL),
					s.HostPort,
					formatLastDeploy(s.LastDeploy),
				)
			}
			return w.Flush()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <slug>",
		Short: "Show detailed status of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := ipc.NewClient().Get(args[0])
			if err != nil {
				return err
			}

			s := detail.Status
			bold := color.New(color.Bold).SprintFunc()
			fmt.Printf("%s %s\n\n", bold(s.Name), colorState(s.State))
			fmt.Printf("  %s %s\n", bold("Repo:"), detail.RepoURL)
			fmt.Printf("  %s %s\n", bold("Branch:"), detail.Branch)
			fmt.Printf("  %s %s\n", bold("URL:"), orDash(s.URL))
			fmt.Printf("  %s %d -> %d\n", bold("Ports:"), s.HostPort, s.ContainerPort)
			fmt.Printf("  %s %s\n", bold("Network:"), models.NetworkMode(s.NetworkMode).Display())
			if s.UptimeSecs != nil {
				fmt.Printf("  %s %s\n", bold("Uptime:"), formatDuration(*s.UptimeSecs))
			}
			if s.MemoryUsageMB != nil {
				fmt.Printf("  %s %.1f MB\n", bold("Memory:"), *s.MemoryUsageMB)
			}
			if s.CPUPercent != nil {
				fmt.Printf("  %s %.1f%%\n", bold("CPU:"), *s.CPUPercent)
			}
			fmt.Printf("  %s %s\n", bold("Last deploy:"), formatLastDeploy(s.LastDeploy))
			if s.LastError != "" {
				fmt.Printf("  %s %s\n", bold("Last error:"), color.RedString(s.LastError))
			}
			fmt.Printf("  %s %s\n", bold("Webhook secret:"), detail.WebhookSecret)
			return nil
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <slug>",
		Short: "Pull latest code and rebuild with zero downtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Rebuild(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Rebuild queued for %q\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		tail   int
	)

	cmd := &cobra.Command{
		Use:   "logs <slug>",
		Short: "Show container logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ipc.NewClient()

			lines, err := client.Logs(args[0], tail)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			if !follow {
				return nil
			}

			// the control API is tail-only, so follow polls and prints what
			// grew since the last poll.
			seen := len(lines)
			for {
				time.Sleep(2 * time.Second)
				lines, err := client.Logs(args[0], tail+seen)
				if err != nil {
					return err
				}
				if len(lines) > seen {
					for _, line := range lines[seen:] {
						fmt.Println(line)
					}
					seen = len(lines)
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVarP(&tail, "tail", "n", 100, "Number of lines to show")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <slug>",
		Short: "Show recent build attempts for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ipc.NewClient().History(args[0], limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No builds recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tSTATUS\tCOMMIT\tSTARTED\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Kind,
					colorAttemptStatus(e.Status),
					orDash(shortCommit(e.CommitSHA)),
					formatAttemptTime(e.StartedAt),
					orDash(e.Error),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of attempts to show")
	return cmd
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <slug>",
		Short: "Start a stopped project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Start(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Started %q\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <slug>",
		Short: "Stop a project's container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Stop(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Stopped %q\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a project, its container, and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Deleted %q\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

func colorState(state models.ProjectState) string {
	display := state.Display()
	switch state {
	case models.StateOnline:
		return color.GreenString(display)
	case models.StateBuilding, models.StateRebuilding, models.StateStarting:
		return color.YellowString(display)
	case models.StateError:
		return color.RedString(display)
	default:
		return display
	}
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func formatLastDeploy(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func colorAttemptStatus(status string) string {
	switch status {
	case "success":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	default:
		return status
	}
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func formatAttemptTime(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(secs uint64) string {
	d := time.Duration(secs) * time.Second
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
