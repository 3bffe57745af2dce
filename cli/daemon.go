package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sasta-kro/dockyard/config"
	"github.com/sasta-kro/dockyard/daemon"
	"github.com/sasta-kro/dockyard/db"
	"github.com/sasta-kro/dockyard/docker"
	"github.com/sasta-kro/dockyard/handlers"
	"github.com/sasta-kro/dockyard/store"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the dockyard daemon (foreground)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

// runDaemon is the daemon bootstrap: configuration, engine connection,
// state restoration, background loops, and the two HTTP listeners. Blocks
// until an interrupt arrives, then tears down the socket and PID files.
// In-flight builds are not awaited; the next startup re-enqueues them.
func runDaemon() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	logger.Info("starting dockyard daemon")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dockerClient, err := docker.NewClient(logger)
	if err != nil {
		return err
	}
	defer dockerClient.Close()

	if err := dockerClient.EnsureNetwork(ctx); err != nil {
		return err
	}

	projectStore, err := store.New(config.ProjectsDir(), logger)
	if err != nil {
		return err
	}

	history, err := db.Open(config.HistoryDBPath(), logger)
	if err != nil {
		return err
	}
	defer history.Close()

	state := daemon.NewState(cfg, dockerClient, projectStore, history, logger)
	if err := state.LoadRecords(); err != nil {
		return err
	}
	if err := state.Restore(ctx); err != nil {
		return err
	}

	pidPath := config.PIDFilePath()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		logger.Warn("could not write PID file", "path", pidPath, "error", err)
	}

	go state.RunScheduler(ctx)
	go state.RunWatcher(ctx)

	if cfg.Cloudflare.Enabled {
		if cfg.Cloudflare.TunnelToken != "" {
			if err := state.Tunnel().StartNamed(cfg.Cloudflare.TunnelToken); err != nil {
				logger.Warn("could not start tunnel", "error", err)
			}
		} else if url, err := state.Tunnel().StartQuick(cfg.Daemon.WebhookPort); err != nil {
			logger.Warn("could not start quick tunnel", "error", err)
		} else {
			logger.Info("webhook ingress exposed", "url", url)
		}
	}

	deps := handlers.RouterDependencies{Logger: logger, State: state}
	serveErr := daemon.Serve(ctx, cfg, handlers.NewControlRouter(deps), handlers.NewWebhookRouter(deps), logger)

	_ = os.Remove(pidPath)
	_ = os.Remove(cfg.Daemon.SocketPath)
	_ = state.Tunnel().Stop()
	logger.Info("dockyard daemon stopped")

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}
