package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sasta-kro/dockyard/config"
)

// Serve runs the two HTTP listeners until ctx is cancelled: the control API
// on the unix socket (CLI-only; protected by filesystem permissions) and the
// webhook ingress on a public TCP port. Blocks until both have shut down or
// one fails.
func Serve(ctx context.Context, cfg *config.Global, control, webhook http.Handler, logger *slog.Logger) error {
	socketPath := cfg.Daemon.SocketPath

	// a stale socket file from a previous run would make bind fail.
	_ = os.Remove(socketPath)

	controlListener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to bind control socket %q: %w", socketPath, err)
	}
	// rw for owner and group; other local users get nothing.
	if err := os.Chmod(socketPath, 0o660); err != nil {
		logger.Warn("could not set socket permissions", "path", socketPath, "error", err)
	}
	logger.Info("control API listening", "socket", socketPath)

	webhookAddr := fmt.Sprintf("0.0.0.0:%d", cfg.Daemon.WebhookPort)
	webhookListener, err := net.Listen("tcp", webhookAddr)
	if err != nil {
		controlListener.Close()
		return fmt.Errorf("failed to bind webhook listener on %s: %w", webhookAddr, err)
	}
	logger.Info("webhook server listening", "addr", webhookAddr)

	controlServer := &http.Server{Handler: control}
	webhookServer := &http.Server{Handler: webhook}

	serveErr := make(chan error, 2)
	go func() { serveErr <- controlServer.Serve(controlListener) }()
	go func() { serveErr <- webhookServer.Serve(webhookListener) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = controlServer.Shutdown(shutdownCtx)
		_ = webhookServer.Shutdown(shutdownCtx)
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
