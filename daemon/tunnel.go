package daemon

import (
	"bufio"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/sasta-kro/dockyard/errs"
)

// Tunnel supervises a cloudflared sub-process that exposes local projects to
// the public internet. Two modes: a quick tunnel (cloudflared invents a
// trycloudflare.com hostname) and a named tunnel driven by an account token.
// At most one tunnel process exists at a time.
type Tunnel struct {
	mu     sync.RWMutex
	cmd    *exec.Cmd
	url    string
	logger *slog.Logger
}

// NewTunnel constructs an idle supervisor; no process is spawned until one
// of the Start methods is called.
func NewTunnel(logger *slog.Logger) *Tunnel {
	return &Tunnel{logger: logger}
}

// quick tunnels announce their assigned hostname on stderr.
var tunnelURLPattern = regexp.MustCompile(`https://[a-z0-9-]+\.trycloudflare\.com`)

// StartQuick spawns a quick tunnel pointing at a local port and returns the
// assigned public URL. cloudflared prints the hostname on stderr shortly
// after startup; if it has not appeared within the wait window the tunnel is
// assumed up anyway and a placeholder is returned.
func (t *Tunnel) StartQuick(localPort int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd != nil {
		return "", errs.Tunnel("a tunnel is already running")
	}

	cmd := exec.Command("cloudflared", "tunnel", "--url", localURL(localPort))
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", errs.Tunnel(err.Error())
	}
	if err := cmd.Start(); err != nil {
		return "", errs.Tunnel("failed to start cloudflared: " + err.Error() + ". Is it installed?")
	}

	urlCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if match := tunnelURLPattern.FindString(scanner.Text()); match != "" {
				select {
				case urlCh <- match:
				default:
				}
			}
		}
	}()

	url := "https://tunnel-pending.trycloudflare.com"
	select {
	case found := <-urlCh:
		url = found
	case <-time.After(10 * time.Second):
		t.logger.Warn("cloudflared did not report a tunnel URL in time")
	}

	t.cmd = cmd
	t.url = url
	t.logger.Info("quick tunnel started", "url", url, "local_port", localPort)
	return url, nil
}

// StartNamed spawns a named tunnel authenticated by an account token. Named
// tunnels have their hostname configured on the Cloudflare side, so no URL
// is discovered here.
func (t *Tunnel) StartNamed(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd != nil {
		return errs.Tunnel("a tunnel is already running")
	}

	cmd := exec.Command("cloudflared", "tunnel", "run", "--token", token)
	if err := cmd.Start(); err != nil {
		return errs.Tunnel("failed to start cloudflared: " + err.Error())
	}

	t.cmd = cmd
	t.url = ""
	t.logger.Info("named tunnel started")
	return nil
}

// Stop kills the tunnel process. Stopping an idle supervisor is a no-op.
func (t *Tunnel) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil {
		return nil
	}
	if err := t.cmd.Process.Kill(); err != nil {
		return errs.Tunnel("failed to stop cloudflared: " + err.Error())
	}
	// reap the child so it does not linger as a zombie.
	go t.cmd.Wait()
	t.cmd = nil
	t.url = ""
	t.logger.Info("tunnel stopped")
	return nil
}

// IsRunning reports whether a tunnel process is being supervised.
func (t *Tunnel) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cmd != nil
}

// URL returns the discovered public URL, or "" for named tunnels and idle
// supervisors.
func (t *Tunnel) URL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.url
}

func localURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
