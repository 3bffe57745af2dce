// Package ipc is the CLI side of the control socket: an HTTP/1.1 client
// whose transport dials the daemon's unix socket instead of TCP. Every CLI
// command goes through one Client method; the methods mirror the control API
// routes one-to-one.
package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sasta-kro/dockyard/config"
	"github.com/sasta-kro/dockyard/errs"
	"github.com/sasta-kro/dockyard/models"
)

// Client talks to a running daemon over the control socket.
type Client struct {
	http *http.Client
}

// NewClient builds a client for the default socket path. The host part of
// request URLs is a placeholder; the transport dials the socket regardless.
func NewClient() *Client {
	return NewClientForSocket(config.SocketPath())
}

// NewClientForSocket is NewClient with an explicit socket path, for tests.
func NewClientForSocket(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}
}

// request performs one API call and decodes the response into out (when out
// is non-nil). A connection failure means no daemon is listening; a non-2xx
// status carries the daemon's error envelope, which is surfaced verbatim.
func (c *Client) request(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, "http://dockyard"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.ErrDaemonNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
			return fmt.Errorf("%s", envelope.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Health checks daemon liveness.
func (c *Client) Health() (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.request(http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches the status of every project.
func (c *Client) List() ([]models.ProjectStatus, error) {
	var out models.ProjectListResponse
	if err := c.request(http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Deploy registers a new project.
func (c *Client) Deploy(req models.DeployRequest) (*models.DeployResponse, error) {
	var out models.DeployResponse
	if err := c.request(http.MethodPost, "/api/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches the detail view of one project.
func (c *Client) Get(slug string) (*models.ProjectDetailResponse, error) {
	var out models.ProjectDetailResponse
	if err := c.request(http.MethodGet, "/api/projects/"+slug, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a project and everything it owns.
func (c *Client) Delete(slug string) error {
	return c.request(http.MethodDelete, "/api/projects/"+slug, nil, nil)
}

// Rebuild queues a rebuild.
func (c *Client) Rebuild(slug string) error {
	return c.request(http.MethodPost, "/api/projects/"+slug+"/rebuild", nil, nil)
}

// Start starts a project's container.
func (c *Client) Start(slug string) error {
	return c.request(http.MethodPost, "/api/projects/"+slug+"/start", nil, nil)
}

// Stop stops a project's container.
func (c *Client) Stop(slug string) error {
	return c.request(http.MethodPost, "/api/projects/"+slug+"/stop", nil, nil)
}

// Logs fetches the last tail lines of container output.
func (c *Client) Logs(slug string, tail int) ([]string, error) {
	var out models.LogsResponse
	path := fmt.Sprintf("/api/projects/%s/logs?tail=%d", slug, tail)
	if err := c.request(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// History fetches the most recent build attempts for a project, newest
// first.
func (c *Client) History(slug string, limit int) ([]models.HistoryEntry, error) {
	var out models.HistoryResponse
	path := fmt.Sprintf("/api/projects/%s/history?limit=%d", slug, limit)
	if err := c.request(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Attempts, nil
}

// GetConfig fetches the redacted daemon configuration.
func (c *Client) GetConfig() (*models.ConfigResponse, error) {
	var out models.ConfigResponse
	if err := c.request(http.MethodGet, "/api/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConfig applies a partial configuration update.
func (c *Client) UpdateConfig(req models.ConfigUpdateRequest) error {
	return c.request(http.MethodPut, "/api/config", req, nil)
}
