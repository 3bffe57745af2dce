package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sasta-kro/dockyard/errs"
)

// Proxy is a client for the reverse proxy's admin API (Caddy). Projects
// with a hostname get a named route `dockyard-<slug>` that reverse-proxies
// the hostname to the project's host port. The admin API is plain local
// JSON-over-HTTP; there is nothing here a heavier client would add.
type Proxy struct {
	client   *http.Client
	adminAPI string
	logger   *slog.Logger
}

// NewProxy builds a client for the admin API base URL
// (default http://localhost:2019).
func NewProxy(adminAPI string, logger *slog.Logger) *Proxy {
	return &Proxy{
		client:   &http.Client{Timeout: 10 * time.Second},
		adminAPI: adminAPI,
		logger:   logger,
	}
}

type proxyRoute struct {
	ID     string         `json:"@id"`
	Match  []proxyMatch   `json:"match,omitempty"`
	Handle []proxyHandler `json:"handle"`
}

type proxyMatch struct {
	Host []string `json:"host"`
}

type proxyHandler struct {
	Handler   string          `json:"handler"`
	Upstreams []proxyUpstream `json:"upstreams"`
}

type proxyUpstream struct {
	Dial string `json:"dial"`
}

func routeID(slug string) string {
	return "dockyard-" + slug
}

func reverseProxyHandlers(upstreamPort int) []proxyHandler {
	return []proxyHandler{{
		Handler:   "reverse_proxy",
		Upstreams: []proxyUpstream{{Dial: fmt.Sprintf("localhost:%d", upstreamPort)}},
	}}
}

func (p *Proxy) send(ctx context.Context, method, url string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errs.Proxy(err.Error())
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errs.Proxy(err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errs.Proxy("admin API not reachable: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errs.Proxy(fmt.Sprintf("admin API returned %d: %s", resp.StatusCode, string(raw)))
	}
	return nil
}

// AddRoute registers a new reverse-proxy route for a project hostname.
func (p *Proxy) AddRoute(ctx context.Context, slug, hostname string, upstreamPort int) error {
	route := proxyRoute{
		ID:     routeID(slug),
		Match:  []proxyMatch{{Host: []string{hostname}}},
		Handle: reverseProxyHandlers(upstreamPort),
	}
	url := p.adminAPI + "/config/apps/http/servers/dockyard/routes"
	if err := p.send(ctx, http.MethodPost, url, route); err != nil {
		return err
	}
	p.logger.Info("added proxy route", "slug", slug, "hostname", hostname, "upstream_port", upstreamPort)
	return nil
}

// UpdateRoute repoints an existing route at a new upstream port. Called
// after a rebuild, because the rollover assigns the replacement container a
// fresh host port.
func (p *Proxy) UpdateRoute(ctx context.Context, slug string, upstreamPort int) error {
	route := proxyRoute{
		ID:     routeID(slug),
		Handle: reverseProxyHandlers(upstreamPort),
	}
	url := p.adminAPI + "/id/" + routeID(slug)
	if err := p.send(ctx, http.MethodPut, url, route); err != nil {
		return err
	}
	p.logger.Info("updated proxy route", "slug", slug, "upstream_port", upstreamPort)
	return nil
}

// RemoveRoute deletes a project's route. Best-effort: the route may never
// have been created, or the proxy may be down, and neither should block a
// project deletion.
func (p *Proxy) RemoveRoute(ctx context.Context, slug string) {
	url := p.adminAPI + "/id/" + routeID(slug)
	if err := p.send(ctx, http.MethodDelete, url, nil); err != nil {
		p.logger.Warn("could not remove proxy route", "slug", slug, "error", err)
		return
	}
	p.logger.Info("removed proxy route", "slug", slug)
}
