package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTunnelURLDiscovery(t *testing.T) {
	line := "2026-08-25T10:00:00Z INF |  https://quiet-fox-legal-ported.trycloudflare.com  |"
	assert.Equal(t, "https://quiet-fox-legal-ported.trycloudflare.com", tunnelURLPattern.FindString(line))
	assert.Empty(t, tunnelURLPattern.FindString("INF Starting tunnel connection"))
}

func TestTunnelIdleStopIsNoop(t *testing.T) {
	tun := NewTunnel(discardLogger())
	assert.False(t, tun.IsRunning())
	assert.NoError(t, tun.Stop())
	assert.Empty(t, tun.URL())
}
