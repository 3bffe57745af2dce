package util

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort()
	require.NoError(t, err)
	require.Greater(t, port, 0)
	require.LessOrEqual(t, port, 65535)

	// the port was free a moment ago; binding it should normally succeed
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	ln.Close()
}

func TestFindAvailablePortVaries(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		port, err := FindAvailablePort()
		require.NoError(t, err)
		seen[port] = true
	}
	// the kernel hands out distinct ephemeral ports while none are bound
	require.Greater(t, len(seen), 1)
}
