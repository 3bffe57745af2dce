package util

import (
	"fmt"
	"net"

	"github.com/sasta-kro/dockyard/errs"
)

// FindAvailablePort asks the kernel for a free ephemeral port by binding to
// port 0 and reading back what was assigned. The listener is closed before
// returning, so the port is not reserved: another process may grab it before
// the container binds. That race is accepted; the container start fails and
// the user retries the deploy.
func FindAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, errs.Config(fmt.Sprintf("no available ports: %v", err))
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
