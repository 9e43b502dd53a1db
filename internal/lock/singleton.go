// Package lock implements a single-instance guard: a named Unix domain
// socket bound at startup. A bind failure means another instance already
// owns it, and the process should exit nonzero. Reimplements a raw
// sockaddr_un single-instance check with net.Listen("unix", ...).
package lock

import (
	"fmt"
	"net"
	"os"
)

// Guard holds the bound lock socket for the lifetime of the process.
type Guard struct {
	path     string
	listener net.Listener
}

// Acquire binds path as a Unix domain socket. If another instance already
// holds it, Acquire returns an error the caller should treat as fatal.
func Acquire(path string) (*Guard, error) {
	// A stale socket file from an unclean shutdown would otherwise make a
	// legitimate restart fail to bind; only remove it if nothing is
	// listening on it.
	if _, err := net.Dial("unix", path); err != nil {
		_ = os.Remove(path)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("lock: another instance is already running (%s): %w", path, err)
	}
	return &Guard{path: path, listener: l}, nil
}

// Release closes and unlinks the lock socket. Safe to call on shutdown,
// typically from a SIGINT/SIGTERM/SIGHUP handler.
func (g *Guard) Release() {
	if g == nil || g.listener == nil {
		return
	}
	_ = g.listener.Close()
	_ = os.Remove(g.path)
}
