package rpc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zokrezyl/yetty/yerr"
)

// envSocketVar is the environment variable a Server exports its socket
// path under, so child processes (shells, commands run inside the
// terminal) can discover it.
const envSocketVar = "YETTY_SOCKET"

// DefaultSocketPath computes $XDG_RUNTIME_DIR/yetty/yetty-<pid>.sock,
// falling back to /tmp/yetty-<uid>/yetty/yetty-<pid>.sock, and creates
// the containing directory (mode 0700) if it doesn't exist.
func DefaultSocketPath() (string, error) {
	baseDir := os.Getenv("XDG_RUNTIME_DIR")
	if baseDir == "" {
		baseDir = fmt.Sprintf("/tmp/yetty-%d", os.Getuid())
	}

	dir := filepath.Join(baseDir, "yetty")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", yerr.Wrap(yerr.OsError, "rpc: create socket directory", err)
	}

	return filepath.Join(dir, fmt.Sprintf("yetty-%d.sock", os.Getpid())), nil
}

// ExportSocketPath sets $YETTY_SOCKET in this process's environment so
// child processes can find the socket without being told explicitly.
func ExportSocketPath(path string) error {
	if err := os.Setenv(envSocketVar, path); err != nil {
		return yerr.Wrap(yerr.OsError, "rpc: export "+envSocketVar, err)
	}
	return nil
}

// SocketPathFromEnv reads $YETTY_SOCKET, for clients that want to dial
// the terminal they're running inside without being told the path.
func SocketPathFromEnv() (string, bool) {
	path := os.Getenv(envSocketVar)
	return path, path != ""
}
