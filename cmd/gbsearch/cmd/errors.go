package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/corey/gbsearch/internal/adapters/socket"
	bolt "go.etcd.io/bbolt"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
func isDBLockError(err error) bool {
	return errors.Is(err, bolt.ErrTimeout)
}

// diagnoseDBLock checks the daemon state and returns actionable guidance
// when a bbolt open fails due to lock contention.
func diagnoseDBLock(root string) string {
	sockPath := socket.SocketPath(root)
	client := socket.NewClient(sockPath)

	if client.Ping() {
		return "database is locked by the running daemon\n" +
			"  → stop it first:  gbsearch daemon stop\n" +
			"  → or run the command against it (load and datasets use the daemon when it is up)"
	}

	if _, err := os.Stat(sockPath); err == nil {
		return fmt.Sprintf("database is locked, daemon socket exists but is not responding\n"+
			"  → a previous daemon may have crashed\n"+
			"  → find the process:  ps aux | grep 'gbsearch daemon'\n"+
			"  → kill it:           kill <PID>\n"+
			"  → clean up socket:   rm %s", sockPath)
	}

	return "database is locked by another process\n" +
		"  → find the process:  ps aux | grep gbsearch\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}

// requireDaemon returns a client for the running daemon.
func requireDaemon() (*socket.Client, error) {
	client := socket.NewClient(socket.SocketPath(projectRoot()))
	if !client.Ping() {
		return nil, fmt.Errorf("%w. Start with: gbsearch daemon start", socket.ErrDaemonNotRunning)
	}
	return client, nil
}
