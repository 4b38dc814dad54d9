package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/conferente/internal/adapters/web"
	"github.com/corey/conferente/internal/app"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. It distinguishes a live server, a stale address file and
// an unknown lock holder.
func diagnoseDBLock(root string) string {
	paths := app.NewPaths(root)
	data, err := os.ReadFile(paths.AddrFile)
	if err != nil {
		return "database is locked by another process\n" +
			"  → find the process:  ps aux | grep conferente\n" +
			"  → then retry your command"
	}

	addr := strings.TrimSpace(string(data))
	if web.Ping(addr) {
		return fmt.Sprintf("database is locked by the running server at http://%s\n"+
			"  → use its API, e.g.  curl http://%s/api/suppliers\n"+
			"  → or stop it (Ctrl-C) and retry your command", addr, addr)
	}

	return fmt.Sprintf("database is locked: server address file exists but nothing answers at %s\n"+
		"  → a previous server may still be shutting down or hung\n"+
		"  → find the process:  ps aux | grep 'conferente serve'\n"+
		"  → clean up:          rm %s", addr, paths.AddrFile)
}
