//go:build !windows

package crossmist

// installChildQuitHandling is a no-op on POSIX: SIGTERM and SIGKILL already
// reach a child process directly, so there is no console-specific quit
// event needing simulation.
func installChildQuitHandling() {}
