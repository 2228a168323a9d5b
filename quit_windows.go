//go:build windows

package crossmist

import (
	"os"
	"os/signal"

	"github.com/containers/winquit/pkg/winquit"
)

// installChildQuitHandling arranges for a spawned child to treat a console
// close, user logoff, or system shutdown event the same way a POSIX child
// treats SIGTERM: exiting on its own rather than being torn down invisibly
// the instant Windows decides its console is going away.
func installChildQuitHandling() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	winquit.SimulateSigTermOnQuit(quit)
	go func() {
		<-quit
		os.Exit(1)
	}()
}
