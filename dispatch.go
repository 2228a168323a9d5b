package crossmist

import (
	"fmt"
	"os"

	"github.com/yuki0iq/crossmist/internal/registry"
	"github.com/yuki0iq/crossmist/internal/xlog"
)

// init runs in every process that imports this package, including a
// re-executed child. If this image was started as a crossmist child
// (argv[0] rewritten to entryMagic by Spawn), dispatch straight into
// whichever entry point the parent named over the control channel and
// exit — the program's real main never runs.
//
// This mirrors argv[0]-based re-exec detection used elsewhere for
// self-spawning child processes, generalized from a single fixed role to an
// arbitrary named entry point. The name itself never touches argv: the
// command line carries only entryMagic and the handle values needed to
// adopt the control channel, and the entry point's name is the first frame
// read off that channel once adopted.
func init() {
	if len(os.Args) < 1 || os.Args[0] != entryMagic {
		return
	}
	os.Exit(dispatch())
}

func dispatch() int {
	installChildQuitHandling()

	conn, err := adoptControlChannel()
	if err != nil {
		xlog.L.Error(err).Msg("adopt control channel")
		return 1
	}

	name, err := (&Receiver[string]{stream: conn}).Recv()
	if err != nil {
		xlog.L.Error(err).Msg("receive entry point name")
		return 1
	}

	trampoline, ok := registry.Lookup(name)
	if !ok {
		xlog.L.Error(fmt.Errorf("no entry point registered under %q", name)).Msg("crossmist dispatch failed")
		return 1
	}

	return trampoline(conn)
}

// adoptControlChannel and spawnEntryProcess are implemented per-OS: POSIX
// inherits the control socket at a fixed fd, Windows carries its handle
// values on the command line instead.
