//go:build windows

package crossmist

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/yuki0iq/crossmist/internal/handle"
	"github.com/yuki0iq/crossmist/internal/syncstream"
)

// Windows handles keep their numeric value across inheritance instead of
// being renumbered like POSIX fds after dup2, so there is no fixed "fd 3"
// convention to rely on: the parent's two control-pipe handle values travel
// as literal command-line arguments, and the child parses them back out of
// its own argv.

func spawnEntryProcess() (*os.Process, syncstream.Duplex, error) {
	parentEnd, childEnd, err := syncstream.NewPipePair()
	if err != nil {
		return nil, nil, fmt.Errorf("create control channel: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		parentEnd.Close()
		childEnd.Close()
		return nil, nil, fmt.Errorf("resolve own executable: %w", err)
	}

	childR, childW := syncstream.Handles(childEnd)

	// argv carries entryMagic plus the two decimal handle values the child
	// needs to adopt the control channel — nothing else rides on the
	// command line, the entry point's name included.
	cmd := exec.Command(exe, strconv.FormatUint(uint64(childR), 10), strconv.FormatUint(uint64(childW), 10))
	cmd.Args[0] = entryMagic
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// exec.Cmd passes an explicit inherit list to CreateProcess; handles not
	// on it stay behind even when marked inheritable.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		AdditionalInheritedHandles: []syscall.Handle{syscall.Handle(childR), syscall.Handle(childW)},
	}

	var startErr error
	err = handle.WithInherited([]handle.Raw{childR, childW}, func() error {
		startErr = cmd.Start()
		return startErr
	})
	childEnd.Close()
	if err != nil {
		parentEnd.Close()
		return nil, nil, fmt.Errorf("start child process: %w", err)
	}

	return cmd.Process, parentEnd, nil
}

func adoptControlChannel() (syncstream.Duplex, error) {
	args := os.Args[1:]
	if len(args) < 2 {
		return nil, fmt.Errorf("missing control handle arguments")
	}
	r, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse control read handle: %w", err)
	}
	w, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse control write handle: %w", err)
	}
	return syncstream.FromRaw(handle.Raw(r), handle.Raw(w)), nil
}
