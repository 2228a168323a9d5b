//go:build !windows

package crossmist

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/yuki0iq/crossmist/internal/handle"
	"github.com/yuki0iq/crossmist/internal/syncstream"
)

// controlFD is the fd the control socket always lands on in a spawned
// child: after stdin, stdout and stderr, the first (and only) entry of
// cmd.ExtraFiles becomes fd 3.
const controlFD = 3

func spawnEntryProcess() (*os.Process, syncstream.Duplex, error) {
	parentEnd, childEnd, err := syncstream.NewSocketpair()
	if err != nil {
		return nil, nil, fmt.Errorf("create control channel: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		parentEnd.Close()
		childEnd.Close()
		return nil, nil, fmt.Errorf("resolve own executable: %w", err)
	}

	childFile, err := syncstream.DupFile(childEnd, "crossmist-control")
	if err != nil {
		parentEnd.Close()
		childEnd.Close()
		return nil, nil, fmt.Errorf("duplicate control fd: %w", err)
	}
	childEnd.Close()

	// argv carries nothing but entryMagic; the control channel itself is
	// what tells the child everything else it needs.
	cmd := exec.Command(exe)
	cmd.Args = []string{entryMagic}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{childFile}

	controlRaw := handle.Raw(childFile.Fd())
	var startErr error
	err = handle.WithInherited([]handle.Raw{controlRaw}, func() error {
		startErr = cmd.Start()
		return startErr
	})
	childFile.Close()
	if err != nil {
		parentEnd.Close()
		return nil, nil, fmt.Errorf("start child process: %w", err)
	}

	return cmd.Process, parentEnd, nil
}

func adoptControlChannel() (syncstream.Duplex, error) {
	return syncstream.FromRaw(controlFD)
}
