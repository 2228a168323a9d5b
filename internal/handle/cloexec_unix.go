//go:build !windows

package handle

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Close releases the handle if it is still owned.
func (o *Owned) Close() error {
	if !o.valid {
		return nil
	}
	o.valid = false
	return unix.Close(int(o.raw))
}

// IsCloexec reports whether FD_CLOEXEC is set on h.
func IsCloexec(h Raw) (bool, error) {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFD, 0)
	if err != nil {
		return false, fmt.Errorf("fcntl(F_GETFD): %w", err)
	}
	return flags&unix.FD_CLOEXEC != 0, nil
}

func setCloexec(h Raw, on bool) error {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFD, 0)
	if err != nil {
		return fmt.Errorf("fcntl(F_GETFD): %w", err)
	}
	if on {
		flags |= unix.FD_CLOEXEC
	} else {
		flags &^= unix.FD_CLOEXEC
	}
	if _, err := unix.FcntlInt(uintptr(h), unix.F_SETFD, flags); err != nil {
		return fmt.Errorf("fcntl(F_SETFD): %w", err)
	}
	return nil
}

// EnableCloexec sets FD_CLOEXEC on h.
func EnableCloexec(h Raw) error { return setCloexec(h, true) }

// DisableCloexec clears FD_CLOEXEC on h, letting it survive exec.
func DisableCloexec(h Raw) error { return setCloexec(h, false) }

// NewFile wraps a raw fd in an *os.File for convenience around stdlib APIs
// that want one (net.FileConn, etc.), without taking ownership.
func NewFile(h Raw, name string) *os.File {
	return os.NewFile(uintptr(h), name)
}
