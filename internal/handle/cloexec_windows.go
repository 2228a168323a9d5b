//go:build windows

package handle

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// Close releases the handle if it is still owned.
func (o *Owned) Close() error {
	if !o.valid {
		return nil
	}
	o.valid = false
	return windows.CloseHandle(windows.Handle(o.raw))
}

// IsCloexec reports whether the handle is marked non-inheritable. Windows'
// inheritance flag is the inverse sense of POSIX cloexec: cloexec "set" means
// HANDLE_FLAG_INHERIT is clear.
func IsCloexec(h Raw) (bool, error) {
	var flags uint32
	if err := windows.GetHandleInformation(windows.Handle(h), &flags); err != nil {
		return false, fmt.Errorf("GetHandleInformation: %w", err)
	}
	return flags&windows.HANDLE_FLAG_INHERIT == 0, nil
}

func setCloexec(h Raw, on bool) error {
	var mask uint32
	if !on {
		mask = windows.HANDLE_FLAG_INHERIT
	}
	if err := windows.SetHandleInformation(windows.Handle(h), windows.HANDLE_FLAG_INHERIT, mask); err != nil {
		return fmt.Errorf("SetHandleInformation: %w", err)
	}
	return nil
}

// EnableCloexec marks h as not inherited by child processes.
func EnableCloexec(h Raw) error { return setCloexec(h, true) }

// DisableCloexec marks h as inherited by child processes.
func DisableCloexec(h Raw) error { return setCloexec(h, false) }

// NewFile wraps a raw handle in an *os.File without taking ownership.
func NewFile(h Raw, name string) *os.File {
	return os.NewFile(uintptr(h), name)
}
