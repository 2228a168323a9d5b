//go:build !linux && !windows

package asyncio

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SelectReactor is the reference Reactor on non-Linux POSIX systems, backed
// by select(2). It is O(n) in the number of registered fds rather than
// epoll's O(1), which is an acceptable tradeoff for the handful of channel
// endpoints a typical crossmist process holds open at once.
type SelectReactor struct {
	mu  sync.Mutex
	fds map[int]struct{}
}

// NewSelectReactor creates an empty SelectReactor.
func NewSelectReactor() (*SelectReactor, error) {
	return &SelectReactor{fds: make(map[int]struct{})}, nil
}

func (r *SelectReactor) RegisterRead(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fds[fd] = struct{}{}
	return nil
}

func (r *SelectReactor) Unregister(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fds, fd)
	return nil
}

func (r *SelectReactor) Wait(timeoutMillis int) ([]int, error) {
	r.mu.Lock()
	fds := make([]int, 0, len(r.fds))
	for fd := range r.fds {
		fds = append(fds, fd)
	}
	r.mu.Unlock()

	if len(fds) == 0 && timeoutMillis < 0 {
		return nil, fmt.Errorf("asyncio: select on an empty fd set would block forever")
	}

	var set unix.FdSet
	maxFd := 0
	for _, fd := range fds {
		fdSet(&set, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}

	var tv *unix.Timeval
	if timeoutMillis >= 0 {
		t := unix.NsecToTimeval(int64(timeoutMillis) * 1_000_000)
		tv = &t
	}

	for {
		n, err := unix.Select(maxFd+1, &set, nil, nil, tv)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, fmt.Errorf("asyncio: select: %w", err)
		}
		if n == 0 {
			return nil, nil
		}
		ready := make([]int, 0, n)
		for _, fd := range fds {
			if fdIsSet(&set, fd) {
				ready = append(ready, fd)
			}
		}
		return ready, nil
	}
}

// fdSet and fdIsSet mirror the FD_SET/FD_ISSET macros; x/sys/unix exposes
// FdSet as a plain bitmask struct with no helper methods of its own. The
// width of one Bits word differs by platform (32 bits on darwin and the
// 32-bit BSDs, 64 elsewhere), so it is taken from the struct itself.
func fdSet(set *unix.FdSet, fd int) {
	w := int(unsafe.Sizeof(set.Bits[0])) * 8
	set.Bits[fd/w] |= 1 << uint(fd%w)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	w := int(unsafe.Sizeof(set.Bits[0])) * 8
	return set.Bits[fd/w]&(1<<uint(fd%w)) != 0
}

func (r *SelectReactor) Close() error {
	return nil
}
