//go:build linux

package asyncio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// EpollReactor is the reference Reactor on Linux, backed directly by
// epoll_create1/epoll_ctl/epoll_wait.
type EpollReactor struct {
	epfd int
}

// NewEpollReactor creates an epoll instance marked CLOEXEC so it is never
// leaked into a spawned child by accident.
func NewEpollReactor() (*EpollReactor, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("asyncio: epoll_create1: %w", err)
	}
	return &EpollReactor{epfd: fd}, nil
}

func (r *EpollReactor) RegisterRead(fd int) error {
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("asyncio: epoll_ctl(ADD, %d): %w", fd, err)
	}
	return nil
}

func (r *EpollReactor) Unregister(fd int) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("asyncio: epoll_ctl(DEL, %d): %w", fd, err)
	}
	return nil
}

func (r *EpollReactor) Wait(timeoutMillis int) ([]int, error) {
	events := make([]unix.EpollEvent, 32)
	for {
		n, err := unix.EpollWait(r.epfd, events, timeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, fmt.Errorf("asyncio: epoll_wait: %w", err)
		}
		ready := make([]int, n)
		for i := 0; i < n; i++ {
			ready[i] = int(events[i].Fd)
		}
		return ready, nil
	}
}

func (r *EpollReactor) Close() error {
	return unix.Close(r.epfd)
}
