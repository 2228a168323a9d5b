//go:build !windows

package syncstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/yuki0iq/crossmist/internal/handle"
)

// unixStream is a Duplex backed by one connected AF_UNIX SOCK_STREAM socket,
// handles riding as SCM_RIGHTS ancillary data on the length-prefix write.
type unixStream struct {
	conn *net.UnixConn
	raw  handle.Raw
}

// NewSocketpair creates a connected pair of Duplex streams, the POSIX
// equivalent of a bidirectional channel.
func NewSocketpair() (a, b Duplex, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	sa, err := wrapFD(fds[0])
	if err != nil {
		unix.Close(fds[1])
		return nil, nil, err
	}
	sb, err := wrapFD(fds[1])
	if err != nil {
		sa.Close()
		return nil, nil, err
	}
	return sa, sb, nil
}

func wrapFD(fd int) (*unixStream, error) {
	f := os.NewFile(uintptr(fd), "crossmist-socket")
	c, err := net.FileConn(f)
	// FileConn dup()s the fd; close our copy of the *os.File regardless.
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("net.FileConn: %w", err)
	}
	uc, ok := c.(*net.UnixConn)
	if !ok {
		c.Close()
		return nil, errors.New("syncstream: FileConn did not return a UnixConn")
	}
	// fd itself is closed by now; record the duplicate the conn really owns.
	var raw handle.Raw
	sc, err := uc.SyscallConn()
	if err == nil {
		err = sc.Control(func(cfd uintptr) { raw = handle.Raw(cfd) })
	}
	if err != nil {
		uc.Close()
		return nil, fmt.Errorf("syncstream: socket fd: %w", err)
	}
	return &unixStream{conn: uc, raw: raw}, nil
}

// FromRaw adopts an already-open AF_UNIX socket fd, e.g. one inherited by a
// spawned child and described on argv.
func FromRaw(fd handle.Raw) (Duplex, error) {
	return wrapFD(int(fd))
}

// NewPair is the platform-neutral entry point used by the root package: a
// connected pair of full-duplex transports, however the current OS
// implements that.
func NewPair() (a, b Duplex, err error) {
	return NewSocketpair()
}

// HandleCount is how many raw handles ExportHandles/ImportHandles exchange
// to describe one endpoint on this platform: one fd suffices on POSIX, since
// a single AF_UNIX socket is already bidirectional.
const HandleCount = 1

// ExportHandles describes d as the raw handle(s) needed to reconstruct an
// equivalent endpoint elsewhere, for transferring a channel endpoint itself
// as a value across another channel.
func ExportHandles(d Duplex) []handle.Raw {
	return []handle.Raw{d.RawHandle()}
}

// ImportHandles is the dual of ExportHandles: hs must have HandleCount
// elements, as delivered out-of-band alongside the frame that carried them.
func ImportHandles(hs []handle.Raw) (Duplex, error) {
	if len(hs) != HandleCount {
		return nil, fmt.Errorf("syncstream: expected %d handle(s) for an endpoint, got %d", HandleCount, len(hs))
	}
	return FromRaw(hs[0])
}

// DupFile duplicates d's underlying fd into a fresh *os.File suitable for
// handing to exec.Cmd.ExtraFiles, so the original Duplex can be closed
// independently of whatever the child process inherits.
func DupFile(d Duplex, name string) (*os.File, error) {
	fd, err := unix.Dup(int(d.RawHandle()))
	if err != nil {
		return nil, fmt.Errorf("dup: %w", err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

func (s *unixStream) RawHandle() handle.Raw { return s.raw }

func (s *unixStream) Close() error { return s.conn.Close() }

func (s *unixStream) SendFrame(f Frame) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(f.Payload)))

	var oob []byte
	if len(f.Handles) > 0 {
		fds := make([]int, len(f.Handles))
		for i, h := range f.Handles {
			fds[i] = int(h)
		}
		oob = unix.UnixRights(fds...)
	}

	// The length header carries the ancillary data.
	if _, _, err := s.conn.WriteMsgUnix(hdr[:], oob, nil); err != nil {
		return fmt.Errorf("syncstream: write frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if err := writeFull(s.conn, f.Payload); err != nil {
			return fmt.Errorf("syncstream: write frame payload: %w", err)
		}
	}
	return nil
}

func (s *unixStream) RecvFrame() (Frame, bool, error) {
	hdr := make([]byte, 8)
	oob := make([]byte, unix.CmsgSpace(64*4)) // room for a generous handle batch

	n, oobn, _, _, err := s.conn.ReadMsgUnix(hdr, oob)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, false, nil
		}
		return Frame{}, false, fmt.Errorf("syncstream: read frame header: %w", err)
	}
	if n == 0 {
		return Frame{}, false, nil
	}
	if n < 8 {
		return Frame{}, false, &ErrUnexpectedEOF{Read: n, Want: 8}
	}

	handles, err := parseRights(oob[:oobn])
	if err != nil {
		return Frame{}, false, fmt.Errorf("syncstream: parse ancillary data: %w", err)
	}

	length := binary.LittleEndian.Uint64(hdr)
	payload := make([]byte, length)
	if length > 0 {
		if err := readFull(s.conn, payload); err != nil {
			return Frame{}, false, err
		}
	}
	return Frame{Payload: payload, Handles: handles}, true, nil
}

func parseRights(oob []byte) ([]handle.Raw, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, err
	}
	var out []handle.Raw
	for _, m := range msgs {
		fds, err := unix.ParseUnixRights(&m)
		if err != nil {
			return nil, err
		}
		for _, fd := range fds {
			out = append(out, handle.Raw(fd))
		}
	}
	return out, nil
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func readFull(r io.Reader, b []byte) error {
	read := 0
	for read < len(b) {
		n, err := r.Read(b[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &ErrUnexpectedEOF{Read: read, Want: len(b)}
			}
			return err
		}
	}
	return nil
}
