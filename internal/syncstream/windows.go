//go:build windows

package syncstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/yuki0iq/crossmist/internal/handle"
)

// On Windows a duplicated handle keeps its numeric value across inheritance,
// so there is no SCM_RIGHTS-style side channel to ride on: the handle list
// travels as a literal trailer appended to the frame payload itself, as
// [payload][handleCount uint32][handleCount * uint64].

// pipeDuplex pairs one read end and one write end, each an anonymous pipe
// handle, into a single Duplex.
type pipeDuplex struct {
	r    *os.File
	w    *os.File
	raw  handle.Raw
	mu   sync.Mutex
}

// Handles exposes d's two underlying pipe handles (read end, write end) so
// the spawn path can flip them inheritable for exactly the lifetime of one
// CreateProcess call and describe their values on the child's command line.
func Handles(d Duplex) (r, w handle.Raw) {
	p := d.(*pipeDuplex)
	return handle.Raw(p.r.Fd()), handle.Raw(p.w.Fd())
}

// NewPipePair creates two Duplex endpoints connected by a pair of anonymous
// pipes running in each direction, the Windows equivalent of a socketpair.
func NewPipePair() (a, b Duplex, err error) {
	ar, bw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("pipe: %w", err)
	}
	br, aw, err := os.Pipe()
	if err != nil {
		ar.Close()
		bw.Close()
		return nil, nil, fmt.Errorf("pipe: %w", err)
	}
	if err := makeNonInheritable(ar, aw, br, bw); err != nil {
		ar.Close()
		aw.Close()
		br.Close()
		bw.Close()
		return nil, nil, err
	}
	return &pipeDuplex{r: ar, w: aw, raw: handle.Raw(ar.Fd())},
		&pipeDuplex{r: br, w: bw, raw: handle.Raw(br.Fd())}, nil
}

func makeNonInheritable(files ...*os.File) error {
	for _, f := range files {
		if err := syscall.SetHandleInformation(syscall.Handle(f.Fd()), syscall.HANDLE_FLAG_INHERIT, 0); err != nil {
			return fmt.Errorf("syncstream: SetHandleInformation: %w", err)
		}
	}
	return nil
}

// FromRaw adopts an already-inherited pipe pair described by a child's
// handle table; rfd is the read end, wfd the write end.
func FromRaw(rfd, wfd handle.Raw) Duplex {
	r := os.NewFile(uintptr(rfd), "crossmist-pipe-r")
	w := os.NewFile(uintptr(wfd), "crossmist-pipe-w")
	return &pipeDuplex{r: r, w: w, raw: rfd}
}

// NewPair is the platform-neutral entry point used by the root package.
func NewPair() (a, b Duplex, err error) {
	return NewPipePair()
}

// HandleCount is how many raw handles ExportHandles/ImportHandles exchange
// to describe one endpoint on this platform: two, since a pipeDuplex is a
// pair of unidirectional pipe handles rather than one bidirectional socket.
const HandleCount = 2

// ExportHandles describes d as its read and write pipe handles, for
// transferring a channel endpoint itself as a value across another channel.
func ExportHandles(d Duplex) []handle.Raw {
	r, w := Handles(d)
	return []handle.Raw{r, w}
}

// ImportHandles is the dual of ExportHandles: hs must have HandleCount
// elements, in (read, write) order.
func ImportHandles(hs []handle.Raw) (Duplex, error) {
	if len(hs) != HandleCount {
		return nil, fmt.Errorf("syncstream: expected %d handles for an endpoint, got %d", HandleCount, len(hs))
	}
	return FromRaw(hs[0], hs[1]), nil
}

func (p *pipeDuplex) RawHandle() handle.Raw { return p.raw }

func (p *pipeDuplex) Close() error {
	rerr := p.r.Close()
	werr := p.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

func (p *pipeDuplex) SendFrame(f Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(f.Payload)))
	if err := writeFull(p.w, hdr[:]); err != nil {
		return fmt.Errorf("syncstream: write frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if err := writeFull(p.w, f.Payload); err != nil {
			return fmt.Errorf("syncstream: write frame payload: %w", err)
		}
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], uint32(len(f.Handles)))
	if err := writeFull(p.w, trailer[:]); err != nil {
		return fmt.Errorf("syncstream: write handle count: %w", err)
	}
	for _, h := range f.Handles {
		var hb [8]byte
		binary.LittleEndian.PutUint64(hb[:], uint64(h))
		if err := writeFull(p.w, hb[:]); err != nil {
			return fmt.Errorf("syncstream: write handle value: %w", err)
		}
	}
	return nil
}

func (p *pipeDuplex) RecvFrame() (Frame, bool, error) {
	hdr := make([]byte, 8)
	n, err := io.ReadFull(p.r, hdr)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Frame{}, false, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, false, &ErrUnexpectedEOF{Read: n, Want: 8}
		}
		return Frame{}, false, fmt.Errorf("syncstream: read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint64(hdr)
	payload := make([]byte, length)
	if length > 0 {
		if err := readFull(p.r, payload); err != nil {
			return Frame{}, false, err
		}
	}

	trailer := make([]byte, 4)
	if err := readFull(p.r, trailer); err != nil {
		return Frame{}, false, err
	}
	count := binary.LittleEndian.Uint32(trailer)
	var handles []handle.Raw
	if count > 0 {
		handles = make([]handle.Raw, count)
		for i := range handles {
			hb := make([]byte, 8)
			if err := readFull(p.r, hb); err != nil {
				return Frame{}, false, err
			}
			handles[i] = handle.Raw(binary.LittleEndian.Uint64(hb))
		}
	}
	return Frame{Payload: payload, Handles: handles}, true, nil
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
	n, err := io.ReadFull(r, b)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &ErrUnexpectedEOF{Read: n, Want: len(b)}
		}
		return err
	}
	return nil
}
