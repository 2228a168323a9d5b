// Package duplex layers multiple independent, concurrent conversations over
// a single crossmist channel. A raw channel carries one request at a time;
// Bridge wraps its underlying frame stream as a smux session so callers can
// open any number of logical streams without spawning another process.
package duplex

import (
	"net"
	"time"

	"github.com/xtaci/smux"

	"github.com/yuki0iq/crossmist/internal/syncstream"
)

// Bridge is a smux session running over a crossmist frame stream.
type Bridge struct {
	session *smux.Session
}

// NewServerBridge wraps d as the smux server side. Use on whichever end
// accepts logical streams (typically the parent).
func NewServerBridge(d syncstream.Duplex) (*Bridge, error) {
	session, err := smux.Server(&frameConn{d: d}, smux.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Bridge{session: session}, nil
}

// NewClientBridge wraps d as the smux client side. Use on whichever end
// opens logical streams (typically a spawned child).
func NewClientBridge(d syncstream.Duplex) (*Bridge, error) {
	session, err := smux.Client(&frameConn{d: d}, smux.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Bridge{session: session}, nil
}

// Open starts a new logical stream.
func (b *Bridge) Open() (net.Conn, error) {
	return b.session.OpenStream()
}

// Accept waits for the peer to start a new logical stream.
func (b *Bridge) Accept() (net.Conn, error) {
	return b.session.AcceptStream()
}

// Close tears down every logical stream and the underlying channel.
func (b *Bridge) Close() error {
	return b.session.Close()
}

// frameConn adapts a frame-oriented Duplex into the plain byte-stream
// net.Conn smux expects: each Write becomes one frame, and Read drains a
// received frame's payload before pulling the next one.
type frameConn struct {
	d       syncstream.Duplex
	pending []byte
}

func (c *frameConn) Read(b []byte) (int, error) {
	for len(c.pending) == 0 {
		f, ok, err := c.d.RecvFrame()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, net.ErrClosed
		}
		c.pending = f.Payload
	}
	n := copy(b, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *frameConn) Write(b []byte) (int, error) {
	if err := c.d.SendFrame(syncstream.Frame{Payload: b}); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *frameConn) Close() error { return c.d.Close() }

type dummyAddr struct{}

func (dummyAddr) Network() string { return "crossmist" }
func (dummyAddr) String() string  { return "crossmist" }

func (c *frameConn) LocalAddr() net.Addr  { return dummyAddr{} }
func (c *frameConn) RemoteAddr() net.Addr { return dummyAddr{} }

// Deadlines are not meaningful over this transport; smux only uses them
// opportunistically and tolerates the no-op.
func (c *frameConn) SetDeadline(t time.Time) error      { return nil }
func (c *frameConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *frameConn) SetWriteDeadline(t time.Time) error { return nil }
