package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/handle"
	"github.com/yuki0iq/crossmist/internal/syncstream"
)

// stubDuplex is a no-op syncstream.Duplex, enough to exercise dispatch
// without a real transport.
type stubDuplex struct{ closed bool }

func (s *stubDuplex) SendFrame(f syncstream.Frame) error          { return nil }
func (s *stubDuplex) RecvFrame() (syncstream.Frame, bool, error) { return syncstream.Frame{}, false, nil }
func (s *stubDuplex) Close() error                                { s.closed = true; return nil }
func (s *stubDuplex) RawHandle() handle.Raw                       { return handle.Raw(0) }

func TestRegisterAndLookup(t *testing.T) {
	name := "registry_test.echo"
	Register(name, func(conn syncstream.Duplex) int {
		conn.Close()
		return 7
	})

	fn, ok := Lookup(name)
	require.True(t, ok)
	d := &stubDuplex{}
	require.Equal(t, 7, fn(d))
	require.True(t, d.closed)

	_, ok = Lookup("registry_test.does-not-exist")
	require.False(t, ok)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	name := "registry_test.dup"
	Register(name, func(syncstream.Duplex) int { return 0 })
	require.Panics(t, func() {
		Register(name, func(syncstream.Duplex) int { return 0 })
	})
}
