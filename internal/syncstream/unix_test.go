//go:build !windows

package syncstream

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/handle"
)

func TestSocketpairRoundTrip(t *testing.T) {
	a, b, err := NewSocketpair()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.SendFrame(Frame{Payload: []byte("hello")}))
	f, ok, err := b.RecvFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), f.Payload)
}

func TestSocketpairHandleTransfer(t *testing.T) {
	a, b, err := NewSocketpair()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.NoError(t, a.SendFrame(Frame{
		Payload: []byte("fd incoming"),
		Handles: []handle.Raw(nil),
	}))
	_, _, err = b.RecvFrame()
	require.NoError(t, err)

	require.NoError(t, a.SendFrame(Frame{
		Payload: []byte("x"),
		Handles: []handle.Raw{handle.Raw(w.Fd())},
	}))
	f, ok, err := b.RecvFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.Handles, 1)
	require.NotEqual(t, handle.Invalid, f.Handles[0])
}

// TestFramePhysicalSizeIsLengthPrefixPlusPayload covers the POD fast path at
// the physical wire level: one frame carrying a 16-byte payload and no
// handles costs exactly the 8-byte length header plus those 16 bytes, with
// nothing else riding along.
func TestFramePhysicalSizeIsLengthPrefixPlusPayload(t *testing.T) {
	a, b, err := NewSocketpair()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	payload := make([]byte, 16)
	require.NoError(t, a.SendFrame(Frame{Payload: payload}))

	buf := make([]byte, 64)
	n, err := b.(*unixStream).conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8+len(payload), n)
}

func TestSocketpairCleanEOF(t *testing.T) {
	a, b, err := NewSocketpair()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Close())

	_, ok, err := b.RecvFrame()
	require.NoError(t, err)
	require.False(t, ok)
}
