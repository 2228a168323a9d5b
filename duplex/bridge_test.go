//go:build !windows

package duplex

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/syncstream"
)

func TestBridgeMultiplexesStreams(t *testing.T) {
	a, b, err := syncstream.NewSocketpair()
	require.NoError(t, err)

	server, err := NewServerBridge(a)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewClientBridge(b)
	require.NoError(t, err)
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s, err := server.Accept()
		require.NoError(t, err)
		defer s.Close()
		buf := make([]byte, 5)
		_, err = io.ReadFull(s, buf)
		require.NoError(t, err)
		require.Equal(t, "hello", string(buf))
		_, err = s.Write([]byte("world"))
		require.NoError(t, err)
	}()

	c, err := client.Open()
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte("hello"))
	require.NoError(t, err)
	reply := make([]byte, 5)
	_, err = io.ReadFull(c, reply)
	require.NoError(t, err)
	require.Equal(t, "world", string(reply))

	<-done
}
