//go:build linux

package asyncio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpollReactorWaitsForReadiness(t *testing.T) {
	r, err := NewEpollReactor()
	require.NoError(t, err)
	defer r.Close()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	require.NoError(t, r.RegisterRead(int(pr.Fd())))

	ready, err := r.Wait(50)
	require.NoError(t, err)
	require.Empty(t, ready)

	_, err = pw.Write([]byte("x"))
	require.NoError(t, err)

	ready, err = r.Wait(1000)
	require.NoError(t, err)
	require.Equal(t, []int{int(pr.Fd())}, ready)

	require.NoError(t, r.Unregister(int(pr.Fd())))
}
