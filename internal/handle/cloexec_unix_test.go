//go:build !windows

package handle

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloexecRoundTrip(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	h := Raw(r.Fd())

	cloexec, err := IsCloexec(h)
	require.NoError(t, err)
	require.True(t, cloexec, "os.Pipe fds are cloexec by default")

	require.NoError(t, DisableCloexec(h))
	cloexec, err = IsCloexec(h)
	require.NoError(t, err)
	require.False(t, cloexec)

	require.NoError(t, EnableCloexec(h))
	cloexec, err = IsCloexec(h)
	require.NoError(t, err)
	require.True(t, cloexec)
}

func TestWithInheritedRestoresCloexec(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	hs := []Raw{Raw(r.Fd()), Raw(w.Fd())}

	var sawCloexec []bool
	err = WithInherited(hs, func() error {
		for _, h := range hs {
			cloexec, err := IsCloexec(h)
			require.NoError(t, err)
			sawCloexec = append(sawCloexec, cloexec)
		}
		return nil
	})
	require.NoError(t, err)

	// Every handle was inheritable for the duration of fn...
	for _, cloexec := range sawCloexec {
		require.False(t, cloexec)
	}

	// ...and every handle that had cloexec set before the call still has it
	// set after, regardless of fn's success.
	for _, h := range hs {
		cloexec, err := IsCloexec(h)
		require.NoError(t, err)
		require.True(t, cloexec)
	}
}

func TestWithInheritedRestoresCloexecEvenOnFnError(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	h := Raw(r.Fd())
	boom := os.ErrClosed

	err = WithInherited([]Raw{h}, func() error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	cloexec, err := IsCloexec(h)
	require.NoError(t, err)
	require.True(t, cloexec)
}
