package werr

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/wire"
)

func TestWrapUnwrapNil(t *testing.T) {
	require.NoError(t, Unwrap(Wrap(nil)))
}

func TestWrapUnwrapNotExist(t *testing.T) {
	orig := &os.PathError{Op: "open", Path: "/no/such/file", Err: os.ErrNotExist}
	got := Unwrap(Wrap(orig))
	require.True(t, errors.Is(got, os.ErrNotExist))
	var pe *os.PathError
	require.True(t, errors.As(got, &pe))
	require.Equal(t, "/no/such/file", pe.Path)
}

func TestWrapUnwrapPlainError(t *testing.T) {
	orig := errors.New("boom")
	got := Unwrap(Wrap(orig))
	require.EqualError(t, got, "boom")
}

func TestWireRoundTrip(t *testing.T) {
	se := Wrap(&os.PathError{Op: "stat", Path: "/tmp/x", Err: os.ErrPermission})

	s := wire.NewSerializer()
	defer s.Release()
	require.NoError(t, s.Serialize(se))

	d := wire.NewDeserializer(s.IntoBytes(), s.DrainHandles())
	var got SerializableError
	require.NoError(t, d.Deserialize(&got))
	require.Equal(t, se, got)
}
