package crossmist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelRoundTrip(t *testing.T) {
	tx, rx, err := NewChannel[string]()
	require.NoError(t, err)
	defer tx.Close()
	defer rx.Close()

	require.NoError(t, tx.Send("hello"))
	got, err := rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestChannelRecvAfterCloseIsErrClosed(t *testing.T) {
	tx, rx, err := NewChannel[int]()
	require.NoError(t, err)
	defer rx.Close()

	require.NoError(t, tx.Close())
	_, err = rx.Recv()
	require.ErrorIs(t, err, ErrClosed)
}

func TestSenderTransferredAsValue(t *testing.T) {
	innerTx, innerRx, err := NewChannel[string]()
	require.NoError(t, err)
	defer innerRx.Close()

	outerTx, outerRx, err := NewChannel[*Sender[string]]()
	require.NoError(t, err)
	defer outerTx.Close()
	defer outerRx.Close()

	require.NoError(t, outerTx.Send(innerTx))
	received, err := outerRx.Recv()
	require.NoError(t, err)

	require.NoError(t, received.Send("hello from a transferred endpoint"))
	got, err := innerRx.Recv()
	require.NoError(t, err)
	require.Equal(t, "hello from a transferred endpoint", got)
}

func TestDuplexPairBothDirections(t *testing.T) {
	a, b, err := NewDuplexPair[int, string]()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Send(42))
	got, err := b.Recv()
	require.NoError(t, err)
	require.Equal(t, 42, got)

	require.NoError(t, b.Send("pong"))
	reply, err := a.Recv()
	require.NoError(t, err)
	require.Equal(t, "pong", reply)
}
