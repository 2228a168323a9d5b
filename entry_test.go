package crossmist

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var echoEntry = Register("crossmist_test.echo", func(args string, toParent *Duplex[string, string]) string {
	return "echo:" + args
})

var sumEntry = Register("crossmist_test.sum", func(args []int, toParent *Duplex[int, int]) int {
	total := 0
	for i, v := range args {
		total += v
		if i < len(args)-1 {
			_ = toParent.Send(total)
		}
	}
	return total * 10
})

// unitEntry exits directly rather than returning, so its control channel
// closes without a result frame ever being sent — the case Join must still
// treat as a successful, zero-valued unit result.
var unitEntry = Register("crossmist_test.unit", func(args string, toParent *Duplex[struct{}, struct{}]) struct{} {
	os.Exit(0)
	return struct{}{}
})

// handoffEntry receives a transferred channel endpoint as its argument and
// uses it to talk back to the parent through a connection the parent never
// passed to Spawn directly.
var handoffEntry = Register("crossmist_test.handoff", func(tx *Sender[string], toParent *Duplex[string, string]) string {
	_ = tx.Send("hello")
	tx.Close()
	return "done"
})

var exitCodeEntry = Register("crossmist_test.exitcode", func(args string, toParent *Duplex[string, string]) string {
	os.Exit(7)
	return ""
})

var loopEntry = Register("crossmist_test.loop", func(args struct{}, toParent *Duplex[int, int]) int {
	for {
		time.Sleep(time.Hour)
	}
})

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

func TestSpawnAndJoinEcho(t *testing.T) {
	child, err := echoEntry.Spawn("world")
	require.NoError(t, err)

	result, err := child.Join()
	require.NoError(t, err)
	require.Equal(t, "echo:world", result)
}

func TestSpawnReportsProgressBeforeResult(t *testing.T) {
	child, err := sumEntry.Spawn([]int{1, 2, 3})
	require.NoError(t, err)

	first, err := child.Progress().Recv()
	require.NoError(t, err)
	require.Equal(t, 1, first)

	second, err := child.Progress().Recv()
	require.NoError(t, err)
	require.Equal(t, 3, second)

	result, err := child.Join()
	require.NoError(t, err)
	require.Equal(t, 60, result)
}

func TestKillHandleAfterJoinReportsAlreadyJoined(t *testing.T) {
	child, err := echoEntry.Spawn("noop")
	require.NoError(t, err)
	_, err = child.Join()
	require.NoError(t, err)

	kill := child.GetKillHandle()
	require.ErrorIs(t, kill.Kill(), ErrAlreadyJoined)
}

// S2 — Unit return: the child exits without ever sending a result frame;
// Join still reports success with the zero value rather than an error.
func TestJoinUnitReturnIgnoresMissingResultFrame(t *testing.T) {
	child, err := unitEntry.Spawn("ignored")
	require.NoError(t, err)

	result, err := child.Join()
	require.NoError(t, err)
	require.Equal(t, struct{}{}, result)
}

// S3 — Handle transfer: a channel endpoint created in the parent is passed
// as a Spawn argument, and the child uses it to talk back over a connection
// never directly returned by Spawn.
func TestSpawnTransfersChannelEndpointAsArgument(t *testing.T) {
	tx, rx, err := NewChannel[string]()
	require.NoError(t, err)
	defer rx.Close()

	child, err := handoffEntry.Spawn(tx)
	require.NoError(t, err)

	msg, err := rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "hello", msg)

	_, err = rx.Recv()
	require.ErrorIs(t, err, ErrClosed)

	result, err := child.Join()
	require.NoError(t, err)
	require.Equal(t, "done", result)
}

// S4 — Non-zero exit: the child exits immediately with status 7; Join
// reports an error whose message contains that code.
func TestJoinSurfacesNonZeroExitCode(t *testing.T) {
	child, err := exitCodeEntry.Spawn("ignored")
	require.NoError(t, err)

	_, err = child.Join()
	require.Error(t, err)
	require.Contains(t, err.Error(), "7")
}

// S5 — Kill: killing a looping child causes a subsequent Join to report an
// error instead of hanging forever.
func TestKillLoopingChildReportsErrorOnJoin(t *testing.T) {
	child, err := loopEntry.Spawn(struct{}{})
	require.NoError(t, err)

	kill := child.GetKillHandle()
	require.NoError(t, kill.Kill())

	_, err = child.Join()
	require.Error(t, err)
}
