package crossmist

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
)

// ErrAlreadyJoined is returned by KillHandle.Kill once the child's exit has
// already been observed, by Join or by a prior Kill, since sending a signal
// at that point could hit a pid the OS has since handed to an unrelated
// process.
var ErrAlreadyJoined = errors.New("crossmist: already joined")

// Child is a handle to a process spawned via (*EntryPoint).Spawn, through
// which its eventual return value can be retrieved.
type Child[Ret any] struct {
	proc   *os.Process
	result *Duplex[Ret, Ret]

	kill *KillHandle
}

func newChild[Ret any](proc *os.Process, result *Duplex[Ret, Ret]) *Child[Ret] {
	return &Child[Ret]{
		proc:   proc,
		result: result,
		kill:   &KillHandle{proc: proc},
	}
}

// Join blocks until the child process returns its result and exits,
// and reports that value.
//
// A child that exits without ever sending a result — a panic that
// unwinds past the entry point's recover, an os.Exit call, a signal — is
// reported as an error rather than a zero Ret, so callers cannot mistake
// "the child died" for "the child computed the zero value." The one
// exception is an empty-struct Ret (see isUnitType): a child that exits with
// status 0 without sending a result joins successfully with the zero value.
func (c *Child[Ret]) Join() (Ret, error) {
	var zero Ret
	v, recvErr := c.result.Recv()
	// The pid is still ours until Wait reaps it; mark it unkillable the
	// instant we have the result, not after Wait frees it for reuse by an
	// unrelated process a racing Kill could then hit.
	c.kill.markReaped()
	state, waitErr := c.proc.Wait()

	if recvErr != nil {
		if waitErr == nil {
			if state != nil && !state.Success() {
				return zero, fmt.Errorf("crossmist: child exited with %s: %w", state, recvErr)
			}
			if isUnitType[Ret]() {
				return zero, nil
			}
			return zero, fmt.Errorf("crossmist: child exited without sending a result: %w", recvErr)
		}
		return zero, fmt.Errorf("crossmist: join child: %w", recvErr)
	}
	if waitErr != nil {
		return zero, fmt.Errorf("crossmist: wait for child exit: %w", waitErr)
	}
	return v, nil
}

// isUnitType reports whether Ret is Go's equivalent of Rust's unit type: an
// empty struct carrying no information. An entry point returning struct{}
// is treated as having succeeded with the zero value even if its channel
// closed before a result frame arrived, provided the process itself exited
// with status 0, since there is nothing a missing
// frame could have told us that the zero value doesn't already say.
func isUnitType[Ret any]() bool {
	var zero Ret
	return reflect.TypeOf(&zero).Elem().Kind() == reflect.Struct &&
		reflect.TypeOf(&zero).Elem().NumField() == 0
}

// Progress exposes the control duplex directly, for an entry point that
// reports intermediate values of type Ret before its eventual return. Every
// such intermediate frame must be drained with Progress().Recv() before
// calling Join, which otherwise has no way to tell an intermediate value
// apart from the final one.
func (c *Child[Ret]) Progress() *Duplex[Ret, Ret] {
	return c.result
}

// GetKillHandle returns a KillHandle that can terminate the child from
// another goroutine while Join is in progress elsewhere, without racing a
// concurrent successful Join into re-killing an unrelated, reused pid.
func (c *Child[Ret]) GetKillHandle() *KillHandle {
	return c.kill
}

// KillHandle lets a child be terminated without holding the Child[Ret]
// itself, e.g. from a timeout goroutine that does not know or care what the
// child's result type is.
type KillHandle struct {
	mu      sync.Mutex
	proc    *os.Process
	reaped  bool
}

// Kill terminates the process, unless it has already exited — Join having
// already observed its exit, or a previous Kill having already run — in
// which case Kill reports ErrAlreadyJoined rather than risk a misdirected
// signal to a reused pid. Of two concurrent Kill calls, at most one ever
// reports success.
func (k *KillHandle) Kill() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reaped {
		return ErrAlreadyJoined
	}
	k.reaped = true
	return k.proc.Kill()
}

// markReaped is called by Join once the child's exit has been observed, so
// a racing Kill never fires against a pid the OS may have since reused.
func (k *KillHandle) markReaped() {
	k.mu.Lock()
	k.reaped = true
	k.mu.Unlock()
}
