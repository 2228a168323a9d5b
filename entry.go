package crossmist

import (
	"fmt"

	"github.com/yuki0iq/crossmist/internal/registry"
	"github.com/yuki0iq/crossmist/internal/syncstream"
	"github.com/yuki0iq/crossmist/internal/xlog"
)

// entryMagic replaces argv[0] on a re-exec that should dispatch straight
// into a registered entry point instead of running the program's normal
// main. Chosen to be unmistakably not a real program name.
const entryMagic = "_crossmist_"

// EntryFunc is the shape a registered entry point takes. toParent carries
// values of type Ret in both directions for as long as the function runs;
// whatever it returns becomes the single, final frame sent back to the
// parent once it returns, after which the channel is closed and the process
// exits.
type EntryFunc[Args, Ret any] func(args Args, toParent *Duplex[Ret, Ret]) Ret

// EntryPoint is a function registered as spawnable under a stable name.
type EntryPoint[Args, Ret any] struct {
	name string
	fn   EntryFunc[Args, Ret]
}

// Register binds fn under name so it can later be started with Spawn. name
// must be unique process-wide. Register is meant to run unconditionally at
// package scope — an init func or a package-level var initializer — in
// every binary that might dispatch it; since a spawned crossmist child is
// always a re-exec of the very same binary, an ordinary top-level call
// suffices.
//
// Register panics if name is already registered, the same condition
// internal/registry.Register panics on.
func Register[Args, Ret any](name string, fn EntryFunc[Args, Ret]) *EntryPoint[Args, Ret] {
	ep := &EntryPoint[Args, Ret]{name: name, fn: fn}
	registry.Register(name, ep.trampoline)
	return ep
}

// trampoline is what internal/registry actually dispatches to, once conn's
// first frame (its entry point's own name) has already been consumed by the
// caller to find it. It knows nothing about Args or Ret beyond what conn's
// next frame decodes into, and owns the rest of the control channel's
// lifetime from there.
func (ep *EntryPoint[Args, Ret]) trampoline(conn syncstream.Duplex) int {
	args, err := duplexFrom[Ret, Args](conn).Recv()
	if err != nil {
		xlog.L.Error(err).WithField("entry", ep.name).Msg("receive entry point arguments")
		return 1
	}

	toParent := duplexFrom[Ret, Ret](conn)
	defer toParent.Close()

	result := ep.fn(args, toParent)

	if err := toParent.Send(result); err != nil {
		xlog.L.Error(err).WithField("entry", ep.name).Msg("send result to parent")
		return 1
	}
	return 0
}

// Spawn starts a child process re-executing the current binary straight
// into ep. The child's argv carries nothing but entryMagic and whatever
// handle values the control channel needs to be adopted; ep's name and args
// travel as the first two frames sent over that channel once established,
// and a Child handle is returned for retrieving whatever toParent
// eventually yields.
func (ep *EntryPoint[Args, Ret]) Spawn(args Args) (*Child[Ret], error) {
	proc, control, err := spawnEntryProcess()
	if err != nil {
		return nil, fmt.Errorf("crossmist: spawn %q: %w", ep.name, err)
	}

	if err := (&Sender[string]{stream: control}).Send(ep.name); err != nil {
		control.Close()
		return nil, fmt.Errorf("crossmist: send entry point name: %w", err)
	}

	if err := duplexFrom[Args, Ret](control).Send(args); err != nil {
		control.Close()
		return nil, fmt.Errorf("crossmist: send arguments to %q: %w", ep.name, err)
	}

	return newChild[Ret](proc, duplexFrom[Ret, Ret](control)), nil
}
