// Package registry is the process-wide table of spawnable entry points.
//
// A channel can carry a Go closure by value because the wire encoding of a
// closure is just its captured environment; the *code* to run that
// environment against cannot travel the same way. Go's generics are
// implemented by GC-shape stenciling, so two distinct instantiations of the
// same generic entry point can legitimately share one machine-code address —
// a raw function pointer captured in the parent is not a reliable key to
// dispatch on in the child. Instead every entry point is registered under a
// stable string name at package-init time in both the parent and any child
// image (they are the same binary), and only that name crosses the wire.
package registry

import (
	"fmt"

	"github.com/yuki0iq/crossmist/internal/registry/safemap"
	"github.com/yuki0iq/crossmist/internal/syncstream"
)

// Trampoline runs one registered entry point against the already-adopted
// control channel to its parent, and returns the child's intended process
// exit status. The channel's first frame, the entry point's name, has already
// been consumed by the dispatcher; the trampoline is responsible for reading
// its own arguments as the next frame, running the entry function, and
// sending back its result as the channel's last.
type Trampoline func(conn syncstream.Duplex) int

var entries = safemap.New[string, Trampoline]()

// Register binds name to fn. It is meant to be called from an init() or a
// package-level var initializer, once per name, identically in every process
// image that might need to dispatch it — which in crossmist's re-exec model
// is simply "the same binary", so this is automatic as long as the call site
// itself is unconditional.
//
// Register panics on a duplicate name: two entry points racing for the same
// name is a programming error in the calling binary, not a runtime condition
// to recover from.
func Register(name string, fn Trampoline) {
	if _, loaded := entries.GetOrSet(name, fn); loaded {
		panic(fmt.Sprintf("registry: entry point %q registered more than once", name))
	}
}

// Lookup resolves a name back to its Trampoline.
func Lookup(name string) (Trampoline, bool) {
	return entries.Get(name)
}

// Len reports how many entry points are currently registered. Exposed
// primarily for tests.
func Len() int {
	return entries.Len()
}
