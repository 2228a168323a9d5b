// Package handle provides a unified raw/owned OS handle type across POSIX
// file descriptors and Windows HANDLEs, plus cloexec toggling.
package handle

import "fmt"

// Raw is an opaque OS-provided integer identifying a kernel object. It does
// not own the underlying object and is freely copyable.
type Raw uintptr

// Invalid is the sentinel raw value that never refers to a live handle.
const Invalid Raw = ^Raw(0)

func (h Raw) String() string {
	return fmt.Sprintf("%d", uintptr(h))
}

// Owned exclusively owns a Raw handle and closes it when Close is called.
// The zero value owns nothing.
type Owned struct {
	raw   Raw
	valid bool
}

// FromRaw adopts a raw handle, asserting the caller transfers ownership.
func FromRaw(raw Raw) Owned {
	return Owned{raw: raw, valid: true}
}

// IntoRaw releases ownership and returns the raw handle. The caller asserts
// it will take over responsibility for closing it.
func (o *Owned) IntoRaw() Raw {
	o.valid = false
	return o.raw
}

// Raw returns the underlying raw handle without releasing ownership.
func (o *Owned) Raw() Raw {
	return o.raw
}

// Valid reports whether this Owned currently owns a live handle.
func (o *Owned) Valid() bool {
	return o.valid
}
