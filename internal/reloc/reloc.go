// Package reloc implements relocatable code pointers: a code address stored
// on the wire as its signed offset from a fixed, singleton anchor symbol, so
// it survives ASLR as long as both processes run the exact same binary image.
//
// Go's own runtime applies ASLR uniformly to a PIE binary's text segment, so
// the *offset* between any two symbols compiled into the same binary is fixed
// at link time regardless of where the OS loads the image.
package reloc

import (
	"reflect"
	"unsafe"

	"github.com/yuki0iq/crossmist/internal/wire"
)

var (
	_ wire.Object      = Ptr(0)
	_ wire.Unmarshaler = (*Ptr)(nil)
)

// anchor is the singleton base symbol every offset is computed against. It
// must never be duplicated: two copies (e.g. one per compilation unit) would
// each have a different address and break round-tripping.
var anchor byte

func anchorAddr() uintptr {
	return uintptr(unsafe.Pointer(&anchor))
}

// Ptr is a relocatable pointer to a top-level, non-closure function. It is
// POD for framing purposes (a single machine word) but requires the
// anchor-relative encode/decode below instead of a verbatim copy.
type Ptr uintptr

// Of captures the current address of a plain top-level function. fn must not
// be a method value or a closure that captures state — those may not have a
// stable, anchor-relative address (a closure's code may be shared across
// distinct instantiations under Go's generics implementation).
func Of(fn any) Ptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("reloc.Of: not a function value")
	}
	return Ptr(v.Pointer())
}

// Offset encodes the pointer as a wrapping signed offset from the anchor.
func (p Ptr) Offset() int64 {
	return int64(uintptr(p) - anchorAddr())
}

// FromOffset reconstructs a Ptr in the current process from an offset
// produced by Offset in the same build.
func FromOffset(off int64) Ptr {
	return Ptr(anchorAddr() + uintptr(off))
}

// Addr returns the raw address this Ptr refers to in the current process.
func (p Ptr) Addr() uintptr {
	return uintptr(p)
}

// MarshalWire sends the anchor-relative offset, never the raw address:
// the address itself is only meaningful in the process that computed it,
// while the offset is stable across any process running the same binary.
func (p Ptr) MarshalWire(s *wire.Serializer) error {
	return s.WriteInt64(p.Offset())
}

// UnmarshalWire reconstructs p against this process's own anchor.
func (p *Ptr) UnmarshalWire(d *wire.Deserializer) error {
	off, err := d.ReadInt64()
	if err != nil {
		return err
	}
	*p = FromOffset(off)
	return nil
}
