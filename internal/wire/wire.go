// Package wire implements object-wire framing: a growable byte buffer
// paired with an ordered out-of-band handle list, and the two-tier object
// contract (POD fast path vs. custom marshal/unmarshal pair) values use to
// describe their own wire form.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/yuki0iq/crossmist/internal/handle"
)

// Object is the non-trivial tier of the object contract: a type implementing
// it describes its own serialization instead of being copied byte-for-byte.
// MarshalWire/UnmarshalWire must be inverses: unmarshalling the bytes (and
// handles, in the same order) produced by MarshalWire must yield a value
// semantically equal to the original.
type Object interface {
	MarshalWire(s *Serializer) error
}

// Unmarshaler is implemented by a pointer receiver that fills itself in from
// a Deserializer, mirroring encoding.BinaryUnmarshaler / gob.GobDecoder.
type Unmarshaler interface {
	UnmarshalWire(d *Deserializer) error
}

// Serializer accumulates a byte payload plus an ordered list of handles that
// must travel out-of-band alongside it.
type Serializer struct {
	buf     *bytebufferpool.ByteBuffer
	handles []handle.Raw
}

// NewSerializer returns a Serializer with a pooled backing buffer.
func NewSerializer() *Serializer {
	return &Serializer{buf: bytebufferpool.Get()}
}

// Release returns the backing buffer to the pool. Call after IntoBytes, or
// instead of it if the Serializer is being discarded.
func (s *Serializer) Release() {
	if s.buf != nil {
		bytebufferpool.Put(s.buf)
		s.buf = nil
	}
}

// Serialize appends v using the object contract: if v implements Object, its
// own MarshalWire runs; otherwise v is handed to SerializeTemporary.
func (s *Serializer) Serialize(v any) error {
	if obj, ok := v.(Object); ok {
		return obj.MarshalWire(s)
	}
	return s.SerializeTemporary(v)
}

// SerializeTemporary appends a value that is not itself an Object. Fixed-size
// scalars are written as their little-endian bit pattern, strings and byte
// slices with a length prefix, and time.Time as UnixNano. Any other value goes
// through the reflection fallback, which serializes its elements or exported
// fields one by one; an element that is an Object may record handles.
func (s *Serializer) SerializeTemporary(v any) error {
	switch x := v.(type) {
	case bool:
		return s.WriteBool(x)
	case int8:
		return s.WriteUint8(uint8(x))
	case uint8:
		return s.WriteUint8(x)
	case int16:
		return s.WriteUint16(uint16(x))
	case uint16:
		return s.WriteUint16(x)
	case int32:
		return s.WriteUint32(uint32(x))
	case uint32:
		return s.WriteUint32(x)
	case int64:
		return s.WriteInt64(x)
	case uint64:
		return s.WriteUint64(x)
	case int:
		return s.WriteInt64(int64(x))
	case uint:
		return s.WriteUint64(uint64(x))
	case float32:
		return s.WriteFloat32(x)
	case float64:
		return s.WriteFloat64(x)
	case string:
		return s.WriteString(x)
	case []byte:
		return s.WriteBytes(x)
	case time.Time:
		return s.WriteTime(x)
	default:
		return reflectSerialize(s, reflect.ValueOf(v))
	}
}

func (s *Serializer) grow(n int) {
	s.buf.B = append(s.buf.B, make([]byte, n)...)
}

// WriteUint8 appends a single byte.
func (s *Serializer) WriteUint8(v uint8) error {
	s.buf.B = append(s.buf.B, v)
	return nil
}

// WriteBool appends a boolean as a single byte.
func (s *Serializer) WriteBool(v bool) error {
	if v {
		return s.WriteUint8(1)
	}
	return s.WriteUint8(0)
}

// WriteUint16 appends a little-endian uint16.
func (s *Serializer) WriteUint16(v uint16) error {
	pos := len(s.buf.B)
	s.grow(2)
	binary.LittleEndian.PutUint16(s.buf.B[pos:], v)
	return nil
}

// WriteUint32 appends a little-endian uint32.
func (s *Serializer) WriteUint32(v uint32) error {
	pos := len(s.buf.B)
	s.grow(4)
	binary.LittleEndian.PutUint32(s.buf.B[pos:], v)
	return nil
}

// WriteInt64 appends a little-endian int64.
func (s *Serializer) WriteInt64(v int64) error {
	return s.WriteUint64(uint64(v))
}

// WriteUint64 appends a little-endian uint64.
func (s *Serializer) WriteUint64(v uint64) error {
	pos := len(s.buf.B)
	s.grow(8)
	binary.LittleEndian.PutUint64(s.buf.B[pos:], v)
	return nil
}

// WriteFloat32 appends a little-endian float32.
func (s *Serializer) WriteFloat32(v float32) error {
	return s.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a little-endian float64.
func (s *Serializer) WriteFloat64(v float64) error {
	return s.WriteUint64(math.Float64bits(v))
}

// WriteBytes appends a length-prefixed byte slice.
func (s *Serializer) WriteBytes(v []byte) error {
	if err := s.WriteUint32(uint32(len(v))); err != nil {
		return err
	}
	s.buf.B = append(s.buf.B, v...)
	return nil
}

// WriteString appends a length-prefixed string.
func (s *Serializer) WriteString(v string) error {
	return s.WriteBytes([]byte(v))
}

// WriteTime appends a time.Time as UnixNano.
func (s *Serializer) WriteTime(v time.Time) error {
	return s.WriteInt64(v.UnixNano())
}

// WriteHandle records a handle and its position in the handle list; the
// value itself is never copied into the byte payload, only its index is
// implicit in list order.
func (s *Serializer) WriteHandle(h handle.Raw) error {
	s.handles = append(s.handles, h)
	return nil
}

// DrainHandles moves the accumulated handle list out of the Serializer.
func (s *Serializer) DrainHandles() []handle.Raw {
	out := s.handles
	s.handles = nil
	return out
}

// IntoBytes moves the byte buffer out, leaving the Serializer with an empty
// one. The caller owns the returned slice; call Release when finished with
// the Serializer itself to return its (now-empty) pooled buffer.
func (s *Serializer) IntoBytes() []byte {
	out := s.buf.B
	s.buf.B = nil
	return out
}
