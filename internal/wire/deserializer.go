package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/yuki0iq/crossmist/internal/handle"
)

// Deserializer is the dual of Serializer: a byte cursor plus the ordered
// handle list the transport delivered, consumed in the same order the
// Serializer produced them.
type Deserializer struct {
	buf     []byte
	pos     int
	handles []handle.Raw
	hpos    int
}

// NewDeserializer wraps a byte payload and its accompanying handle list.
func NewDeserializer(buf []byte, handles []handle.Raw) *Deserializer {
	return &Deserializer{buf: buf, handles: handles}
}

func (d *Deserializer) need(n int) error {
	if len(d.buf)-d.pos < n {
		return fmt.Errorf("wire: unexpected end of payload: need %d bytes, have %d", n, len(d.buf)-d.pos)
	}
	return nil
}

// Deserialize fills v (which must be a pointer) using the object contract.
//
// One case needs help beyond the ordinary "v is *T, and *T implements
// Unmarshaler" check: a channel whose element type T is itself a pointer
// type (e.g. *Sender[string], to receive a transferred channel endpoint),
// where Unmarshaler is implemented by T directly rather than by *T. v then
// arrives as a pointer to that nil T, one level of indirection short of
// anything addressable enough to call a method on; a fresh T is allocated
// here instead, handed to its own UnmarshalWire, and the result stored
// through v.
func (d *Deserializer) Deserialize(v any) error {
	if obj, ok := v.(Unmarshaler); ok {
		return obj.UnmarshalWire(d)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Ptr {
		elem := reflect.New(rv.Elem().Type().Elem())
		if obj, ok := elem.Interface().(Unmarshaler); ok {
			if err := obj.UnmarshalWire(d); err != nil {
				return err
			}
			rv.Elem().Set(elem)
			return nil
		}
	}
	return d.DeserializeTemporary(v)
}

// DeserializeTemporary is SerializeTemporary's dual: it fills a pointer to
// one of the scalar kinds directly, and anything else through the reflection
// fallback.
func (d *Deserializer) DeserializeTemporary(v any) error {
	switch x := v.(type) {
	case *bool:
		val, err := d.ReadBool()
		if err == nil {
			*x = val
		}
		return err
	case *uint8:
		val, err := d.ReadUint8()
		if err == nil {
			*x = val
		}
		return err
	case *int8:
		val, err := d.ReadUint8()
		if err == nil {
			*x = int8(val)
		}
		return err
	case *uint16:
		val, err := d.ReadUint16()
		if err == nil {
			*x = val
		}
		return err
	case *int16:
		val, err := d.ReadUint16()
		if err == nil {
			*x = int16(val)
		}
		return err
	case *uint32:
		val, err := d.ReadUint32()
		if err == nil {
			*x = val
		}
		return err
	case *int32:
		val, err := d.ReadUint32()
		if err == nil {
			*x = int32(val)
		}
		return err
	case *uint64:
		val, err := d.ReadUint64()
		if err == nil {
			*x = val
		}
		return err
	case *int64:
		val, err := d.ReadInt64()
		if err == nil {
			*x = val
		}
		return err
	case *uint:
		val, err := d.ReadUint64()
		if err == nil {
			*x = uint(val)
		}
		return err
	case *int:
		val, err := d.ReadInt64()
		if err == nil {
			*x = int(val)
		}
		return err
	case *float32:
		val, err := d.ReadFloat32()
		if err == nil {
			*x = val
		}
		return err
	case *float64:
		val, err := d.ReadFloat64()
		if err == nil {
			*x = val
		}
		return err
	case *string:
		val, err := d.ReadString()
		if err == nil {
			*x = val
		}
		return err
	case *[]byte:
		val, err := d.ReadBytes()
		if err == nil {
			*x = val
		}
		return err
	case *time.Time:
		val, err := d.ReadTime()
		if err == nil {
			*x = val
		}
		return err
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("wire: %T must be a non-nil pointer to deserialize into", v)
		}
		return d.deserializeInto(rv.Elem())
	}
}

// ReadUint8 reads a single byte.
func (d *Deserializer) ReadUint8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

// ReadBool reads a single byte as a boolean.
func (d *Deserializer) ReadBool() (bool, error) {
	v, err := d.ReadUint8()
	return v == 1, err
}

// ReadUint16 reads a little-endian uint16.
func (d *Deserializer) ReadUint16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (d *Deserializer) ReadUint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

// ReadInt64 reads a little-endian int64.
func (d *Deserializer) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadUint64 reads a little-endian uint64.
func (d *Deserializer) ReadUint64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

// ReadFloat32 reads a little-endian float32.
func (d *Deserializer) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian float64.
func (d *Deserializer) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes reads a length-prefixed byte slice. The returned slice aliases
// the Deserializer's input buffer; copy it if it must outlive that buffer.
func (d *Deserializer) ReadBytes() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	v := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return v, nil
}

// ReadString reads a length-prefixed string.
func (d *Deserializer) ReadString() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadTime reads a time.Time encoded as UnixNano.
func (d *Deserializer) ReadTime() (time.Time, error) {
	nsec, err := d.ReadInt64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nsec), nil
}

// ReadHandle consumes the next handle from the out-of-band list, in the same
// order the Serializer recorded them.
func (d *Deserializer) ReadHandle() (handle.Raw, error) {
	if d.hpos >= len(d.handles) {
		return handle.Invalid, fmt.Errorf("wire: handle list exhausted (wanted index %d, have %d)", d.hpos, len(d.handles))
	}
	h := d.handles[d.hpos]
	d.hpos++
	return h, nil
}

// Remaining reports how many payload bytes are left unread.
func (d *Deserializer) Remaining() int {
	return len(d.buf) - d.pos
}
