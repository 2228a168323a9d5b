package werr

// Hand-written in the shape msgp's code generator produces: a 4-field map
// with string keys, appended/read directly against the byte slice with no
// intermediate allocation beyond what growing the slice requires.

import (
	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg appends the MessagePack encoding of e to b and returns the
// extended slice.
func (e SerializableError) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 4)
	o = msgp.AppendString(o, "kind")
	o = msgp.AppendString(o, string(e.Kind))
	o = msgp.AppendString(o, "message")
	o = msgp.AppendString(o, e.Message)
	o = msgp.AppendString(o, "op")
	o = msgp.AppendString(o, e.Op)
	o = msgp.AppendString(o, "path")
	o = msgp.AppendString(o, e.Path)
	return o, nil
}

// UnmarshalMsg decodes the MessagePack encoding of e from bz, returning any
// unconsumed trailing bytes.
func (e *SerializableError) UnmarshalMsg(bz []byte) (o []byte, err error) {
	var field []byte
	n, bz, err := msgp.ReadMapHeaderBytes(bz)
	if err != nil {
		return bz, err
	}
	for i := uint32(0); i < n; i++ {
		field, bz, err = msgp.ReadStringZC(bz)
		if err != nil {
			return bz, err
		}
		switch string(field) {
		case "kind":
			var v string
			v, bz, err = msgp.ReadStringBytes(bz)
			if err != nil {
				return bz, err
			}
			e.Kind = Kind(v)
		case "message":
			e.Message, bz, err = msgp.ReadStringBytes(bz)
			if err != nil {
				return bz, err
			}
		case "op":
			e.Op, bz, err = msgp.ReadStringBytes(bz)
			if err != nil {
				return bz, err
			}
		case "path":
			e.Path, bz, err = msgp.ReadStringBytes(bz)
			if err != nil {
				return bz, err
			}
		default:
			bz, err = msgp.Skip(bz)
			if err != nil {
				return bz, err
			}
		}
	}
	return bz, nil
}

// Msgsize returns an upper bound on the encoded size, as msgp's generated
// code would provide for a cache-sizing hint.
func (e SerializableError) Msgsize() int {
	return msgp.MapHeaderSize +
		msgp.StringPrefixSize + len("kind") + msgp.StringPrefixSize + len(e.Kind) +
		msgp.StringPrefixSize + len("message") + msgp.StringPrefixSize + len(e.Message) +
		msgp.StringPrefixSize + len("op") + msgp.StringPrefixSize + len(e.Op) +
		msgp.StringPrefixSize + len("path") + msgp.StringPrefixSize + len(e.Path)
}
