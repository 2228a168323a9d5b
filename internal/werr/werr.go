// Package werr carries an error across a channel. A Go error value can wrap
// arbitrary, unserializable state, so instead of attempting to transmit one
// directly this package reduces an error to a small, self-contained
// SerializableError classifying which well-known sentinel it corresponds to
// (if any) plus its message, and rebuilds an equivalent error from that on
// the other side.
package werr

import (
	"errors"
	"os"

	"github.com/yuki0iq/crossmist/internal/wire"
)

// Kind classifies a serialized error against the small set of stdlib
// sentinel errors worth reconstructing faithfully. Anything else falls back
// to a plain errors.New of the original message.
type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindNotExist   Kind = "os.ErrNotExist"
	KindPermission Kind = "os.ErrPermission"
	KindPathError  Kind = "os.PathError"
	KindTimeout    Kind = "os.ErrDeadlineExceeded"
	KindClosed     Kind = "os.ErrClosed"
)

// SerializableError is the wire form of an error.
type SerializableError struct {
	Kind    Kind
	Message string
	Op      string
	Path    string
}

var (
	_ wire.Object      = SerializableError{}
	_ wire.Unmarshaler = (*SerializableError)(nil)
)

// MarshalWire encodes the error as MessagePack bytes framed as a length
// prefixed blob, so the wire payload stays opaque to anything but this
// package.
func (e SerializableError) MarshalWire(s *wire.Serializer) error {
	b, err := e.MarshalMsg(nil)
	if err != nil {
		return err
	}
	return s.WriteBytes(b)
}

// UnmarshalWire is the inverse of MarshalWire.
func (e *SerializableError) UnmarshalWire(d *wire.Deserializer) error {
	b, err := d.ReadBytes()
	if err != nil {
		return err
	}
	_, err = e.UnmarshalMsg(b)
	return err
}

// Wrap reduces err to its wire form. A nil err wraps to the zero value,
// whose Kind is the empty string; Unwrap of that returns nil.
func Wrap(err error) SerializableError {
	if err == nil {
		return SerializableError{}
	}

	se := SerializableError{
		Kind:    KindUnknown,
		Message: err.Error(),
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		se.Op = pathErr.Op
		se.Path = pathErr.Path
		switch {
		case errors.Is(pathErr.Err, os.ErrNotExist):
			se.Kind = KindNotExist
		case errors.Is(pathErr.Err, os.ErrPermission):
			se.Kind = KindPermission
		default:
			se.Kind = KindPathError
		}
		return se
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		se.Kind = KindNotExist
	case errors.Is(err, os.ErrPermission):
		se.Kind = KindPermission
	case errors.Is(err, os.ErrDeadlineExceeded):
		se.Kind = KindTimeout
	case errors.Is(err, os.ErrClosed):
		se.Kind = KindClosed
	}
	return se
}

// Unwrap rebuilds an error value from its wire form. The result is never
// identical (==) to the original error, only equivalent under errors.Is for
// the sentinels this package knows about.
func Unwrap(se SerializableError) error {
	if se.Kind == "" && se.Message == "" {
		return nil
	}

	op := se.Op
	if op == "" {
		op = "open"
	}
	switch se.Kind {
	case KindNotExist:
		return &os.PathError{Op: op, Path: se.Path, Err: os.ErrNotExist}
	case KindPermission:
		return &os.PathError{Op: op, Path: se.Path, Err: os.ErrPermission}
	case KindPathError:
		return &os.PathError{Op: op, Path: se.Path, Err: errors.New(se.Message)}
	case KindTimeout:
		return os.ErrDeadlineExceeded
	case KindClosed:
		return os.ErrClosed
	default:
		return errors.New(se.Message)
	}
}
