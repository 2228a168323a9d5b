// Package crossmist provides typed channels and spawnable entry points for
// communicating with a process started from the program's own binary.
//
// A Sender[T]/Receiver[T] pair (or a single Duplex[S, R]) moves values of a
// fixed Go type across a process boundary, transparently carrying the
// handles of any channel endpoints (Sender/Receiver) those values contain.
// Other OS objects, such as an *os.File or a net.Conn, have no wire encoding
// of their own and are not transferred.
// Spawn a child with Register and (*EntryPoint[Args, Ret]).Spawn; the
// spawned process re-executes the same binary and dispatches straight into
// the registered function, skipping the rest of program startup.
package crossmist

import (
	"fmt"
	"io"

	"github.com/yuki0iq/crossmist/internal/handle"
	"github.com/yuki0iq/crossmist/internal/syncstream"
	"github.com/yuki0iq/crossmist/internal/wire"
)

// ErrClosed is returned by Recv once the peer has closed its end cleanly,
// i.e. there is no more data and there never will be.
var ErrClosed = io.EOF

// Sender is the write half of a typed channel.
type Sender[T any] struct {
	stream syncstream.Sender
}

// Send serializes v via the object-wire contract and transmits it, along
// with any handles v transitively references, as one frame. If T's wire
// encoding is custom rather than a POD kind, T must itself satisfy
// wire.Object (use a pointer type parameter if the type's MarshalWire has a
// pointer receiver).
func (s *Sender[T]) Send(v T) error {
	ser := wire.NewSerializer()
	defer ser.Release()
	if err := ser.Serialize(v); err != nil {
		return fmt.Errorf("crossmist: serialize value: %w", err)
	}
	handles := ser.DrainHandles()
	payload := ser.IntoBytes()
	if err := s.stream.SendFrame(syncstream.Frame{Payload: payload, Handles: handles}); err != nil {
		return fmt.Errorf("crossmist: send frame: %w", err)
	}
	return nil
}

// Close closes the sender's underlying transport.
func (s *Sender[T]) Close() error { return s.stream.Close() }

// RawHandle exposes the transport's OS handle, e.g. to register it with an
// asyncio.Reactor.
func (s *Sender[T]) RawHandle() handle.Raw { return s.stream.RawHandle() }

// MarshalWire lets a Sender itself be sent as a value over another channel,
// e.g. as a field of a Spawn argument: the underlying transport's handle(s)
// travel out-of-band and are reconstructed into a fresh, equally-capable
// Sender on the far side. The sender's own copy should not be used again
// afterward, the same way an owned handle shouldn't be touched once it has
// been handed off.
func (s *Sender[T]) MarshalWire(ser *wire.Serializer) error {
	return marshalEndpoint(ser, s.stream)
}

// UnmarshalWire is MarshalWire's dual.
func (s *Sender[T]) UnmarshalWire(d *wire.Deserializer) error {
	stream, err := unmarshalEndpoint(d)
	if err != nil {
		return err
	}
	s.stream = stream
	return nil
}

// Receiver is the read half of a typed channel.
type Receiver[T any] struct {
	stream syncstream.Receiver
}

// Recv blocks for the next value. It returns ErrClosed, never a T, once the
// peer has gone away cleanly between frames.
func (r *Receiver[T]) Recv() (T, error) {
	var zero T
	f, ok, err := r.stream.RecvFrame()
	if err != nil {
		return zero, fmt.Errorf("crossmist: recv frame: %w", err)
	}
	if !ok {
		return zero, ErrClosed
	}
	d := wire.NewDeserializer(f.Payload, f.Handles)
	var v T
	if err := d.Deserialize(&v); err != nil {
		return zero, fmt.Errorf("crossmist: deserialize value: %w", err)
	}
	return v, nil
}

// Close closes the receiver's underlying transport.
func (r *Receiver[T]) Close() error { return r.stream.Close() }

// RawHandle exposes the transport's OS handle.
func (r *Receiver[T]) RawHandle() handle.Raw { return r.stream.RawHandle() }

// MarshalWire lets a Receiver itself be sent as a value over another
// channel; see Sender.MarshalWire.
func (r *Receiver[T]) MarshalWire(ser *wire.Serializer) error {
	return marshalEndpoint(ser, r.stream)
}

// UnmarshalWire is MarshalWire's dual.
func (r *Receiver[T]) UnmarshalWire(d *wire.Deserializer) error {
	stream, err := unmarshalEndpoint(d)
	if err != nil {
		return err
	}
	r.stream = stream
	return nil
}

// Duplex is both directions of a channel backed by the same connected pair,
// sending values of type S and receiving values of type R.
type Duplex[S, R any] struct {
	Sender[S]
	Receiver[R]
}

// Close closes the shared underlying transport once; closing both embedded
// halves separately would double-close it.
func (d *Duplex[S, R]) Close() error { return d.Sender.stream.Close() }

// NewChannel creates a connected Sender/Receiver pair of the given type,
// e.g. to hand the Receiver end to a child while keeping the Sender.
func NewChannel[T any]() (*Sender[T], *Receiver[T], error) {
	a, b, err := syncstream.NewPair()
	if err != nil {
		return nil, nil, fmt.Errorf("crossmist: create channel: %w", err)
	}
	return &Sender[T]{stream: a}, &Receiver[T]{stream: b}, nil
}

// NewDuplexPair creates two connected Duplex endpoints: the first sends S
// and receives R, the second sends R and receives S.
func NewDuplexPair[S, R any]() (*Duplex[S, R], *Duplex[R, S], error) {
	a, b, err := syncstream.NewPair()
	if err != nil {
		return nil, nil, fmt.Errorf("crossmist: create duplex: %w", err)
	}
	return &Duplex[S, R]{Sender: Sender[S]{stream: a}, Receiver: Receiver[R]{stream: a}},
		&Duplex[R, S]{Sender: Sender[R]{stream: b}, Receiver: Receiver[S]{stream: b}}, nil
}

// duplexFrom wraps an already-established syncstream.Duplex (e.g. one
// adopted from inherited handles in a spawned child) as a Duplex[S, R].
func duplexFrom[S, R any](d syncstream.Duplex) *Duplex[S, R] {
	return &Duplex[S, R]{Sender: Sender[S]{stream: d}, Receiver: Receiver[R]{stream: d}}
}

// marshalEndpoint records the handle(s) backing an endpoint's transport so
// it can be reconstructed on the far side of a send. stream is always, in
// practice, a syncstream.Duplex underneath: on POSIX a Sender[T] and a
// Receiver[T] are each one full-duplex socket used in only one direction; on
// Windows a pipeDuplex already wraps both pipe halves.
func marshalEndpoint(ser *wire.Serializer, stream any) error {
	d, ok := stream.(syncstream.Duplex)
	if !ok {
		return fmt.Errorf("crossmist: endpoint transport does not support being transferred")
	}
	for _, h := range syncstream.ExportHandles(d) {
		if err := ser.WriteHandle(h); err != nil {
			return err
		}
	}
	return nil
}

// unmarshalEndpoint is marshalEndpoint's dual.
func unmarshalEndpoint(d *wire.Deserializer) (syncstream.Duplex, error) {
	hs := make([]handle.Raw, syncstream.HandleCount)
	for i := range hs {
		h, err := d.ReadHandle()
		if err != nil {
			return nil, err
		}
		hs[i] = h
	}
	return syncstream.ImportHandles(hs)
}
