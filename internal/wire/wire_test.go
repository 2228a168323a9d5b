package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/handle"
)

type point struct {
	X, Y int64
}

func (p *point) MarshalWire(s *Serializer) error {
	if err := s.WriteInt64(p.X); err != nil {
		return err
	}
	return s.WriteInt64(p.Y)
}

func (p *point) UnmarshalWire(d *Deserializer) error {
	x, err := d.ReadInt64()
	if err != nil {
		return err
	}
	y, err := d.ReadInt64()
	if err != nil {
		return err
	}
	p.X, p.Y = x, y
	return nil
}

func roundTrip(t *testing.T, s *Serializer) *Deserializer {
	t.Helper()
	handles := s.DrainHandles()
	b := s.IntoBytes()
	return NewDeserializer(b, handles)
}

func TestPODRoundTrip(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	require.NoError(t, s.Serialize(uint64(42)))
	require.NoError(t, s.Serialize("hello"))
	require.NoError(t, s.Serialize(true))
	require.NoError(t, s.Serialize(3.25))

	d := roundTrip(t, s)

	var u uint64
	require.NoError(t, d.Deserialize(&u))
	require.Equal(t, uint64(42), u)

	var str string
	require.NoError(t, d.Deserialize(&str))
	require.Equal(t, "hello", str)

	var b bool
	require.NoError(t, d.Deserialize(&b))
	require.True(t, b)

	var f float64
	require.NoError(t, d.Deserialize(&f))
	require.Equal(t, 3.25, f)

	require.Equal(t, 0, d.Remaining())
}

func TestNonTrivialObjectRoundTrip(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	p := point{X: -5, Y: 99}
	require.NoError(t, s.Serialize(&p))

	d := roundTrip(t, s)
	var got point
	require.NoError(t, d.Deserialize(&got))
	require.Equal(t, p, got)
}

func TestHandleListOrder(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	require.NoError(t, s.WriteHandle(handle.Raw(7)))
	require.NoError(t, s.WriteHandle(handle.Raw(9)))

	d := roundTrip(t, s)
	h1, err := d.ReadHandle()
	require.NoError(t, err)
	h2, err := d.ReadHandle()
	require.NoError(t, err)
	require.Equal(t, handle.Raw(7), h1)
	require.Equal(t, handle.Raw(9), h2)

	_, err = d.ReadHandle()
	require.Error(t, err)
}

type namedAge int32

type person struct {
	Name string
	Age  namedAge
	Tags []string
}

func TestReflectFallbackStruct(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	p := person{Name: "ada", Age: 36, Tags: []string{"math", "computing"}}
	require.NoError(t, s.Serialize(p))

	d := roundTrip(t, s)
	var got person
	require.NoError(t, d.Deserialize(&got))
	require.Equal(t, p, got)
}

func TestReflectFallbackSliceOfSlices(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	v := [][]int{{1, 2}, {3}, nil}
	require.NoError(t, s.Serialize(v))

	d := roundTrip(t, s)
	var got [][]int
	require.NoError(t, d.Deserialize(&got))
	require.Equal(t, [][]int{{1, 2}, {3}, {}}, got)
}

func TestReflectFallbackMapAndPointer(t *testing.T) {
	s := NewSerializer()
	defer s.Release()
	n := 7
	m := map[string]*int{"seven": &n, "none": nil}
	require.NoError(t, s.Serialize(m))

	d := roundTrip(t, s)
	var got map[string]*int
	require.NoError(t, d.Deserialize(&got))
	require.Len(t, got, 2)
	require.Nil(t, got["none"])
	require.NotNil(t, got["seven"])
	require.Equal(t, 7, *got["seven"])
}

func TestFixedSizeFastPath(t *testing.T) {
	// Two fixed-size POD writes contribute exactly their own bytes, with no
	// extra length prefix, since the shape is known to both sides.
	s := NewSerializer()
	defer s.Release()
	require.NoError(t, s.WriteInt64(1))
	require.NoError(t, s.WriteInt64(2))
	b := s.IntoBytes()
	require.Len(t, b, 16)
}
