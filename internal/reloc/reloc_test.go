package reloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuki0iq/crossmist/internal/wire"
)

func sampleTarget() int { return 42 }

func TestRoundTripSameProcess(t *testing.T) {
	p := Of(sampleTarget)
	off := p.Offset()
	p2 := FromOffset(off)
	require.Equal(t, p.Addr(), p2.Addr())
}

func TestWireRoundTrip(t *testing.T) {
	p := Of(sampleTarget)

	s := wire.NewSerializer()
	defer s.Release()
	require.NoError(t, s.Serialize(p))

	d := wire.NewDeserializer(s.IntoBytes(), nil)
	var got Ptr
	require.NoError(t, d.Deserialize(&got))
	require.Equal(t, p, got)
}

func TestOffsetSurvivesWrapping(t *testing.T) {
	// The anchor may sit on either side of the target in the final binary
	// layout; the offset arithmetic must tolerate both signs.
	p := Of(sampleTarget)
	off := p.Offset()
	back := FromOffset(off)
	require.Equal(t, p, back)
}
