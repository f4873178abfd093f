package handle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilHandleIsZeroValue(t *testing.T) {
	var h Handle
	require.True(t, h.IsNil())
	require.Equal(t, Nil, h)
}

func TestNewRoundTripsKindGenerationIndex(t *testing.T) {
	cases := []struct {
		kind  Kind
		gen   uint32
		index uint32
	}{
		{KindDirectNextHop, 0, 1},
		{KindLabelOperation, 42, 7},
		{KindRecursiveNextHop, uint32(genMask), uint32(idxMask)},
		{KindEcmpGroup, 1, uint32(idxMask)},
		{KindFrrProtected, uint32(genMask), 1},
	}
	for _, c := range cases {
		h := New(c.kind, c.gen, c.index)
		require.False(t, h.IsNil())
		require.Equal(t, c.kind, h.Kind())
		require.Equal(t, c.gen, h.Generation())
		require.Equal(t, c.index, h.Index())
	}
}

func TestDistinctGenerationsProduceDistinctHandles(t *testing.T) {
	a := New(KindDirectNextHop, 1, 5)
	b := New(KindDirectNextHop, 2, 5)
	require.NotEqual(t, a, b, "generation bump must change the handle so stale references are detectable")
}

func TestStringIncludesKindIndexGeneration(t *testing.T) {
	h := New(KindEcmpGroup, 3, 9)
	s := h.String()
	require.Contains(t, s, "EcmpGroup")
	require.Contains(t, s, "9")
	require.Contains(t, s, "3")
	require.Equal(t, "Handle(nil)", Nil.String())
}

func TestKindStringUnknown(t *testing.T) {
	require.Equal(t, "UnknownKind", Kind(255).String())
}
