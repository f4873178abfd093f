package label

import (
	"testing"

	"github.com/routingfib/corefib/internal/fib/ferrors"
	"github.com/routingfib/corefib/internal/fib/handle"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/stretchr/testify/require"
)

func directHop(t *testing.T, s *store.Store) handle.Handle {
	t.Helper()
	h, err := s.Insert(store.Fields{
		Kind: handle.KindDirectNextHop,
		Direct: &store.DirectNextHop{
			EgressPort: 10,
			Reachable:  true,
		},
	})
	require.NoError(t, err)
	return h
}

func TestPushStoresLabelsInStackOrder(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	h, err := Push(s, []store.Label{{Value: 100200, TTL: 255}, {Value: 50000, TTL: 64}}, next)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, store.OpPush, n.Label.Op)
	require.Equal(t, next, n.Label.Next)
	require.Equal(t, []store.Label{{Value: 100200, TTL: 255}, {Value: 50000, TTL: 64}}, n.Label.Labels)
}

func TestPushRejectsOversizeLabelValue(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	_, err := Push(s, []store.Label{{Value: 1 << 20}}, next)
	require.ErrorIs(t, err, ferrors.ErrInvalidArgument)
}

func TestPushRejectsOversizeTC(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	_, err := Push(s, []store.Label{{Value: 100, TC: 1 << 3}}, next)
	require.ErrorIs(t, err, ferrors.ErrInvalidArgument)
}

func TestPushRejectsEmptyLabelList(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	_, err := Push(s, nil, next)
	require.Error(t, err)
}

func TestSwapReplacesTopLabel(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	h, err := Swap(s, store.Label{Value: 300, TTL: 200}, next)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, store.OpSwap, n.Label.Op)
	require.Len(t, n.Label.Labels, 1)
	require.Equal(t, uint32(300), n.Label.Labels[0].Value)
}

func TestPopRecordsPopCount(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	h, err := Pop(s, 2, next)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, store.OpPop, n.Label.Op)
	require.Len(t, n.Label.Labels, 2)
}

func TestPopAllowsNilNext(t *testing.T) {
	s := store.New(store.Config{})

	h, err := Pop(s, 1, handle.Nil)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.True(t, n.Label.Next.IsNil())
}

func TestPopRejectsNonPositiveCount(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	_, err := Pop(s, 0, next)
	require.Error(t, err)

	_, err = PopAndForward(s, -1, next)
	require.Error(t, err)
}

func TestSwapAndPushKeepsGivenOrder(t *testing.T) {
	s := store.New(store.Config{})
	next := directHop(t, s)

	labels := []store.Label{{Value: 10}, {Value: 20}, {Value: 30}}
	h, err := SwapAndPush(s, labels, next)
	require.NoError(t, err)

	n, err := s.Get(h)
	require.NoError(t, err)
	require.Equal(t, store.OpSwapAndPush, n.Label.Op)
	require.Equal(t, labels, n.Label.Labels)
}

func TestStackReturnsCopyNotAlias(t *testing.T) {
	op := &store.LabelOperation{Labels: []store.Label{{Value: 1}, {Value: 2}}}
	out := Stack(op)
	out[0].Value = 999
	require.Equal(t, uint32(1), op.Labels[0].Value, "Stack must not let callers mutate the node's own label slice")
}
