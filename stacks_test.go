package jitthird

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackPushPopDepth(t *testing.T) {
	s := newStack("DS", 8)
	require.Equal(t, 0, s.depth())

	s.push(1)
	s.push(2)
	s.push(3)
	require.Equal(t, 3, s.depth())
	require.Equal(t, int64(3), s.peek(0))
	require.Equal(t, int64(2), s.peek(1))

	require.Equal(t, int64(3), s.pop())
	require.Equal(t, int64(2), s.pop())
	require.Equal(t, 1, s.depth())

	s.reset()
	require.Equal(t, 0, s.depth())
}

func TestStackUnderflowHalts(t *testing.T) {
	s := newStack("DS", 4)
	require.PanicsWithValue(t, haltError{ErrDSUnderflow}, func() { s.pop() })
}

func TestStackOverflowHalts(t *testing.T) {
	s := newStack("RS", 2)
	s.push(1)
	s.push(2)
	require.PanicsWithValue(t, haltError{ErrRSOverflow}, func() { s.push(3) })
}

func TestStackManagerSnapshotRoundTrips(t *testing.T) {
	sm := newStackManager(StackSizes{DS: 16, RS: 16, LS: 16, SS: 16}, DefaultPinnedRegs)
	sm.PushD(10)
	sm.PushD(20)
	sm.PushR(99)

	snap := sm.Snapshot()
	// Simulate JIT code having pushed one more cell onto DS by moving the
	// pointer address itself, the way the pinned register would after a
	// `sub DS, 8; mov [DS], val` sequence.
	snap[0] -= 8

	sm.Apply(snap)
	require.Equal(t, 3, sm.DepthD())
}

func TestStackManagerDSBaseAddrIsStableAcrossPushes(t *testing.T) {
	sm := newStackManager(StackSizes{DS: 16, RS: 16, LS: 16, SS: 16}, DefaultPinnedRegs)
	base := sm.DSBaseAddr()
	sm.PushD(1)
	sm.PushD(2)
	require.Equal(t, base, sm.DSBaseAddr())
}
