package jitthird

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestInternDedupesAndIncrefsOnRepeat(t *testing.T) {
	si := newStringInterner()
	a := si.Intern("hello")
	b := si.Intern("hello")
	require.Equal(t, a, b, "interning the same value twice returns the same index")
	require.Equal(t, 2, si.entries[a].refs)
}

func TestStringOfRoundTrips(t *testing.T) {
	si := newStringInterner()
	idx := si.Intern("count up")
	require.Equal(t, "count up", si.StringOf(idx))
}

func TestAddressOfPointsAtLengthPrefixedPayload(t *testing.T) {
	si := newStringInterner()
	idx := si.Intern("hi")
	addr := si.AddressOf(idx)

	data := si.entries[idx].data
	require.Equal(t, uintptr(unsafe.Pointer(&data[0])), addr)
	require.Equal(t, byte(2), data[0], "8-byte little-endian length prefix, low byte first")
	require.Equal(t, "hi", string(data[8:]))
}

func TestDecrefToZeroFreesSlotForReuse(t *testing.T) {
	si := newStringInterner()
	idx := si.Intern("scratch")
	si.Decref(idx)
	require.Nil(t, si.entries[idx])

	idx2 := si.Intern("new value")
	require.Equal(t, idx, idx2, "a cleared slot is reused rather than appending a new one")
}

func TestDecrefAboveOneKeepsEntryAlive(t *testing.T) {
	si := newStringInterner()
	idx := si.Intern("kept")
	si.Incref(idx)
	require.Equal(t, 2, si.entries[idx].refs)

	si.Decref(idx)
	require.NotNil(t, si.entries[idx])
	require.Equal(t, 1, si.entries[idx].refs)
}

func TestReleaseIfLastIsDecrefAlias(t *testing.T) {
	si := newStringInterner()
	idx := si.Intern("once")
	si.ReleaseIfLast(idx)
	require.Nil(t, si.entries[idx])
}

func TestConcatInternsJoinedValue(t *testing.T) {
	si := newStringInterner()
	a := si.Intern("foo")
	b := si.Intern("bar")
	c := si.Concat(a, b)
	require.Equal(t, "foobar", si.StringOf(c))
}

func TestStringOfUnknownIndexHalts(t *testing.T) {
	si := newStringInterner()
	require.PanicsWithValue(t, haltError{ErrUnknownWord}, func() { si.StringOf(99) })
}
