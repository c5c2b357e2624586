package jitthird

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDictionaryAddFindIsCaseInsensitiveAndShadows(t *testing.T) {
	d := newDictionary(4)
	require.Nil(t, d.Find("dup"))

	first := d.Add("DUP", nil, 0, nil, nil)
	require.Equal(t, "dup", first.Name)
	require.Same(t, first, d.Find("DUP"))
	require.Same(t, first, d.Find("dup"))

	second := d.Add("dup", nil, 0, nil, nil)
	require.Same(t, second, d.Find("dup"), "most recently defined entry shadows the earlier one")
	require.Same(t, first, second.Link)
}

func TestDictionaryForgetLastRewindsLatest(t *testing.T) {
	d := newDictionary(4)
	d.Add("a", nil, 0, nil, nil)
	b := d.Add("b", nil, 0, nil, nil)
	_ = b
	d.Add("c", nil, 0, nil, nil)

	require.NoError(t, d.ForgetLast())
	require.Equal(t, "b", d.Latest().Name)
	require.Nil(t, d.Find("c"))
	require.NotNil(t, d.Find("b"))
}

func TestDictionaryForgetEmptyErrors(t *testing.T) {
	d := newDictionary(4)
	require.ErrorIs(t, d.ForgetLast(), ErrForgetEmpty)
}

func TestDictionaryAllotCellAtAndVarAddrAgree(t *testing.T) {
	d := newDictionary(4)
	here0 := d.CurrentHere()
	idx := d.Allot(2)
	require.Equal(t, here0, idx)
	require.Equal(t, here0+2, d.CurrentHere())

	d.SetCellAt(idx, 42)
	require.Equal(t, int64(42), d.CellAt(idx))
	require.Equal(t, int64(0), d.CellAt(idx+1))

	addr0 := d.VarAddr(idx)
	addr1 := d.VarAddr(idx + 1)
	require.Equal(t, addr0+8, addr1, "adjacent cells are 8 bytes apart")
}

func TestDictionaryWordsMostRecentFirst(t *testing.T) {
	d := newDictionary(4)
	d.Add("a", nil, 0, nil, nil)
	d.Add("b", nil, 0, nil, nil)
	d.Add("c", nil, 0, nil, nil)

	names := make([]string, 0, 3)
	for _, e := range d.Words() {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"c", "b", "a"}, names)
}
