package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelForwardBranchPatchedOnBind(t *testing.T) {
	var e Emitter
	lbl := e.NewLabel()
	e.Jmp(lbl) // forward reference: rel32 placeholder at offset 1
	nopAt := e.Len()
	e.Ret() // stand-in for whatever comes between jmp and its target
	e.Bind(lbl)

	code, err := e.Bytes()
	require.NoError(t, err)

	rel := int32(code[1]) | int32(code[2])<<8 | int32(code[3])<<16 | int32(code[4])<<24
	instrEnd := 5 // jmp rel32 is 5 bytes
	require.Equal(t, int32(len(code)-instrEnd), rel)
	require.Equal(t, byte(0xC3), code[nopAt])
}

func TestLabelBackwardBranchPatchedImmediately(t *testing.T) {
	var e Emitter
	lbl := e.NewLabel()
	e.Bind(lbl)
	e.Ret()
	e.Jmp(lbl)

	code, err := e.Bytes()
	require.NoError(t, err)

	jmpAt := 1 // one byte of Ret before the Jmp opcode
	rel := int32(code[jmpAt+1]) | int32(code[jmpAt+2])<<8 | int32(code[jmpAt+3])<<16 | int32(code[jmpAt+4])<<24
	instrEnd := jmpAt + 5
	require.Equal(t, int32(0-instrEnd), rel)
}

func TestUnboundLabelFailsFinalize(t *testing.T) {
	var e Emitter
	lbl := e.NewLabel()
	e.Jmp(lbl)
	_, err := e.Bytes()
	require.ErrorIs(t, err, errUnboundLabel)
}

func TestBindingTwicePanics(t *testing.T) {
	var e Emitter
	lbl := e.NewLabel()
	e.Bind(lbl)
	require.Panics(t, func() { e.Bind(lbl) })
}
