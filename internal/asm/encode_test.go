package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitterBasicEncodings(t *testing.T) {
	for _, tc := range []struct {
		name string
		emit func(e *Emitter)
		want []byte
	}{
		{
			name: "mov rax, imm64",
			emit: func(e *Emitter) { e.MovRegImm64(RAX, 5) },
			want: []byte{0x48, 0xB8, 5, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "mov rcx, rdx",
			emit: func(e *Emitter) { e.MovRegReg(RCX, RDX) },
			want: []byte{0x48, 0x89, 0xD1},
		},
		{
			name: "add rax, imm32",
			emit: func(e *Emitter) { e.ArithRImm32(OpAdd, RAX, 5) },
			want: []byte{0x48, 0x81, 0xC0, 5, 0, 0, 0},
		},
		{
			name: "push r12",
			emit: func(e *Emitter) { e.Push(R12) },
			want: []byte{0x41, 0x54},
		},
		{
			name: "pop r15",
			emit: func(e *Emitter) { e.Pop(R15) },
			want: []byte{0x41, 0x5F},
		},
		{
			name: "call r15",
			emit: func(e *Emitter) { e.CallReg(R15) },
			want: []byte{0x41, 0xFF, 0xD7},
		},
		{
			name: "ret",
			emit: func(e *Emitter) { e.Ret() },
			want: []byte{0xC3},
		},
		{
			name: "sar rax, 3",
			emit: func(e *Emitter) { e.ShiftRightImm(RAX, 3, true) },
			want: []byte{0x48, 0xC1, 0xF8, 3},
		},
		{
			name: "shr rax, 3",
			emit: func(e *Emitter) { e.ShiftRightImm(RAX, 3, false) },
			want: []byte{0x48, 0xC1, 0xE8, 3},
		},
		{
			name: "neg r15",
			emit: func(e *Emitter) { e.Neg(R15) },
			want: []byte{0x49, 0xF7, 0xDF},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var e Emitter
			tc.emit(&e)
			code, err := e.Bytes()
			require.NoError(t, err)
			require.Equal(t, tc.want, code)
		})
	}
}

func TestEmitterLoadStoreMemSIBForRSPAndR12(t *testing.T) {
	// RSP and R12 both require a SIB byte to address [base] rather than
	// being reinterpreted as a rip-relative or missing-base form.
	for _, base := range []Reg{RSP, R12} {
		var e Emitter
		e.LoadMem(RAX, base, 0)
		code, err := e.Bytes()
		require.NoError(t, err)
		require.True(t, len(code) >= 4, "expected a SIB byte for base %v", base)
	}
}

func TestEmitterResetClearsCodeAndLabels(t *testing.T) {
	var e Emitter
	e.MovRegImm64(RAX, 1)
	lbl := e.NewLabel()
	e.Bind(lbl)
	require.NotZero(t, e.Len())

	e.Reset()
	require.Zero(t, e.Len())

	e.Ret()
	code, err := e.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xC3}, code)
}
