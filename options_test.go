package jitthird

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsFlattensNestedCompositesAndDropsNil(t *testing.T) {
	var logged []string
	logf := func(mess string, args ...interface{}) { logged = append(logged, mess) }

	inner := Options(WithLogf(logf), nil)
	combined := Options(inner, Options(WithLoopCheck(true)))

	w := &World{}
	combined.apply(w)

	require.True(t, w.loopCheck)
	w.logging.logf("hello")
	require.Equal(t, []string{"hello"}, logged)
}

func TestOptionsWithNoOptionsReturnsNoopOption(t *testing.T) {
	opt := Options()
	w := &World{}
	require.NotPanics(t, func() { opt.apply(w) })
}

func TestWithInputQueuesReaderForLaterConsumption(t *testing.T) {
	w := New(WithInput(bytes.NewBufferString("16 16 + .\n")))
	require.Len(t, w.in.Queue, 1)
}

func TestWithOutputReplacesWriter(t *testing.T) {
	var buf bytes.Buffer
	w := New(WithOutput(&buf))
	w.writeString("hi")
	w.flush()
	require.Equal(t, "hi", buf.String())
}

func TestWithStackSizesOverridesDefaults(t *testing.T) {
	w := New(WithStackSizes(StackSizes{DS: 64, RS: 32, LS: 16, SS: 16}))
	require.Equal(t, StackSizes{DS: 64, RS: 32, LS: 16, SS: 16}, w.stackSizes)
}

func TestWithRegistersOverridesPinnedRegisters(t *testing.T) {
	custom := PinnedRegs{DS: DefaultPinnedRegs.RS, RS: DefaultPinnedRegs.DS, LS: DefaultPinnedRegs.LS, SS: DefaultPinnedRegs.SS}
	w := New(WithRegisters(custom))
	require.Equal(t, custom, w.regs)
}

func TestWithLoopCheckDefaultsFalse(t *testing.T) {
	w := New()
	require.False(t, w.loopCheck)
	w2 := New(WithLoopCheck(true))
	require.True(t, w2.loopCheck)
}

func TestWithAutoResetTogglesFlag(t *testing.T) {
	w := New(WithAutoReset(true))
	require.True(t, w.autoReset)
}

func TestWithAutoResetDefaultLeavesOnlyLatestDefinitionInTheBuffer(t *testing.T) {
	w := run(t, ": a 1 ;\n: b 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 ;\n")
	single := w.Generator.e.Len()

	w2 := run(t, ": b 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 ;\n")
	require.Equal(t, w2.Generator.e.Len(), single)
}

func TestWithAutoResetFalseAccumulatesBytesAcrossDefinitions(t *testing.T) {
	// With the toggle off, compileDefinition's Reset() call is skipped, so
	// the second definition's code is appended after the first's rather
	// than starting from a clean buffer -- the observable effect the
	// review found missing entirely before Reset() was gated on the flag.
	solo := New(WithAutoReset(false), WithInput(bytes.NewBufferString(": b 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 ;\n")))
	t.Cleanup(func() { solo.Close() })
	require.NoError(t, solo.Run(context.Background()))
	single := solo.Generator.e.Len()

	w := New(WithAutoReset(false), WithInput(bytes.NewBufferString(": a 1 ;\n: b 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 2 ;\n")))
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.Run(context.Background()))

	require.Greater(t, w.Generator.e.Len(), single)
}
