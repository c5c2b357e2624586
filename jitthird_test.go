package jitthird

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// run feeds source through a fresh World and returns the World so the
// test can inspect its stacks once execution settles; output is captured
// but not asserted on here.
func run(t *testing.T, source string) *World {
	t.Helper()
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString(source)), WithOutput(&captured))
	t.Cleanup(func() { w.Close() })
	require.NoError(t, w.Run(context.Background()))
	return w
}

func TestAddLeavesSumOnDataStack(t *testing.T) {
	w := run(t, "16 16 +\n")
	require.Equal(t, 1, w.Stacks.DepthD())
	require.Equal(t, int64(32), w.Stacks.PopD())
}

func TestColonDefinitionSquare(t *testing.T) {
	w := run(t, ": sq dup * ;\n5 sq\n")
	require.Equal(t, int64(25), w.Stacks.PopD())
}

func TestCountUpDoLoopSumsOneThroughTen(t *testing.T) {
	w := run(t, ": cnt 0 11 1 do i + loop ;\ncnt\n")
	require.Equal(t, int64(55), w.Stacks.PopD())
}

func TestBeginWhileAgainCountsToTen(t *testing.T) {
	w := run(t, ": ba 0 begin dup 10 < while 1+ again ;\nba\n")
	require.Equal(t, int64(10), w.Stacks.PopD())
}

func TestBeginUntilWithLeaveStopsEarly(t *testing.T) {
	w := run(t, ": bu 0 begin 1+ dup 5 > if leave then dup 10 = until ;\n0 bu\n")
	require.Equal(t, int64(6), w.Stacks.PopD())
}

func TestLocalsFrameAddsArguments(t *testing.T) {
	w := run(t, ": tl { a b } a b + ;\n10 1 tl\n")
	require.Equal(t, int64(11), w.Stacks.PopD())
}

func TestDataStackUnderflowHaltsTheSession(t *testing.T) {
	// A halt (stack under/overflow, unknown address, ...) panics all the
	// way out to Run's single top-level recover, the same one-shot
	// abort-on-halt behaviour as the teacher's VM.Run: it ends the whole
	// session rather than just the offending line.
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString("+\n16 16 +\n")), WithOutput(&captured))
	defer w.Close()

	err := w.Run(context.Background())
	require.ErrorIs(t, err, ErrDSUnderflow)
}

func TestUnknownWordIsReportedAndSessionContinues(t *testing.T) {
	// Compile errors (unlike halts) are returned, not panicked, so
	// interpretLine's per-line catch in run() reports them and the loop
	// continues to the next line.
	w := run(t, "nosuchword\n16 16 +\n")
	require.Equal(t, int64(32), w.Stacks.PopD())
}

func TestDoLoopWithEqualLimitAndStartRunsOnce(t *testing.T) {
	// DO/LOOP here is post-test (do-while): the body always runs at
	// least once, so limit==start still executes a single iteration
	// rather than zero.
	w := run(t, ": cnt 0 5 5 do i + loop ;\ncnt\n")
	require.Equal(t, int64(5), w.Stacks.PopD())
}

func TestValueVariableConstantAndTo(t *testing.T) {
	w := run(t, "variable v\n42 v !\nv @\n")
	require.Equal(t, int64(42), w.Stacks.PopD())

	w2 := run(t, "10 value n\nn\n")
	require.Equal(t, int64(10), w2.Stacks.PopD())

	w3 := run(t, "10 value n\n99 to n\nn\n")
	require.Equal(t, int64(99), w3.Stacks.PopD())

	w4 := run(t, "7 constant seven\nseven\n")
	require.Equal(t, int64(7), w4.Stacks.PopD())
}

func TestAllotAndHereTrackBumpPointer(t *testing.T) {
	w := run(t, "here 3 allot here swap -\n")
	require.Equal(t, int64(3), w.Stacks.PopD())
}

func TestForgetRemovesWordAndEverythingAfterIt(t *testing.T) {
	w := run(t, ": a 1 ;\n: b 2 ;\n: c 3 ;\nforget b\n")
	require.NotNil(t, w.Dict.Find("a"))
	require.Nil(t, w.Dict.Find("b"))
	require.Nil(t, w.Dict.Find("c"))
}

func TestCaseOfMatchesSecondClauseAndLeavesDataStackEmpty(t *testing.T) {
	// Selector 2 must match the SECOND OF clause (222), not the first
	// (111); a regression of the OVER-vs-DUP selector bug would make the
	// first OF always match regardless of the selector on top of it.
	w := run(t, ": t case 1 of 111 endof 2 of 222 endof 999 endcase ;\n2 t\n")
	require.Equal(t, int64(222), w.Stacks.PopD())
	require.Equal(t, 0, w.Stacks.DepthD())
}

func TestCaseOfFirstClauseMatchesAndLeavesDataStackEmpty(t *testing.T) {
	w := run(t, ": t case 1 of 111 endof 2 of 222 endof 999 endcase ;\n1 t\n")
	require.Equal(t, int64(111), w.Stacks.PopD())
	require.Equal(t, 0, w.Stacks.DepthD())
}

func TestCaseFallsThroughToDefaultWhenNoOfMatches(t *testing.T) {
	// The default clause runs with the selector still on top; it swaps its
	// result beneath the selector so ENDCASE's DROP discards the selector.
	w := run(t, ": t case 1 of 111 endof 2 of 222 endof 999 swap endcase ;\n77 t\n")
	require.Equal(t, int64(999), w.Stacks.PopD())
	require.Equal(t, 0, w.Stacks.DepthD())
}
