package jitthird

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelStackPushTopPop(t *testing.T) {
	var ls labelStack
	require.True(t, ls.empty())
	require.Nil(t, ls.top())

	ls.push(labelFrame{kind: frameIfElse})
	ls.push(labelFrame{kind: frameBegin})
	require.Equal(t, 2, ls.depth())
	require.Equal(t, frameBegin, ls.top().kind)

	f, ok := ls.pop()
	require.True(t, ok)
	require.Equal(t, frameBegin, f.kind)
	require.Equal(t, 1, ls.depth())

	_, ok = ls.pop()
	require.True(t, ok)
	require.True(t, ls.empty())

	_, ok = ls.pop()
	require.False(t, ok, "popping an empty stack reports failure rather than panicking")
}

func TestInnermostLoopSkipsNonLoopFrames(t *testing.T) {
	var ls labelStack
	ls.push(labelFrame{kind: frameFunc})
	ls.push(labelFrame{kind: frameDoLoop})
	ls.push(labelFrame{kind: frameIfElse})

	loop := ls.innermostLoop()
	require.NotNil(t, loop)
	require.Equal(t, frameDoLoop, loop.kind)
}

func TestInnermostLoopFindsBeginFrame(t *testing.T) {
	var ls labelStack
	ls.push(labelFrame{kind: frameBegin})
	loop := ls.innermostLoop()
	require.NotNil(t, loop)
	require.Equal(t, frameBegin, loop.kind)
}

func TestInnermostFuncFindsEnclosingDefinition(t *testing.T) {
	var ls labelStack
	ls.push(labelFrame{kind: frameFunc})
	ls.push(labelFrame{kind: frameDoLoop})

	fn := ls.innermostFunc()
	require.NotNil(t, fn)
	require.Equal(t, frameFunc, fn.kind)
}

func TestOpenDoLoopsCountsOnlyDoLoopFrames(t *testing.T) {
	var ls labelStack
	ls.push(labelFrame{kind: frameFunc})
	ls.push(labelFrame{kind: frameDoLoop})
	ls.push(labelFrame{kind: frameIfElse})
	ls.push(labelFrame{kind: frameDoLoop})

	require.Equal(t, 2, ls.openDoLoops())
}
