package jitthird

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordsListsDefinedWord(t *testing.T) {
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString(": sq dup * ;\nwords\n")), WithOutput(&captured))
	defer w.Close()
	require.NoError(t, w.Run(context.Background()))
	require.Contains(t, captured.String(), "sq")
}

func TestDotSReportsDataStackDepthAndTop(t *testing.T) {
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString("16 16 + .s\n")), WithOutput(&captured))
	defer w.Close()
	require.NoError(t, w.Run(context.Background()))
	require.Contains(t, captured.String(), "DS: depth=1 [32]")
}

func TestSeeDescribesAPrimitiveAndAColonDefinition(t *testing.T) {
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString(": sq dup * ;\nsee dup\nsee sq\n")), WithOutput(&captured))
	defer w.Close()
	require.NoError(t, w.Run(context.Background()))
	out := captured.String()
	require.Contains(t, out, "dup: primitive")
	require.Contains(t, out, "sq: colon definition")
}

func TestSeeOnValueReportsKindAndValue(t *testing.T) {
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString("10 value n\nsee n\n")), WithOutput(&captured))
	defer w.Close()
	require.NoError(t, w.Run(context.Background()))
	require.Contains(t, captured.String(), "n: value, value=10")
}

func TestSeeOnUnknownWordReportsError(t *testing.T) {
	var captured bytes.Buffer
	w := New(WithInput(bytes.NewBufferString("see nosuchword\n")), WithOutput(&captured))
	defer w.Close()
	require.NoError(t, w.Run(context.Background()))
	require.Contains(t, captured.String(), "?")
}
