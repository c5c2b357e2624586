package jitthird

import "io"

// This file backs the three introspection words recovered from
// original_source/ (§14): WORDS lists the dictionary, .S dumps the four
// stacks, SEE describes a single entry. None of them touch the compiler
// or generator; they only read what Dictionary and StackManager already
// expose.

// ioWriteStringer adapts a plain io.Writer (World.out) to the
// WriteString-shaped interface DisplayStacks expects.
type ioWriteStringer struct{ io.Writer }

func (w ioWriteStringer) WriteString(s string) (int, error) { return io.WriteString(w.Writer, s) }

func interpWords(it *Interp) error {
	for _, e := range it.w.Dict.Words() {
		it.w.printf("%s ", e.Name)
	}
	it.w.printf("\n")
	return nil
}

func interpDotS(it *Interp) error {
	it.w.Stacks.DisplayStacks(ioWriteStringer{it.w.out})
	return nil
}

// interpSee prints a best-effort description of a dictionary entry: its
// kind and, for a compiled word, the native entry point it finalised to.
// There is no disassembler here, only the bookkeeping Entry already
// carries -- a faithful SEE would need to walk the emitted bytes back
// into mnemonics, which nothing in this dictionary-driven design records.
func interpSee(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("SEE", ErrExpectedWordName)
	}
	e := it.w.Dict.Find(name)
	if e == nil {
		return compileErrorf(name, ErrUnknownWord)
	}
	switch {
	case e.Kind == KindVariable || e.Kind == KindValue:
		// Data holds the cell index into Dict's backing storage here, not
		// the live value itself -- fetch the current contents instead of
		// printing the index back at the user.
		it.w.printf("%s: %s, value=%d\n", e.Name, kindName(e.Kind), it.w.Dict.CellAt(e.Data))
	case e.Generator != nil:
		it.w.printf("%s: primitive\n", e.Name)
	case e.CompileImm != nil || e.InterpImm != nil:
		it.w.printf("%s: immediate\n", e.Name)
	case e.hasCompiled():
		it.w.printf("%s: colon definition @ %#x\n", e.Name, e.Compiled)
	default:
		it.w.printf("%s: %s, value=%d\n", e.Name, kindName(e.Kind), e.Data)
	}
	return nil
}

func kindName(k WordKind) string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	case KindValue:
		return "value"
	case KindString:
		return "string"
	default:
		return "word"
	}
}
