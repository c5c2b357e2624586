package asm

// Label is an opaque handle to a not-yet-placed jump target. Zero value is
// never valid; obtain one from Emitter.NewLabel.
type Label int

const labelUnbound = -1

type labelState struct {
	pos  int // byte offset once bound, labelUnbound until then
	uses []fixup
}

// fixup records a 4-byte rel32 operand that needs patching once its target
// label is bound.
type fixup struct {
	// at is the offset of the first byte of the rel32 field itself.
	at int
	// instrEnd is the offset of the byte following the whole instruction;
	// x86 rel32 branches are relative to the end of the instruction.
	instrEnd int
}

// NewLabel allocates a fresh unbound label scoped to this Emitter.
func (e *Emitter) NewLabel() Label {
	e.labels = append(e.labels, labelState{pos: labelUnbound})
	return Label(len(e.labels) - 1)
}

// Bind marks lbl as referring to the current emission position. Any branch
// already emitted against lbl is patched immediately; any branch emitted
// after Bind resolves at emission time.
func (e *Emitter) Bind(lbl Label) {
	ls := &e.labels[lbl]
	if ls.pos != labelUnbound {
		panic("asm: label bound twice")
	}
	ls.pos = len(e.code)
	for _, fx := range ls.uses {
		rel := int32(ls.pos - fx.instrEnd)
		e.patchAt(fx.at, rel)
	}
	ls.uses = nil
}

// recordBranch emits a placeholder rel32 (all zero) for a branch to lbl and
// arranges for it to be patched by Bind (if lbl is still unbound) or patches
// it immediately (if lbl is already bound, i.e. a backward branch).
func (e *Emitter) recordBranch(lbl Label) {
	at := len(e.code)
	e.emit32(0)
	instrEnd := len(e.code)
	ls := &e.labels[lbl]
	if ls.pos != labelUnbound {
		rel := int32(ls.pos - instrEnd)
		e.patchAt(at, rel)
		return
	}
	ls.uses = append(ls.uses, fixup{at: at, instrEnd: instrEnd})
}

func (e *Emitter) patchAt(at int, rel int32) {
	e.code[at+0] = byte(rel)
	e.code[at+1] = byte(rel >> 8)
	e.code[at+2] = byte(rel >> 16)
	e.code[at+3] = byte(rel >> 24)
}

// finalizeLabels re-patches every bound label's recorded uses against its
// final position; Bind already does this for uses recorded before it was
// called, so this is a defensive second pass invoked from Finalize to
// cover any label bound out of the usual open/close order (e.g. ELSE's
// then-label when no ELSE occurred, bound by THEN directly).
func (e *Emitter) finalizeLabels() error {
	for i := range e.labels {
		ls := &e.labels[i]
		if ls.pos == labelUnbound {
			if len(ls.uses) > 0 {
				return errUnboundLabel
			}
			continue
		}
		for _, fx := range ls.uses {
			rel := int32(ls.pos - fx.instrEnd)
			e.patchAt(fx.at, rel)
		}
		ls.uses = nil
	}
	return nil
}
