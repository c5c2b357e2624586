package jitthird

import "github.com/jitthird/jitthird/internal/asm"

// frameKind tags which control-flow construct a label frame belongs to,
// the tagged-enum re-architecture of the original's std::variant frame
// (§9 design notes).
type frameKind int

const (
	frameIfElse frameKind = iota
	frameBegin
	frameDoLoop
	frameFunc
	frameCase
)

// labelFrame is one entry on the compile-time control-flow label stack
// (§3 "Label context"). Not every field is meaningful for every kind; see
// the generator_control.go openers/closers for which labels each kind
// binds and when.
type labelFrame struct {
	kind frameKind

	// if/then/else
	elseLabel asm.Label
	thenLabel asm.Label
	hasElse   bool

	// begin/again/until/while/repeat, and do/loop's shared leave path
	beginLabel asm.Label
	leaveLabel asm.Label

	// do/loop specific
	doLabel   asm.Label
	loopDepth int // nesting depth at the time this DO was opened, for I/J/K bounds checks

	// function entry/exit
	exitLabel asm.Label

	// case/of/endof/endcase
	caseEndLabel asm.Label
	ofLabels     []asm.Label
}

// labelStack is the owned-vector re-architecture of the original's
// std::stack<Frame> (§9).
type labelStack struct {
	frames []labelFrame
}

func (ls *labelStack) push(f labelFrame) { ls.frames = append(ls.frames, f) }

func (ls *labelStack) top() *labelFrame {
	if len(ls.frames) == 0 {
		return nil
	}
	return &ls.frames[len(ls.frames)-1]
}

func (ls *labelStack) pop() (labelFrame, bool) {
	if len(ls.frames) == 0 {
		return labelFrame{}, false
	}
	f := ls.frames[len(ls.frames)-1]
	ls.frames = ls.frames[:len(ls.frames)-1]
	return f, true
}

func (ls *labelStack) empty() bool { return len(ls.frames) == 0 }

// depth reports how many frames are open, of any kind.
func (ls *labelStack) depth() int { return len(ls.frames) }

// innermostLoop returns the innermost DO or BEGIN frame (searched without
// mutating the stack), for LEAVE.
func (ls *labelStack) innermostLoop() *labelFrame {
	for i := len(ls.frames) - 1; i >= 0; i-- {
		k := ls.frames[i].kind
		if k == frameDoLoop || k == frameBegin {
			return &ls.frames[i]
		}
	}
	return nil
}

// innermostFunc returns the innermost function-entry/exit frame, for EXIT.
func (ls *labelStack) innermostFunc() *labelFrame {
	for i := len(ls.frames) - 1; i >= 0; i-- {
		if ls.frames[i].kind == frameFunc {
			return &ls.frames[i]
		}
	}
	return nil
}

// openDoLoops counts every currently-open DO frame on the stack, used to
// validate I/J/K's required nesting depth.
func (ls *labelStack) openDoLoops() int {
	n := 0
	for _, f := range ls.frames {
		if f.kind == frameDoLoop {
			n++
		}
	}
	return n
}
