package jitthird

import "github.com/jitthird/jitthird/internal/asm"

// This file holds the control-flow constructs of C5 (§4.5.2). Each is
// registered as a compile-immediate dictionary entry (they need the
// shared cursor and label stack, not just the generator's emitter), even
// though conceptually they are part of the Generator's responsibility.

func compileIf(c *Compiler) error {
	g := c.gen()
	g.popD(asm.RAX)
	// IF pops a cell and branches to else-label if zero.
	g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
	elseLabel := g.e.NewLabel()
	thenLabel := g.e.NewLabel()
	g.e.Jz(elseLabel)
	g.labels.push(labelFrame{kind: frameIfElse, elseLabel: elseLabel, thenLabel: thenLabel})
	return nil
}

func compileElse(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameIfElse {
		return compileErrorf("ELSE", ErrMismatchedClose)
	}
	g.e.Jmp(f.thenLabel)
	g.e.Bind(f.elseLabel)
	f.hasElse = true
	return nil
}

func compileThen(c *Compiler) error {
	g := c.gen()
	f, ok := g.labels.pop()
	if !ok || f.kind != frameIfElse {
		return compileErrorf("THEN", ErrMismatchedClose)
	}
	if !f.hasElse {
		g.e.Bind(f.elseLabel)
	}
	g.e.Bind(f.thenLabel)
	return nil
}

func compileBegin(c *Compiler) error {
	g := c.gen()
	begin := g.e.NewLabel()
	leave := g.e.NewLabel()
	g.e.Bind(begin)
	g.labels.push(labelFrame{kind: frameBegin, beginLabel: begin, leaveLabel: leave})
	return nil
}

func compileAgain(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameBegin {
		return compileErrorf("AGAIN", ErrMismatchedClose)
	}
	g.emitLoopCheckPoll(f.leaveLabel)
	g.e.Jmp(f.beginLabel)
	g.labels.pop()
	g.e.Bind(f.leaveLabel)
	return nil
}

func compileUntil(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameBegin {
		return compileErrorf("UNTIL", ErrMismatchedClose)
	}
	g.emitLoopCheckPoll(f.leaveLabel)
	g.popD(asm.RAX)
	g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
	g.e.Jz(f.beginLabel)
	g.labels.pop()
	g.e.Bind(f.leaveLabel)
	return nil
}

func compileWhile(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameBegin {
		return compileErrorf("WHILE", ErrMismatchedClose)
	}
	g.popD(asm.RAX)
	g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
	g.e.Jz(f.leaveLabel)
	return nil
}

func compileRepeat(c *Compiler) error {
	g := c.gen()
	f, ok := g.labels.pop()
	if !ok || f.kind != frameBegin {
		return compileErrorf("REPEAT", ErrMismatchedClose)
	}
	g.emitLoopCheckPoll(f.leaveLabel)
	g.e.Jmp(f.beginLabel)
	g.e.Bind(f.leaveLabel)
	return nil
}

// compileDo implements `DO`: pops index (the top cell) then limit from DS,
// pushes them as (limit, index) onto RS with index on top, binds do-label,
// pushes the frame (§4.5.2).
func compileDo(c *Compiler) error {
	g := c.gen()
	g.popD(asm.RAX) // index
	g.popD(asm.RCX) // limit
	g.e.ArithRImm32(asm.OpSub, g.regs.RS, 16)
	g.e.StoreMem(g.regs.RS, 8, asm.RCX) // limit
	g.e.StoreMem(g.regs.RS, 0, asm.RAX) // index

	doLabel := g.e.NewLabel()
	leaveLabel := g.e.NewLabel()
	g.e.Bind(doLabel)
	g.labels.push(labelFrame{
		kind:       frameDoLoop,
		doLabel:    doLabel,
		leaveLabel: leaveLabel,
		loopDepth:  g.labels.openDoLoops(),
	})
	return nil
}

// compileLoop implements `LOOP`: increments index by 1, compares to
// limit using `jl` (continue while index < limit) per JitGenerator.h and
// SPEC_FULL §10 -- a DO with limit==start therefore runs its body exactly
// once (post-test / do-while semantics, not a zero-trip for-loop).
func compileLoop(c *Compiler) error { return closeCountedLoop(c, nil) }

// compilePlusLoop implements `+LOOP`: pops a signed increment from DS and
// continues while index<limit for a positive increment, or index>=limit
// for a negative one.
func compilePlusLoop(c *Compiler) error {
	return closeCountedLoop(c, func(g *Generator) asm.Reg {
		g.popD(asm.RDX)
		return asm.RDX
	})
}

func closeCountedLoop(c *Compiler, popIncrement func(g *Generator) asm.Reg) error {
	g := c.gen()
	f, ok := g.labels.pop()
	if !ok || f.kind != frameDoLoop {
		return compileErrorf("LOOP", ErrMismatchedClose)
	}

	g.emitLoopCheckPoll(f.leaveLabel)

	g.e.LoadMem(asm.RAX, g.regs.RS, 0) // index
	g.e.LoadMem(asm.RCX, g.regs.RS, 8) // limit
	if popIncrement != nil {
		inc := popIncrement(g)
		g.e.ArithRR(asm.OpAdd, asm.RAX, inc)
		g.e.StoreMem(g.regs.RS, 0, asm.RAX)
		negative := g.e.NewLabel()
		g.e.ArithRR(asm.OpOr, inc, inc) // SF = sign of the increment
		g.e.Jl(negative)
		g.e.Cmp(asm.RAX, asm.RCX)
		g.e.Jl(f.doLabel)
		g.e.Jmp(f.leaveLabel)
		g.e.Bind(negative)
		g.e.Cmp(asm.RAX, asm.RCX)
		g.e.Jge(f.doLabel)
	} else {
		g.e.ArithRImm32(asm.OpAdd, asm.RAX, 1)
		g.e.StoreMem(g.regs.RS, 0, asm.RAX)
		g.e.Cmp(asm.RAX, asm.RCX)
		g.e.Jl(f.doLabel)
	}

	g.e.Bind(f.leaveLabel)
	g.e.ArithRImm32(asm.OpAdd, g.regs.RS, 16)
	return nil
}

// emitLoopCheckPoll implements the optional loop-check feature: a prelude
// calling the escape_pressed host helper and, if nonzero, jumping to
// leaveLabel (§4.5.2).
func (g *Generator) emitLoopCheckPoll(leaveLabel asm.Label) {
	if !g.loopCheck {
		return
	}
	g.genForeignCall(escapePressedAddr(), false, true)
	g.popD(asm.RAX)
	g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
	cont := g.e.NewLabel()
	g.e.Jz(cont)
	g.e.Jmp(leaveLabel)
	g.e.Bind(cont)
}

// compileLeave scans the label stack for the innermost DO or BEGIN frame
// and emits an unconditional jump to its leave-label, without mutating
// the stack (§4.5.2).
func compileLeave(c *Compiler) error {
	g := c.gen()
	f := g.labels.innermostLoop()
	if f == nil {
		return ErrLeaveOutsideLoop
	}
	// A DO closer binds its leave-label ahead of its own two-cell RS drop,
	// so jumping straight there drops the loop's counters exactly once, on
	// the same path the closer's fall-through takes.
	g.e.Jmp(f.leaveLabel)
	return nil
}

// compileExit scans for the innermost function frame and jumps to its
// exit-label, without popping any intervening loop frames -- an EXIT that
// crosses an open DO leaks two RS cells per loop, a documented limitation
// carried over unchanged from the original sources (§4.5.2, §8).
func compileExit(c *Compiler) error {
	g := c.gen()
	f := g.labels.innermostFunc()
	if f == nil {
		return ErrExitOutsideFunc
	}
	g.e.Jmp(f.exitLabel)
	return nil
}

// compileI/J/K copy the innermost, next-outer, and next-next-outer loop
// indices to DS, reading RS at offsets 0, 3, 5 cells (the 2-cell gap per
// loop accounts for index+limit plus one more loop's pair already
// skipped), per §4.5.2.
func compileI(c *Compiler) error { return compileLoopIndex(c, 0, 1) }
func compileJ(c *Compiler) error { return compileLoopIndex(c, 3, 2) }
func compileK(c *Compiler) error { return compileLoopIndex(c, 5, 3) }

func compileLoopIndex(c *Compiler, cellOffset, minDepth int) error {
	g := c.gen()
	if g.labels.openDoLoops() < minDepth {
		return ErrLoopNestShort
	}
	g.e.LoadMem(asm.RAX, g.regs.RS, int32(cellOffset*8))
	g.pushD(asm.RAX)
	return nil
}

// --- CASE/OF/ENDOF/ENDCASE (§14 supplement from original_source/) ------
//
// Classical Forth desugaring: CASE evaluates the selector once (left on
// DS); each OF is OVER = IF DROP ... ELSE ... THEN -- it peeks the
// selector from one cell below the OF value, compares, and on a match
// drops the selector before the clause body runs; on mismatch it jumps
// to the next OF with the selector still intact underneath. ENDOF jumps
// to ENDCASE; ENDCASE drops the (still-live) selector on the path where
// no OF ever matched and binds the shared end label.

func compileCase(c *Compiler) error {
	g := c.gen()
	g.labels.push(labelFrame{kind: frameCase, caseEndLabel: g.e.NewLabel()})
	return nil
}

func compileOf(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameCase {
		return compileErrorf("OF", ErrMismatchedClose)
	}
	g.genOver()
	// compare the selector (one cell below the just-pushed OF value)
	// against the OF value; genEqual pops both and leaves the selector
	// intact underneath the comparison result either way.
	g.genEqual()
	next := g.e.NewLabel()
	g.popD(asm.RAX)
	g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
	g.e.Jz(next)
	g.genDrop() // matched: consume the selector before the clause body runs
	f.ofLabels = append(f.ofLabels, next)
	return nil
}

func compileEndOf(c *Compiler) error {
	g := c.gen()
	f := g.labels.top()
	if f == nil || f.kind != frameCase || len(f.ofLabels) == 0 {
		return compileErrorf("ENDOF", ErrMismatchedClose)
	}
	g.e.Jmp(f.caseEndLabel)
	g.e.Bind(f.ofLabels[len(f.ofLabels)-1])
	return nil
}

func compileEndCase(c *Compiler) error {
	g := c.gen()
	f, ok := g.labels.pop()
	if !ok || f.kind != frameCase {
		return compileErrorf("ENDCASE", ErrMismatchedClose)
	}
	g.genDrop() // discard the selector
	g.e.Bind(f.caseEndLabel)
	return nil
}
