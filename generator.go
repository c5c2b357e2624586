package jitthird

import (
	"github.com/jitthird/jitthird/internal/asm"
	"github.com/jitthird/jitthird/internal/nativecode"
)

// Generator emits x86-64 for every primitive and control-flow construct
// (C5). It owns the control-flow label stack and the current definition's
// emitter; both are reset per definition (§4.3's "single mutable context"
// contract) rather than reallocated.
type Generator struct {
	e      asm.Emitter
	regs   PinnedRegs
	labels labelStack

	loopCheck bool
	logging

	// world backs the handful of primitives (depth, variable cell
	// addressing) that need a compile-time constant only the owning
	// World can supply; set once by World.New after construction.
	world *World
}

func newGenerator(regs PinnedRegs, loopCheck bool, lg logging) *Generator {
	return &Generator{regs: regs, loopCheck: loopCheck, logging: lg}
}

// Reset discards any half-built code and label state ahead of a new
// definition or a fresh immediate-word emission.
func (g *Generator) Reset() {
	g.e.Reset()
	g.labels = labelStack{}
}

// Finalize commits emitted bytes to an executable page and returns its
// entry address, per C3's finalise() contract.
func (g *Generator) Finalize() (uintptr, error) {
	code, err := g.e.Bytes()
	if err != nil {
		return 0, err
	}
	page, err := nativecode.Alloc(code)
	if err != nil {
		return 0, err
	}
	return page.Addr(), nil
}

// --- scratch register convention -----------------------------------
//
// Every primitive below uses RAX/RCX/RDX as scratch; nothing persists in
// them across a primitive's own emission boundary (§4.5's "the generator
// must not assume anything persists" contract). RDX is avoided as a
// general scratch when a division is involved since it doubles as the
// remainder register.

func (g *Generator) popD(dst asm.Reg) {
	g.e.LoadMem(dst, g.regs.DS, 0)
	g.e.ArithRImm32(asm.OpAdd, g.regs.DS, 8)
}

func (g *Generator) pushD(src asm.Reg) {
	g.e.ArithRImm32(asm.OpSub, g.regs.DS, 8)
	g.e.StoreMem(g.regs.DS, 0, src)
}

func (g *Generator) peekD(dst asm.Reg, n int32) {
	g.e.LoadMem(dst, g.regs.DS, n*8)
}

// --- stack juggling ---------------------------------------------------

func (g *Generator) genDup() {
	g.peekD(asm.RAX, 0)
	g.pushD(asm.RAX)
}

func (g *Generator) genDrop() {
	g.e.ArithRImm32(asm.OpAdd, g.regs.DS, 8)
}

func (g *Generator) genSwap() {
	g.popD(asm.RAX)
	g.popD(asm.RCX)
	g.pushD(asm.RAX)
	g.pushD(asm.RCX)
}

func (g *Generator) genOver() {
	g.peekD(asm.RAX, 1)
	g.pushD(asm.RAX)
}

func (g *Generator) genRot() {
	g.popD(asm.RAX) // c (top)
	g.popD(asm.RCX) // b
	g.popD(asm.RDX) // a
	g.pushD(asm.RCX)
	g.pushD(asm.RAX)
	g.pushD(asm.RDX)
}

func (g *Generator) genNip() {
	g.popD(asm.RAX)
	g.e.ArithRImm32(asm.OpAdd, g.regs.DS, 8)
	g.pushD(asm.RAX)
}

func (g *Generator) genTuck() {
	g.popD(asm.RAX) // b
	g.popD(asm.RCX) // a
	g.pushD(asm.RAX)
	g.pushD(asm.RCX)
	g.pushD(asm.RAX)
}

// genPick emits `n PICK`: push a copy of the cell n deep (0 = current TOS
// after n has been consumed). n is already on DS as the top cell.
func (g *Generator) genPick() {
	g.popD(asm.RCX)
	// RAX = [DS + RCX*8]; build the address by hand since the emitter's
	// LoadMem only supports base+disp8/32 addressing (§4.3's vocabulary),
	// not a scaled-index form.
	g.e.MovRegReg(asm.RAX, g.regs.DS)
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x2
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x4
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x8
	g.e.ArithRR(asm.OpAdd, asm.RAX, asm.RCX)
	g.e.LoadMem(asm.RAX, asm.RAX, 0)
	g.pushD(asm.RAX)
}

// --- arithmetic / logic ------------------------------------------------

func (g *Generator) genBinOp(op asm.ArithOp) {
	g.popD(asm.RCX) // b (top)
	g.popD(asm.RAX) // a
	g.e.ArithRR(op, asm.RAX, asm.RCX)
	g.pushD(asm.RAX)
}

func (g *Generator) genAdd() { g.genBinOp(asm.OpAdd) }
func (g *Generator) genSub() { g.genBinOp(asm.OpSub) }
func (g *Generator) genAnd() { g.genBinOp(asm.OpAnd) }
func (g *Generator) genOr()  { g.genBinOp(asm.OpOr) }
func (g *Generator) genXor() { g.genBinOp(asm.OpXor) }

func (g *Generator) genMul() {
	g.popD(asm.RCX)
	g.popD(asm.RAX)
	g.e.IMul(asm.RAX, asm.RCX)
	g.pushD(asm.RAX)
}

func (g *Generator) genDiv() {
	g.popD(asm.RCX) // divisor
	g.popD(asm.RAX) // dividend
	g.e.Cqo()
	g.e.IDiv(asm.RCX)
	g.pushD(asm.RAX)
}

func (g *Generator) genNot() {
	g.popD(asm.RAX)
	g.e.Not(asm.RAX)
	g.pushD(asm.RAX)
}

// genCompare pops b then a, compares a against b, pushes 0/-1.
func (g *Generator) genCompare(cc asm.CondCode) {
	g.popD(asm.RCX)
	g.popD(asm.RAX)
	g.e.Cmp(asm.RAX, asm.RCX)
	g.e.SetCC(cc, asm.RAX)
	g.e.Neg(asm.RAX) // 1 -> -1 (all bits set), 0 stays 0
	g.pushD(asm.RAX)
}

func (g *Generator) genLess()    { g.genCompare(asm.CondL) }
func (g *Generator) genGreater() { g.genCompare(asm.CondG) }
func (g *Generator) genEqual()   { g.genCompare(asm.CondE) }

// --- return-stack transfer & pointer accessors -------------------------

func (g *Generator) genToR() {
	g.popD(asm.RAX)
	g.e.ArithRImm32(asm.OpSub, g.regs.RS, 8)
	g.e.StoreMem(g.regs.RS, 0, asm.RAX)
}

func (g *Generator) genRFrom() {
	g.e.LoadMem(asm.RAX, g.regs.RS, 0)
	g.e.ArithRImm32(asm.OpAdd, g.regs.RS, 8)
	g.pushD(asm.RAX)
}

func (g *Generator) genRFetch() {
	g.e.LoadMem(asm.RAX, g.regs.RS, 0)
	g.pushD(asm.RAX)
}

func (g *Generator) genSPFetch() { g.pushD(g.regs.DS) } // pushes the pointer itself, not what it points to
func (g *Generator) genSPStore() { g.popD(g.regs.DS) }
func (g *Generator) genRPFetch() { g.pushD(g.regs.RS) }
func (g *Generator) genRPStore() { g.popD(g.regs.RS) }

// --- memory access -------------------------------------------------

func (g *Generator) genFetch() {
	g.popD(asm.RAX)
	g.e.LoadMem(asm.RAX, asm.RAX, 0)
	g.pushD(asm.RAX)
}

func (g *Generator) genStore() {
	g.popD(asm.RAX) // address
	g.popD(asm.RCX) // value
	g.e.StoreMem(asm.RAX, 0, asm.RCX)
}

// --- literals & inlined constant-arithmetic shortcuts ------------------

// genLiteral pushes imm as a literal cell; used both for numeric literals
// and for the generator's own "push-long" emitter referenced in §4.7.
func (g *Generator) genLiteral(imm int64) {
	g.e.MovRegImm64(asm.RAX, uint64(imm))
	g.pushD(asm.RAX)
}

func (g *Generator) genAddImm(n int32) {
	g.popD(asm.RAX)
	g.e.ArithRImm32(asm.OpAdd, asm.RAX, n)
	g.pushD(asm.RAX)
}

func (g *Generator) genShiftMulImm(shift uint8) {
	g.popD(asm.RAX)
	for i := uint8(0); i < shift; i++ {
		g.e.ArithRR(asm.OpAdd, asm.RAX, asm.RAX)
	}
	g.pushD(asm.RAX)
}

// genShiftDivImm emits an arithmetic-shift-right division by 2^shift,
// matching the `2/`, `4/`, `8/` shortcuts (§4.5.1). SAR rounds toward
// negative infinity rather than zero, same as the original sources.
func (g *Generator) genShiftDivImm(shift uint8) {
	g.popD(asm.RAX)
	g.e.ShiftRightImm(asm.RAX, shift, true)
	g.pushD(asm.RAX)
}

// genShiftRightImm is the logical-shift counterpart used by primitives
// that know their operand is non-negative (DEPTH's cell-count math).
func (g *Generator) genShiftRightImm(dst asm.Reg, shift uint8) {
	g.e.ShiftRightImm(dst, shift, false)
}

// genMul10 emits (x<<3)+(x<<1), the documented encoding for the `10*`
// shortcut (§4.5.1).
func (g *Generator) genMul10() {
	g.popD(asm.RAX)
	g.e.MovRegReg(asm.RCX, asm.RAX)
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x2
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x4
	g.e.ArithRR(asm.OpAdd, asm.RCX, asm.RCX) // x8
	g.e.ArithRR(asm.OpAdd, asm.RAX, asm.RAX) // x2
	g.e.ArithRR(asm.OpAdd, asm.RAX, asm.RCX) // x8 + x2
	g.pushD(asm.RAX)
}

// --- locals access -------------------------------------------------

func (g *Generator) adjustLS(delta int32) {
	if delta < 0 {
		g.e.ArithRImm32(asm.OpSub, g.regs.LS, -delta)
	} else {
		g.e.ArithRImm32(asm.OpAdd, g.regs.LS, delta)
	}
}

func (g *Generator) popDSIntoLocalOffset(off int) {
	g.popD(asm.RAX)
	g.e.StoreMem(g.regs.LS, int32(off*8), asm.RAX)
}

func (g *Generator) pushDSFromLocalOffset(off int) {
	g.e.LoadMem(asm.RAX, g.regs.LS, int32(off*8))
	g.pushD(asm.RAX)
}

func (g *Generator) storeZeroAtLocalOffset(off int) {
	g.e.MovRegImm64(asm.RAX, 0)
	g.e.StoreMem(g.regs.LS, int32(off*8), asm.RAX)
}

// genLocalFetch and genLocalStore back a bare local-name reference and a
// `TO name` against a local, per §4.6.
func (g *Generator) genLocalFetch(off int) { g.pushDSFromLocalOffset(off) }
func (g *Generator) genLocalStore(off int) { g.popDSIntoLocalOffset(off) }

// --- VALUE/VARIABLE/TO support (§14) --------------------------------
//
// A VARIABLE word pushes its cell's address; a VALUE word pushes its
// cell's current content; TO against a VALUE stores a new one. All three
// bake the cell's address in as an immediate, since Dictionary hands out
// addresses from a fixed-size arena that never reallocates.

func (g *Generator) genPushVarAddr(addr uintptr) { g.genLiteral(int64(addr)) }

func (g *Generator) genPushVarValue(addr uintptr) {
	g.e.MovRegImm64(asm.RAX, uint64(addr))
	g.e.LoadMem(asm.RAX, asm.RAX, 0)
	g.pushD(asm.RAX)
}

func (g *Generator) genStoreVarValue(addr uintptr) {
	g.popD(asm.RCX)
	g.e.MovRegImm64(asm.RAX, uint64(addr))
	g.e.StoreMem(asm.RAX, 0, asm.RCX)
}

// --- calls -------------------------------------------------------------

// genCall emits `mov rax, imm64; call rax` against a word's compiled
// entry point (§4.5.3). Callees preserve pinned registers by contract; no
// save/restore is needed around a call to a fellow JIT word.
func (g *Generator) genCall(entry uintptr) {
	g.e.MovRegImm64(asm.RAX, uint64(entry))
	g.e.CallReg(asm.RAX)
}

// shadowSpaceBytes is the 40-byte reservation (32 shadow + 8 alignment)
// kept verbatim from the Windows x64 convention the original sources
// target, even though our ABI0 shims only strictly need the one argument
// cell (see SPEC_FULL §10).
const shadowSpaceBytes = 40

// genForeignCall implements the foreign-call convention of §4.5.3, adapted
// from RCX-argument-passing onto a stack-passed argument (no C caller
// exists here; the callee is one of internal/nativecode's ABI0 shims):
// pop the argument off DS, save pinned registers, reserve shadow space,
// push the argument, call, clean up, restore pinned registers, and -- if
// the shim leaves a result in RAX -- push it to DS. The argument is popped
// before DS is saved so that restoring DS keeps it consumed.
func (g *Generator) genForeignCall(target uintptr, hasArg, hasResult bool) {
	if hasArg {
		g.popD(asm.RAX)
	}
	g.e.Push(g.regs.DS)
	g.e.Push(g.regs.RS)
	g.e.Push(g.regs.LS)
	g.e.Push(g.regs.SS)
	g.e.SubRSPImm32(shadowSpaceBytes)
	if hasArg {
		g.e.Push(asm.RAX)
	}
	g.e.MovRegImm64(asm.RAX, uint64(target))
	g.e.CallReg(asm.RAX)
	if hasArg {
		g.e.AddRSPImm32(8)
	}
	g.e.AddRSPImm32(shadowSpaceBytes)
	g.e.Pop(g.regs.SS)
	g.e.Pop(g.regs.LS)
	g.e.Pop(g.regs.RS)
	g.e.Pop(g.regs.DS)
	if hasResult {
		g.pushD(asm.RAX)
	}
}

// genFuncPrologue/Epilogue bracket a colon-defined word's body. The
// caller (Compiler) pushes a frameFunc label before emitting the body and
// binds exitLabel at the epilogue.
func (g *Generator) genFuncPrologue() {}

func (g *Generator) genFuncEpilogue(exit asm.Label) {
	g.e.Bind(exit)
	g.e.Ret()
}
