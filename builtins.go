package jitthird

import (
	"github.com/jitthird/jitthird/internal/asm"
	"github.com/jitthird/jitthird/internal/nativecode"
)

func emitByteAddr() uintptr      { return nativecode.Addr(nativecode.ShimEmitByte) }
func printSignedAddr() uintptr   { return nativecode.Addr(nativecode.ShimPrintSigned) }
func escapePressedAddr() uintptr { return nativecode.Addr(nativecode.ShimEscapePressed) }
func putsAddr() uintptr          { return nativecode.Addr(nativecode.ShimPuts) }

// registerBuiltins installs every primitive and immediate word named by
// §4.5.1/§4.5.2/§4.8 and the §14 supplements recovered from
// original_source/, matching the teacher's own "compileBuiltins" idiom of
// one table-building function run once per fresh World.
func registerBuiltins(w *World) {
	prim := func(name string, gen genFunc) {
		w.Dict.Add(name, gen, 0, nil, nil)
	}
	compileImm := func(name string, fn compileImmFunc) {
		w.Dict.Add(name, nil, 0, fn, nil)
	}
	interpImm := func(name string, fn interpImmFunc) {
		w.Dict.Add(name, nil, 0, nil, fn)
	}
	// TO works both inside a definition (against a local) and at the
	// prompt (against a VALUE), so it needs both slots on one entry.
	dualImm := func(name string, cfn compileImmFunc, ifn interpImmFunc) {
		w.Dict.Add(name, nil, 0, cfn, ifn)
	}

	// Arithmetic, logic, comparison.
	prim("+", (*Generator).genAdd)
	prim("-", (*Generator).genSub)
	prim("*", (*Generator).genMul)
	prim("/", (*Generator).genDiv)
	prim("and", (*Generator).genAnd)
	prim("or", (*Generator).genOr)
	prim("xor", (*Generator).genXor)
	prim("not", (*Generator).genNot)
	prim("<", (*Generator).genLess)
	prim("=", (*Generator).genEqual)
	prim(">", (*Generator).genGreater)

	// Stack juggling.
	prim("dup", (*Generator).genDup)
	prim("drop", (*Generator).genDrop)
	prim("swap", (*Generator).genSwap)
	prim("over", (*Generator).genOver)
	prim("rot", (*Generator).genRot)
	prim("nip", (*Generator).genNip)
	prim("tuck", (*Generator).genTuck)
	prim("pick", (*Generator).genPick)

	// 2-cell helpers recovered from original_source/ (§14).
	prim("2dup", func(g *Generator) { g.genOver(); g.genOver() })
	prim("2drop", func(g *Generator) { g.genDrop(); g.genDrop() })
	prim("2swap", func(g *Generator) {
		// ( a b c d -- c d a b )
		g.popD(asm.RDX) // d
		g.popD(asm.RCX) // c
		g.popD(asm.RAX) // b
		g.popD(asm.R8)  // a
		g.pushD(asm.RCX)
		g.pushD(asm.RDX)
		g.pushD(asm.R8)
		g.pushD(asm.RAX)
	})
	prim("?dup", func(g *Generator) {
		// Duplicates TOS only if it is nonzero.
		g.peekD(asm.RAX, 0)
		g.e.ArithRR(asm.OpOr, asm.RAX, asm.RAX)
		end := g.e.NewLabel()
		g.e.Jz(end)
		g.pushD(asm.RAX)
		g.e.Bind(end)
	})
	prim("depth", func(g *Generator) {
		// depth = (DSBaseAddr - currentPtr) / 8, per §3's "Depth = top -
		// ptr, in cells". The base address is a fixed constant for this
		// World's lifetime, baked in as an immediate.
		g.e.MovRegImm64(asm.RAX, uint64(g.world.Stacks.DSBaseAddr()))
		g.e.ArithRR(asm.OpSub, asm.RAX, g.regs.DS)
		g.genShiftRightImm(asm.RAX, 3)
		g.pushD(asm.RAX)
	})

	// Return-stack transfer & pointer accessors.
	prim(">r", (*Generator).genToR)
	prim("r>", (*Generator).genRFrom)
	prim("r@", (*Generator).genRFetch)
	prim("sp@", (*Generator).genSPFetch)
	prim("sp!", (*Generator).genSPStore)
	prim("rp@", (*Generator).genRPFetch)
	prim("rp!", (*Generator).genRPStore)

	// Memory access.
	prim("@", (*Generator).genFetch)
	prim("!", (*Generator).genStore)

	// Small literal pushes (inlined, no call).
	for _, n := range []int64{1, 2, 3, 4, 8, 16, 32, 64, -1} {
		n := n
		prim(litName(n), func(g *Generator) { g.genLiteral(n) })
	}

	prim("1+", func(g *Generator) { g.genAddImm(1) })
	prim("1-", func(g *Generator) { g.genAddImm(-1) })
	prim("2+", func(g *Generator) { g.genAddImm(2) })
	prim("2-", func(g *Generator) { g.genAddImm(-2) })
	prim("16+", func(g *Generator) { g.genAddImm(16) })
	prim("16-", func(g *Generator) { g.genAddImm(-16) })

	prim("2*", func(g *Generator) { g.genShiftMulImm(1) })
	prim("4*", func(g *Generator) { g.genShiftMulImm(2) })
	prim("8*", func(g *Generator) { g.genShiftMulImm(3) })
	prim("16*", func(g *Generator) { g.genShiftMulImm(4) })
	prim("10*", (*Generator).genMul10)
	prim("2/", func(g *Generator) { g.genShiftDivImm(1) })
	prim("4/", func(g *Generator) { g.genShiftDivImm(2) })
	prim("8/", func(g *Generator) { g.genShiftDivImm(3) })

	// I/O.
	prim("emit", func(g *Generator) { g.genForeignCall(emitByteAddr(), true, false) })
	prim(".", func(g *Generator) { g.genForeignCall(printSignedAddr(), true, false) })
	// TYPE prints the counted string at the address left on DS by a
	// preceding `s"` literal (§14); it shares the puts shim with `."`'s
	// immediate-print sentinel in compiler.go.
	prim("type", func(g *Generator) { g.genForeignCall(putsAddr(), true, false) })

	// Control flow (compile-time immediates; §4.5.2).
	compileImm("if", compileIf)
	compileImm("else", compileElse)
	compileImm("then", compileThen)
	compileImm("begin", compileBegin)
	compileImm("again", compileAgain)
	compileImm("until", compileUntil)
	compileImm("while", compileWhile)
	compileImm("repeat", compileRepeat)
	compileImm("do", compileDo)
	compileImm("loop", compileLoop)
	compileImm("+loop", compilePlusLoop)
	compileImm("leave", compileLeave)
	compileImm("exit", compileExit)
	compileImm("i", compileI)
	compileImm("j", compileJ)
	compileImm("k", compileK)
	compileImm("case", compileCase)
	compileImm("of", compileOf)
	compileImm("endof", compileEndOf)
	compileImm("endcase", compileEndCase)

	// Outer-interpreter immediates (§4.4, §4.8, §14).
	interpImm("value", interpValue)
	interpImm("variable", interpVariable)
	interpImm("constant", interpConstant)
	dualImm("to", compileTo, interpTo)
	interpImm("see", interpSee)
	interpImm("words", interpWords)
	interpImm(".s", interpDotS)
	interpImm("forget", interpForget)
	interpImm("allot", interpAllot)
	interpImm("here", interpHere)
}

func litName(n int64) string {
	if n < 0 {
		return "-1"
	}
	switch n {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	case 8:
		return "8"
	case 16:
		return "16"
	case 32:
		return "32"
	case 64:
		return "64"
	}
	return ""
}
