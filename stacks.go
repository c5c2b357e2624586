package jitthird

import (
	"strconv"
	"unsafe"

	"github.com/jitthird/jitthird/internal/asm"
)

// Default stack depths, in cells. Matches the order-of-magnitude the
// original sources reserve (data stack an order larger than the rest).
const (
	defaultDSCells = 2 << 20 // ~2M cells
	defaultRSCells = 1 << 20
	defaultLSCells = 1 << 20
	defaultSSCells = 1 << 20

	canaryCells = 8
)

// PinnedRegs names the four callee-saved registers the generator keeps
// each stack's moving top-of-stack pointer in for the lifetime of JIT
// execution. Any four distinct callee-saved integer registers work; R14
// is deliberately excluded because the Go runtime pins it as the g
// register under the register ABI (see SPEC_FULL §10).
type PinnedRegs struct {
	DS asm.Reg
	RS asm.Reg
	LS asm.Reg
	SS asm.Reg
}

// DefaultPinnedRegs is the register assignment this implementation uses:
// DS keeps the original sources' R15, LS keeps their R13, and RS moves off
// R14 onto R12; SS (the optional fourth stack) takes RBX.
var DefaultPinnedRegs = PinnedRegs{DS: asm.R15, RS: asm.R12, LS: asm.R13, SS: asm.RBX}

// stack is one of the four fixed-size, full-descending cell arrays. cells
// is sized base+canaries on both ends; ptr and top are cell indices into
// cells, not byte offsets -- host-side push/pop work in Go slice terms,
// while the pinned register holds the equivalent byte address during JIT
// execution (materialised at every host/JIT boundary per §5).
type stack struct {
	name  string
	cells []int64
	base  int   // index of the lowest live cell (the canary boundary)
	top   int   // index one past the highest live cell == initial ptr
	ptr   int   // current top-of-stack index; grows toward base
	limit int
}

func newStack(name string, depth int) *stack {
	s := &stack{name: name, limit: depth}
	s.cells = make([]int64, depth+2*canaryCells)
	s.base = canaryCells
	s.top = canaryCells + depth
	s.ptr = s.top
	return s
}

func (s *stack) reset() {
	for i := s.base; i < s.top; i++ {
		s.cells[i] = 0
	}
	s.ptr = s.top
}

func (s *stack) depth() int { return s.top - s.ptr }

func (s *stack) push(x int64) {
	haltif(s.ptr <= s.base, overflowErr(s.name))
	s.ptr--
	s.cells[s.ptr] = x
}

func (s *stack) pop() int64 {
	haltif(s.depth() <= 0, underflowErr(s.name))
	x := s.cells[s.ptr]
	s.ptr++
	return x
}

func (s *stack) peek(n int) int64 {
	haltif(s.depth() <= n, underflowErr(s.name))
	return s.cells[s.ptr+n]
}

// baseAddr is the stable address of cells[0]; stacks are sized once and
// never reallocated, so this holds for the stack's whole lifetime.
func (s *stack) baseAddr() uintptr { return uintptr(unsafe.Pointer(&s.cells[0])) }

// ptrAddr/setPtrFromAddr convert between the cell-index ptr used by
// host-side push/pop and the raw byte address JIT code keeps live in its
// pinned register -- the host/JIT hand-off materialisation point (§5).
func (s *stack) ptrAddr() uintptr { return s.baseAddr() + uintptr(s.ptr)*8 }

func (s *stack) setPtrFromAddr(addr uintptr) {
	s.ptr = int((addr - s.baseAddr()) / 8)
}

func overflowErr(name string) error {
	switch name {
	case "DS":
		return ErrDSOverflow
	case "RS":
		return ErrRSOverflow
	case "LS":
		return ErrLSOverflow
	default:
		return ErrSSOverflow
	}
}

func underflowErr(name string) error {
	switch name {
	case "DS":
		return ErrDSUnderflow
	case "RS":
		return ErrRSUnderflow
	case "LS":
		return ErrLSUnderflow
	default:
		return ErrSSUnderflow
	}
}

// StackManager owns the four pinned-register-backed stacks and offers
// host-side push/pop/depth/reset for use outside JIT-compiled code (the
// outer interpreter, builtins, and introspection all go through here).
type StackManager struct {
	ds, rs, ls, ss *stack
	regs           PinnedRegs
}

// StackSizes overrides the default cell counts for the four stacks; zero
// means "keep the default" for that stack.
type StackSizes struct {
	DS, RS, LS, SS int
}

func newStackManager(sizes StackSizes, regs PinnedRegs) *StackManager {
	pick := func(n, def int) int {
		if n <= 0 {
			return def
		}
		return n
	}
	return &StackManager{
		ds:   newStack("DS", pick(sizes.DS, defaultDSCells)),
		rs:   newStack("RS", pick(sizes.RS, defaultRSCells)),
		ls:   newStack("LS", pick(sizes.LS, defaultLSCells)),
		ss:   newStack("SS", pick(sizes.SS, defaultSSCells)),
		regs: regs,
	}
}

func (sm *StackManager) PushD(x int64) { sm.ds.push(x) }
func (sm *StackManager) PopD() int64   { return sm.ds.pop() }
func (sm *StackManager) DepthD() int   { return sm.ds.depth() }
func (sm *StackManager) PeekD(n int) int64 { return sm.ds.peek(n) }

func (sm *StackManager) PushR(x int64) { sm.rs.push(x) }
func (sm *StackManager) PopR() int64   { return sm.rs.pop() }
func (sm *StackManager) DepthR() int   { return sm.rs.depth() }

func (sm *StackManager) PushL(x int64) { sm.ls.push(x) }
func (sm *StackManager) PopL() int64   { return sm.ls.pop() }
func (sm *StackManager) DepthL() int   { return sm.ls.depth() }

func (sm *StackManager) PushS(x int64) { sm.ss.push(x) }
func (sm *StackManager) PopS() int64   { return sm.ss.pop() }
func (sm *StackManager) DepthS() int   { return sm.ss.depth() }

func (sm *StackManager) ResetD() { sm.ds.reset() }
func (sm *StackManager) ResetR() { sm.rs.reset() }
func (sm *StackManager) ResetL() { sm.ls.reset() }
func (sm *StackManager) ResetS() { sm.ss.reset() }

// RegSnapshot is the host-materialised image of the four pinned-register
// values (DS, RS, LS, SS, in that order), passed by address to
// internal/nativecode.Call at every host/JIT boundary crossing.
type RegSnapshot [4]uintptr

// Snapshot captures the current pointer addresses.
func (sm *StackManager) Snapshot() RegSnapshot {
	return RegSnapshot{sm.ds.ptrAddr(), sm.rs.ptrAddr(), sm.ls.ptrAddr(), sm.ss.ptrAddr()}
}

// Apply writes a RegSnapshot's pointer addresses back into the four
// stacks, after JIT execution returns control to the host.
func (sm *StackManager) Apply(snap RegSnapshot) {
	sm.ds.setPtrFromAddr(snap[0])
	sm.rs.setPtrFromAddr(snap[1])
	sm.ls.setPtrFromAddr(snap[2])
	sm.ss.setPtrFromAddr(snap[3])
}

// TopOfD returns the base (bottom) cell index of DS, the value generators
// emit as the literal "base-of-DS" constant some primitives need.
func (sm *StackManager) TopOfD() int { return sm.ds.top }

// DSBaseAddr is the fixed byte address of DS's empty (base) position,
// stable for the World's lifetime; generators needing a literal
// "base-of-DS" constant (DEPTH) bake it in as an immediate at emission
// time.
func (sm *StackManager) DSBaseAddr() uintptr { return sm.ds.baseAddr() + uintptr(sm.ds.top)*8 }

// DisplayStacks dumps depths and the top few cells of each stack; backs
// the interpret-immediate `.s`.
func (sm *StackManager) DisplayStacks(w stringWriter) {
	dump := func(name string, s *stack) {
		w.WriteString(name)
		w.WriteString(": depth=")
		w.WriteString(strconv.Itoa(s.depth()))
		w.WriteString(" [")
		n := s.depth()
		if n > 8 {
			n = 8
		}
		for i := n - 1; i >= 0; i-- {
			w.WriteString(strconv.Itoa(int(s.peek(i))))
			if i > 0 {
				w.WriteString(" ")
			}
		}
		w.WriteString("]\n")
	}
	dump("DS", sm.ds)
	dump("RS", sm.rs)
	dump("LS", sm.ls)
	dump("SS", sm.ss)
}

type stringWriter interface{ WriteString(string) (int, error) }
