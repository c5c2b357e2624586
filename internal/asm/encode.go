package asm

import "errors"

var errUnboundLabel = errors.New("asm: label never bound")

// Emitter accumulates machine code for a single definition. It is reset and
// reused across definitions rather than reallocated (mirrors the "single
// mutable context reset per definition" contract of the code buffer).
type Emitter struct {
	code   []byte
	labels []labelState
}

// Reset discards any half-built code and prepares a fresh emitter, keeping
// the backing array to avoid reallocating on every definition.
func (e *Emitter) Reset() {
	e.code = e.code[:0]
	e.labels = e.labels[:0]
}

// Len reports the number of bytes emitted so far.
func (e *Emitter) Len() int { return len(e.code) }

// Bytes finalises label relocations and returns the emitted code. The
// returned slice aliases the Emitter's internal buffer and is only valid
// until the next Reset.
func (e *Emitter) Bytes() ([]byte, error) {
	if err := e.finalizeLabels(); err != nil {
		return nil, err
	}
	return e.code, nil
}

func (e *Emitter) emit8(b byte)    { e.code = append(e.code, b) }
func (e *Emitter) emit32(v uint32) { e.code = append(e.code, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
func (e *Emitter) emit64(v uint64) {
	for i := 0; i < 8; i++ {
		e.code = append(e.code, byte(v>>(8*i)))
	}
}

func rex(w, r, x, b byte) byte { return 0x40 | w<<3 | r<<2 | x<<1 | b }

// modrmReg encodes a register-direct ModRM byte (mod=11).
func modrmReg(regOp, rm Reg) byte {
	return 0xC0 | regOp.bits()<<3 | rm.bits()
}

// modrmMem encodes a [base+disp] ModRM/SIB pair for disp8/disp32 addressing,
// used by every memory-access generator (@, !, stack push/pop, locals).
func (e *Emitter) modrmMem(regOp, base Reg, disp int32) {
	needsSIB := base.bits() == RSP.bits()
	var mod byte
	switch {
	case disp == 0 && base.bits() != RBP.bits():
		mod = 0x00
	case disp >= -128 && disp <= 127:
		mod = 0x01
	default:
		mod = 0x02
	}
	rm := base.bits()
	if needsSIB {
		rm = 0x04
	}
	e.emit8(mod<<6 | regOp.bits()<<3 | rm)
	if needsSIB {
		e.emit8(0x24) // scale=1, index=none, base=RSP/R12
	}
	switch mod {
	case 0x01:
		e.emit8(byte(disp))
	case 0x02:
		e.emit32(uint32(disp))
	}
}

// MovRegImm64 emits `mov reg, imm64`.
func (e *Emitter) MovRegImm64(dst Reg, imm uint64) {
	e.emit8(rex(1, 0, 0, dst.extend()))
	e.emit8(0xB8 | dst.bits())
	e.emit64(imm)
}

// MovRegReg emits `mov dst, src`.
func (e *Emitter) MovRegReg(dst, src Reg) {
	e.emit8(rex(1, src.extend(), 0, dst.extend()))
	e.emit8(0x89)
	e.emit8(modrmReg(src, dst))
}

// LoadMem emits `mov dst, [base+disp]`.
func (e *Emitter) LoadMem(dst, base Reg, disp int32) {
	e.emit8(rex(1, dst.extend(), 0, base.extend()))
	e.emit8(0x8B)
	e.modrmMem(dst, base, disp)
}

// StoreMem emits `mov [base+disp], src`.
func (e *Emitter) StoreMem(base Reg, disp int32, src Reg) {
	e.emit8(rex(1, src.extend(), 0, base.extend()))
	e.emit8(0x89)
	e.modrmMem(src, base, disp)
}

// ArithRR emits a 64-bit register/register ALU op: dst = dst OP src.
func (e *Emitter) ArithRR(op ArithOp, dst, src Reg) {
	e.emit8(rex(1, src.extend(), 0, dst.extend()))
	e.emit8(byte(op)<<3 | 0x01)
	e.emit8(modrmReg(src, dst))
}

// ArithRImm32 emits dst = dst OP sign-extend32(imm).
func (e *Emitter) ArithRImm32(op ArithOp, dst Reg, imm int32) {
	e.emit8(rex(1, 0, 0, dst.extend()))
	e.emit8(0x81)
	e.emit8(0xC0 | byte(op)<<3 | dst.bits())
	e.emit32(uint32(imm))
}

// Neg emits `neg dst`.
func (e *Emitter) Neg(dst Reg) {
	e.emit8(rex(1, 0, 0, dst.extend()))
	e.emit8(0xF7)
	e.emit8(0xD8 | dst.bits())
}

// Not emits `not dst`.
func (e *Emitter) Not(dst Reg) {
	e.emit8(rex(1, 0, 0, dst.extend()))
	e.emit8(0xF7)
	e.emit8(0xD0 | dst.bits())
}

// IMul emits `imul dst, src` (low 64 bits of the signed product, per §4.5.1).
func (e *Emitter) IMul(dst, src Reg) {
	e.emit8(rex(1, dst.extend(), 0, src.extend()))
	e.emit8(0x0F)
	e.emit8(0xAF)
	e.emit8(modrmReg(dst, src))
}

// Cqo emits `cqo` (sign-extend RAX into RDX:RAX), the mandatory prelude to
// a 64-bit signed IDiv.
func (e *Emitter) Cqo() {
	e.emit8(rex(1, 0, 0, 0))
	e.emit8(0x99)
}

// IDiv emits `idiv divisor` (RAX /= divisor, RDX = remainder).
func (e *Emitter) IDiv(divisor Reg) {
	e.emit8(rex(1, 0, 0, divisor.extend()))
	e.emit8(0xF7)
	e.emit8(0xF8 | divisor.bits())
}

// Cmp emits `cmp a, b` (a - b, flags only).
func (e *Emitter) Cmp(a, b Reg) { e.ArithRR(OpCmp, a, b) }

// SetCC emits `setCC dst8` then zero-extends dst into its full 64-bit form,
// matching the "0 for false, -1 for true" convention via a follow-up Neg:
// callers wanting the classical all-bits-set true value should pair this
// with Neg(dst) after SetCC.
func (e *Emitter) SetCC(cc CondCode, dst Reg) {
	// setcc r/m8
	if dst.extend() != 0 || dst >= RSP {
		e.emit8(rex(0, 0, 0, dst.extend()))
	}
	e.emit8(0x0F)
	e.emit8(0x90 | byte(cc))
	e.emit8(0xC0 | dst.bits())
	// movzx dst, dst8
	e.emit8(rex(1, dst.extend(), 0, dst.extend()))
	e.emit8(0x0F)
	e.emit8(0xB6)
	e.emit8(modrmReg(dst, dst))
}

// ShiftRightImm emits `sar dst, imm8` (arithmetic, sign-preserving) or
// `shr dst, imm8` (logical) depending on arithmetic, via the shift-group
// opcode 0xC1 with /7 (SAR) or /5 (SHR) in the ModRM reg field.
func (e *Emitter) ShiftRightImm(dst Reg, imm uint8, arithmetic bool) {
	e.emit8(rex(1, 0, 0, dst.extend()))
	e.emit8(0xC1)
	reg := byte(5)
	if arithmetic {
		reg = 7
	}
	e.emit8(0xC0 | reg<<3 | dst.bits())
	e.emit8(imm)
}

// Push emits `push reg`.
func (e *Emitter) Push(reg Reg) {
	if reg.extend() != 0 {
		e.emit8(rex(0, 0, 0, 1))
	}
	e.emit8(0x50 | reg.bits())
}

// Pop emits `pop reg`.
func (e *Emitter) Pop(reg Reg) {
	if reg.extend() != 0 {
		e.emit8(rex(0, 0, 0, 1))
	}
	e.emit8(0x58 | reg.bits())
}

// CallReg emits `call reg` (indirect near call), used for `call <word>`
// once its absolute address has been loaded via MovRegImm64.
func (e *Emitter) CallReg(reg Reg) {
	if reg.extend() != 0 {
		e.emit8(rex(0, 0, 0, reg.extend()))
	}
	e.emit8(0xFF)
	e.emit8(0xD0 | reg.bits())
}

// Ret emits `ret`.
func (e *Emitter) Ret() { e.emit8(0xC3) }

// Jmp emits an unconditional near jmp to lbl (rel32, relocated on Bind).
func (e *Emitter) Jmp(lbl Label) {
	e.emit8(0xE9)
	e.recordBranch(lbl)
}

// Jcc emits a conditional near jump to lbl.
func (e *Emitter) Jcc(cc CondCode, lbl Label) {
	e.emit8(0x0F)
	e.emit8(0x80 | byte(cc))
	e.recordBranch(lbl)
}

// Jz / Jnz are the two conditional jumps the control-flow generators use
// almost exclusively (IF / UNTIL / WHILE all branch on a zero/nonzero TOS).
func (e *Emitter) Jz(lbl Label)  { e.Jcc(CondZ, lbl) }
func (e *Emitter) Jnz(lbl Label) { e.Jcc(CondNZ, lbl) }
func (e *Emitter) Jl(lbl Label)  { e.Jcc(CondL, lbl) }
func (e *Emitter) Jge(lbl Label) { e.Jcc(CondGE, lbl) }

// SubRSPImm32 / AddRSPImm32 adjust the host stack pointer, used for the
// shadow-space reservation around foreign calls (§5).
func (e *Emitter) SubRSPImm32(n int32) { e.ArithRImm32(OpSub, RSP, n) }
func (e *Emitter) AddRSPImm32(n int32) { e.ArithRImm32(OpAdd, RSP, n) }
