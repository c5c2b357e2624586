// Package nativecode owns the executable memory backing a finalised
// definition, the ABI0 trampoline that calls into it from Go, and the
// small set of host-callback shims JIT code calls via the foreign-call
// convention (§5 of the design: save pinned registers, reserve shadow
// space, call, restore).
package nativecode

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Page is an anonymous RWX mapping holding one finalised definition's
// machine code. Pages are never freed back to the OS (matching the
// documented "emitted machine code for a forgotten entry is not reclaimed"
// leak in the dictionary design); Release can unmap one explicitly, and
// nothing in this module calls it.
type Page struct {
	mem []byte
}

// Alloc rounds code up to a whole page and mmaps it PROT_READ|WRITE|EXEC.
// Using x/sys/unix rather than hand-rolled syscall numbers is the idiom
// every native-code-adjacent Go project in this vein reaches for.
func Alloc(code []byte) (*Page, error) {
	size := pageRound(len(code))
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("nativecode: mmap %d bytes: %w", size, err)
	}
	copy(mem, code)
	return &Page{mem: mem}, nil
}

// Addr returns the address of the first instruction, suitable as the imm64
// operand of a `mov rax, imm64; call rax` sequence.
func (p *Page) Addr() uintptr {
	if len(p.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

// Release unmaps the page. Callers must guarantee no live compiled word
// still calls into it -- the dictionary never does this on FORGET, and
// World.Close does not release pages either.
func (p *Page) Release() error {
	if len(p.mem) == 0 {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	return err
}

func pageRound(n int) int {
	ps := unix.Getpagesize()
	if n == 0 {
		return ps
	}
	return (n + ps - 1) &^ (ps - 1)
}
