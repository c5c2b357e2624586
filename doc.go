/*
Package jitthird implements a dictionary-driven, concatenative stack
language whose definitions compile straight to native x86-64 machine
code at definition time, rather than to a bytecode later interpreted.

A word like

	: sq dup * ;

is lowered, token by token, into a sequence of x86-64 instructions by
internal/asm's Emitter, committed to an executable page via
internal/nativecode, and from then on "sq" is just a function pointer:
calling it costs a native call/ret, not a dispatch loop.

Four independent stacks back execution: a data stack for values, a
return stack doubling as storage for DO/LOOP index/limit pairs, a
locals stack for named parameters inside `{ args | locals -- returns }`
frames, and a string stack reserved for future use. Each one keeps its
moving top-of-stack pointer in a dedicated callee-saved register for the
duration of a JIT call; World.Stacks materialises and recovers those
register values at every boundary crossing between Go and compiled
code, so the registers never need saving across a call into another
compiled word.

World ties the pieces together: Stacks, Dict (the word dictionary),
Generator (the emitter plus compile-time control-flow bookkeeping), and
Interner (deduplicated, refcounted string storage) are constructed
together by New and threaded through by reference rather than held in
package-level state, so independent Worlds can run side by side.

Run drives the classic read-tokenize-dispatch outer loop: known words
either run their interpret-time handler, call their compiled native
code, or expand at compile time inside a colon definition; unknown
tokens that parse as numbers push a literal; anything else is a
compile-time or runtime error, reported on one line together with the
offending token.

See SPEC_FULL.md in this module's source tree for the full design,
including the register-pinning and foreign-call ABI decisions that
internal/asm and internal/nativecode implement.
*/
package jitthird
