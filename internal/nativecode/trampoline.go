package nativecode

// jitcall is implemented in trampoline_amd64.s.
func jitcall(codeAddr uintptr, ctx uintptr)

// Call transfers control to the JIT-compiled definition at entry. ctx must
// point at a live 4-word RegSnapshot (DS, RS, LS, SS addresses); it is
// updated in place with the pointer values observed when the definition
// returns.
func Call(entry uintptr, ctx uintptr) { jitcall(entry, ctx) }
