package jitthird

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unsafe"

	"github.com/jitthird/jitthird/internal/nativecode"
	"github.com/jitthird/jitthird/internal/panicerr"
)

// Interp is the C8 outer interpreter: it tokenises input, and for each
// non-`:` token either runs an interpret-immediate handler, invokes a
// compiled entry, or pushes a literal number.
type Interp struct {
	w      *World
	tokens []string // the current line's tokens, after literal-scan preprocessing
	pos    int
}

// Run drives the read-tokenise-dispatch loop until input is exhausted or
// ctx is cancelled, recovering any halt/panic the way Run's teacher
// counterpart does (panicerr.Recover converts a panic or runtime.Goexit
// into a plain error).
func (w *World) Run(ctx context.Context) error {
	it := &Interp{w: w}
	err := panicerr.Recover("World", func() error {
		return it.run(ctx)
	})
	if err == nil || err == io.EOF {
		return nil
	}
	var he haltError
	if unwrapHalt(err, &he) {
		return he.error
	}
	return err
}

func unwrapHalt(err error, out *haltError) bool {
	for e := err; e != nil; {
		if he, ok := e.(haltError); ok {
			*out = he
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

func (it *Interp) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := it.readLine()
		if err != nil {
			return err
		}
		toks, serr := scanTokens(line, it.w)
		if serr != nil {
			it.w.printf("? %v\n", serr)
			continue
		}
		it.tokens = toks
		it.pos = 0
		if err := it.interpretLine(); err != nil {
			var ce *compileError
			if as, ok := err.(*compileError); ok {
				ce = as
			}
			if ce != nil {
				it.w.printf("? %v\n", ce)
			} else {
				it.w.printf("? %v\n", err)
				it.w.Stacks.ResetD()
			}
			continue
		}
		it.w.printf("Ok\n")
	}
}

func (it *Interp) interpretLine() error {
	for it.pos < len(it.tokens) {
		tok := it.tokens[it.pos]
		it.pos++
		if tok == ":" {
			if err := it.compileDefinition(); err != nil {
				return err
			}
			continue
		}
		if err := it.interpretToken(tok); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) interpretToken(tok string) error {
	if e := it.w.Dict.Find(tok); e != nil {
		switch {
		case e.InterpImm != nil:
			return e.InterpImm(it)
		case e.hasCompiled():
			callCompiled(it.w, e.Compiled)
			return nil
		case e.Generator != nil:
			// A bare primitive typed at the prompt (outside any
			// definition): compile it into a throwaway one-word routine
			// and run that immediately, the same trick the compiler uses
			// for a real definition's body.
			return it.runGenerator(e.Generator)
		}
	}
	if n, ok := parseNumber(tok); ok {
		it.w.Stacks.PushD(n)
		return nil
	}
	if addr, isPrint, ok := stringSentinel(tok); ok {
		it.w.Stacks.PushD(int64(addr))
		if isPrint {
			return it.runGenerator(func(g *Generator) { g.genForeignCall(putsAddr(), true, false) })
		}
		return nil
	}
	return compileErrorf(tok, ErrUnknownWord)
}

// runGenerator finalises gen into a fresh executable page and calls it
// once; used to run a primitive or an ad hoc foreign call directly from
// the outer interpreter rather than from inside a compiled definition.
func (it *Interp) runGenerator(gen genFunc) error {
	g := it.w.Generator
	if it.w.autoReset {
		g.Reset()
	}
	gen(g)
	g.e.Ret()
	entry, err := g.Finalize()
	if err != nil {
		return err
	}
	callCompiled(it.w, entry)
	return nil
}

// compileDefinition handles `:`: captures the name, hands the token range
// up to the matching `;` to the Compiler, per C7's lifecycle.
func (it *Interp) compileDefinition() error {
	if it.pos >= len(it.tokens) {
		return compileErrorf(":", ErrExpectedWordName)
	}
	name := it.tokens[it.pos]
	it.pos++
	if it.w.Dict.Find(name) != nil {
		return compileErrorf(name, ErrNameExists)
	}

	start := it.pos
	depth := 0
	end := -1
	for i := start; i < len(it.tokens); i++ {
		switch it.tokens[i] {
		case ":":
			depth++
		case ";":
			if depth == 0 {
				end = i
			} else {
				depth--
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return compileErrorf(name, ErrUnterminatedDef)
	}
	it.pos = end + 1

	c := newCompiler(it.w, it.tokens[start:end])
	if err := c.compileDefinition(name); err != nil {
		return err
	}
	return nil
}

// next lets an interpret-immediate (value/variable/to/see) consume a
// forward token, per §4.8.
func (it *Interp) next() (string, bool) {
	if it.pos >= len(it.tokens) {
		return "", false
	}
	tok := it.tokens[it.pos]
	it.pos++
	return tok, true
}

func (it *Interp) World() *World { return it.w }

func callCompiled(w *World, entry uintptr) {
	snap := w.Stacks.Snapshot()
	nativecode.Call(entry, uintptr(unsafe.Pointer(&snap)))
	w.Stacks.Apply(snap)
	// JIT code pops without checking depth; an underflow shows up here as
	// a data-stack pointer past its empty position once control returns.
	haltif(w.Stacks.DepthD() < 0, ErrDSUnderflow)
}

// readLine pulls the next line from the World's input queue via
// fileinput.Input, matching the teacher's named multi-source queue idiom.
func (it *Interp) readLine() (string, error) {
	var sb strings.Builder
	for {
		r, _, err := it.w.in.ReadRune()
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if r == '\n' {
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

// scanTokens applies literal-scan preprocessing (§6/§4.7): strips `( … )`
// comments and replaces `s" …"`/`." …"` with a sentinel token carrying the
// interned string's address in decimal, then splits the remainder on
// whitespace.
func scanTokens(line string, w *World) ([]string, error) {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '(' :
			flush()
			j := i + 1
			for j < len(runes) && runes[j] != ')' {
				j++
			}
			i = j
		case (r == 's' || r == 'S') && i+1 < len(runes) && runes[i+1] == '"' && (cur.Len() == 0):
			flush()
			lit, j, err := scanStringLiteral(runes, i+2)
			if err != nil {
				return nil, err
			}
			idx := w.Interner.Intern(lit)
			out = append(out, fmt.Sprintf("sPtr_%d", w.Interner.AddressOf(idx)))
			i = j
		case r == '.' && i+1 < len(runes) && runes[i+1] == '"' && (cur.Len() == 0):
			flush()
			lit, j, err := scanStringLiteral(runes, i+2)
			if err != nil {
				return nil, err
			}
			idx := w.Interner.Intern(lit)
			out = append(out, fmt.Sprintf("pPtr_%d", w.Interner.AddressOf(idx)))
			i = j
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out, nil
}

func scanStringLiteral(runes []rune, start int) (string, int, error) {
	j := start
	if j < len(runes) && runes[j] == ' ' {
		j++
	}
	begin := j
	for j < len(runes) && runes[j] != '"' {
		j++
	}
	if j >= len(runes) {
		return "", j, fmt.Errorf(`unterminated string literal`)
	}
	return string(runes[begin:j]), j, nil
}

func parseNumber(tok string) (int64, bool) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
