package jitthird

// Compiler is C7: it drives token-by-token lowering of a word body into
// Generator calls, resolving each token as dictionary entry, local name,
// or literal number, per §4.7.
type Compiler struct {
	w      *World
	tokens []string
	pos    int

	locals *LocalsFrame
}

func newCompiler(w *World, tokens []string) *Compiler {
	return &Compiler{w: w, tokens: tokens}
}

// next lets a compile-immediate word consume a forward token (§4.7's
// "shared cursor" protocol, e.g. IF scanning ahead for ELSE/THEN is not
// needed since those are themselves tokens walked by the main loop, but
// locals parsing and TO do need it).
func (c *Compiler) next() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}

func (c *Compiler) peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

func (c *Compiler) gen() *Generator { return c.w.Generator }

// compileDefinition implements the `:` lifecycle (§4.7's "Definition
// lifecycle" paragraph): a standard prologue/epilogue wraps the body,
// which is then finalised to a function pointer and installed under name.
func (c *Compiler) compileDefinition(name string) error {
	g := c.gen()
	if c.w.autoReset {
		g.Reset()
	}

	exitLabel := g.e.NewLabel()
	g.labels.push(labelFrame{kind: frameFunc, exitLabel: exitLabel})

	if tok, ok := c.peek(); ok && tok == "{" {
		c.pos++
		lf, err := parseLocals(c)
		if err != nil {
			g.Reset()
			return err
		}
		c.locals = lf
		g.emitPrologue(lf)
	}

	for {
		tok, ok := c.next()
		if !ok {
			break
		}
		if err := c.compileToken(tok); err != nil {
			g.Reset()
			return err
		}
	}

	if _, ok := g.labels.pop(); !ok || !g.labels.empty() {
		g.Reset()
		return compileErrorf(name, ErrMismatchedClose)
	}

	if c.locals != nil {
		g.emitEpilogue(c.locals)
	}
	g.genFuncEpilogue(exitLabel)

	entry, err := g.Finalize()
	if err != nil {
		return err
	}
	c.w.Dict.Add(name, nil, entry, nil, nil)
	c.w.logf("compiled %s -> %#x", name, entry)
	return nil
}

// compileToken implements §4.7 steps 2-5.
func (c *Compiler) compileToken(tok string) error {
	if e := c.w.Dict.Find(tok); e != nil {
		switch {
		case e.Generator != nil:
			e.Generator(c.gen())
			return nil
		case e.CompileImm != nil:
			return e.CompileImm(c)
		case e.hasCompiled():
			c.gen().genCall(e.Compiled)
			return nil
		default:
			return compileErrorf(tok, ErrUnknownWord)
		}
	}

	if c.locals != nil {
		if off, ok := c.locals.OffsetOf(tok); ok {
			c.gen().genLocalFetch(off)
			return nil
		}
	}

	if n, ok := parseNumber(tok); ok {
		c.gen().genLiteral(n)
		return nil
	}

	if addr, isPrint, ok := stringSentinel(tok); ok {
		c.gen().genLiteral(int64(addr))
		if isPrint {
			c.gen().genForeignCall(putsAddr(), true, false)
		}
		return nil
	}

	return compileErrorf(tok, ErrUnknownWord)
}

// stringSentinel recognises the `sPtr_<addr>`/`pPtr_<addr>` sentinel
// tokens scanTokens produces for `s"`/`."` literals (§6): `s"` leaves the
// address on DS for later use, while `."` prints immediately, so its
// sentinel additionally compiles a call to `puts`.
func stringSentinel(tok string) (addr uintptr, isPrint bool, ok bool) {
	var prefix string
	switch {
	case len(tok) > 5 && tok[:5] == "sPtr_":
		prefix = "sPtr_"
	case len(tok) > 5 && tok[:5] == "pPtr_":
		prefix, isPrint = "pPtr_", true
	default:
		return 0, false, false
	}
	n, numOK := parseNumber(tok[len(prefix):])
	if !numOK {
		return 0, false, false
	}
	return uintptr(n), isPrint, true
}
