package jitthird

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/jitthird/jitthird/internal/fileinput"
	"github.com/jitthird/jitthird/internal/flushio"
)

// logging is a small leveled-logging mixin, kept in the teacher's own
// idiom (core.go's logging struct): a log function plus a prefix that
// nests as components call into each other, rather than a full logging
// framework. World embeds one and the Generator carries a "GEN "-prefixed
// copy; the only message logged is the compiler's one line per finished
// definition. The Generator logs nothing and the Dictionary has no logger.
type logging struct {
	logfn func(mess string, args ...interface{})
}

func (lg logging) logf(mess string, args ...interface{}) {
	if lg.logfn != nil {
		lg.logfn(mess, args...)
	}
}

func (lg logging) withLogPrefix(prefix string) logging {
	parent := lg.logfn
	return logging{logfn: func(mess string, args ...interface{}) {
		if parent != nil {
			parent(prefix+mess, args...)
		}
	}}
}

// World is the non-global aggregate re-architecture of the original's
// process-wide singletons (§9): a compiler/interpreter session threaded
// explicitly by reference rather than through global mutable state. Tests
// instantiate independent Worlds for isolation.
type World struct {
	Stacks    *StackManager
	Interner  *StringInterner
	Dict      *Dictionary
	Generator *Generator

	regs       PinnedRegs
	stackSizes StackSizes

	out     flushio.WriteFlusher
	closers []io.Closer
	in      fileinput.Input

	loopCheck bool
	autoReset bool

	logging
}

// New builds a World with default options applied before opts, matching
// api.go's New(opts...) shape.
func New(opts ...Option) *World {
	w := &World{}
	defaultOptions.apply(w)
	Options(opts...).apply(w)

	w.Stacks = newStackManager(w.stackSizes, w.regs)
	w.Interner = newStringInterner()
	w.Dict = newDictionary(1024)
	w.Generator = newGenerator(w.regs, w.loopCheck, w.logging.withLogPrefix("GEN "))
	w.Generator.world = w

	registerBuiltins(w)
	return w
}

// defaultOptions mirrors api.go's bytes.NewReader(nil)/ioutil.Discard
// defaults: a silent, inputless World until the caller wires I/O.
var defaultOptions = Options(
	withRegisters(DefaultPinnedRegs),
	WithOutput(ioutil.Discard),
	WithAutoReset(true),
)

func (w *World) flush() {
	if w.out != nil {
		w.out.Flush()
	}
}

// Close flushes output and closes every registered closer, in the order
// options registered them (teacher's api.go/options.go convention).
func (w *World) Close() (err error) {
	w.flush()
	for _, c := range w.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *World) writeString(s string) {
	if w.out == nil {
		return
	}
	io.WriteString(w.out, s)
}

func (w *World) printf(format string, args ...interface{}) {
	w.writeString(fmt.Sprintf(format, args...))
}
