package jitthird

import (
	"io"

	"github.com/jitthird/jitthird/internal/flushio"
)

// Option configures a World at construction time, following api.go's
// functional-options idiom exactly (options/noption composition so
// VMOptions-style variadic nesting flattens instead of stacking).
type Option interface{ apply(w *World) }

func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*World) {}

type options []Option

func (opts options) apply(w *World) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(w)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (fn withLogfn) apply(w *World) { w.logging = logging{logfn: fn} }

// WithLogf installs a leveled logging function; the compiler logs one line
// through it per finished definition. Generator emissions and dictionary
// mutations are not logged.
func WithLogf(fn func(mess string, args ...interface{})) Option { return withLogfn(fn) }

type inputOption struct{ io.Reader }

func (i inputOption) apply(w *World) { w.in.Queue = append(w.in.Queue, i.Reader) }

// WithInput queues r as a source the outer interpreter will read from
// once prior sources are exhausted (teacher's Queue-of-readers idiom).
func WithInput(r io.Reader) Option { return inputOption{r} }

type outputOption struct{ io.Writer }

func (o outputOption) apply(w *World) {
	w.flush()
	w.out = flushio.NewWriteFlusher(o.Writer)
	if cl, ok := o.Writer.(io.Closer); ok {
		w.closers = append(w.closers, cl)
	}
}

// WithOutput sets the writer `emit`/`.`/`."`-style output goes to.
func WithOutput(w io.Writer) Option { return outputOption{w} }

type teeOption struct{ io.Writer }

func (o teeOption) apply(w *World) {
	w.out = flushio.WriteFlushers(w.out, flushio.NewWriteFlusher(o.Writer))
	if cl, ok := o.Writer.(io.Closer); ok {
		w.closers = append(w.closers, cl)
	}
}

// WithTee duplicates output to an additional writer (used by cmd/jitthird
// for trace capture without disturbing the primary stream).
func WithTee(w io.Writer) Option { return teeOption{w} }

type registersOption PinnedRegs

func (r registersOption) apply(w *World) { w.regs = PinnedRegs(r) }

// WithRegisters overrides which callee-saved registers back the four
// pinned stack pointers; any four distinct ones work (§9: "the register
// assignment is a tunable").
func WithRegisters(regs PinnedRegs) Option { return registersOption(regs) }

func withRegisters(regs PinnedRegs) Option { return registersOption(regs) }

type stackSizesOption StackSizes

func (s stackSizesOption) apply(w *World) { w.stackSizes = StackSizes(s) }

// WithStackSizes overrides the default cell counts of the four stacks.
func WithStackSizes(sizes StackSizes) Option { return stackSizesOption(sizes) }

type loopCheckOption bool

func (l loopCheckOption) apply(w *World) { w.loopCheck = bool(l) }

// WithLoopCheck enables the ESC-cancellation emission in loop closers
// (§4.5.2's optional loop-check feature).
func WithLoopCheck(enabled bool) Option { return loopCheckOption(enabled) }

type autoResetOption bool

func (a autoResetOption) apply(w *World) { w.autoReset = bool(a) }

// WithAutoReset controls whether the code buffer is reset at each
// definition start (§6's process-wide toggle).
func WithAutoReset(enabled bool) Option { return autoResetOption(enabled) }
