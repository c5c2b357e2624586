// Command jitthird is an interactive prompt and script runner for the
// jitthird language: it wires stdin/the named script files to a World
// and prints "Ok"/"? err" after each line, the way the language's own
// outer interpreter is specified to.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jitthird/jitthird"
	"github.com/jitthird/jitthird/internal/logio"
)

func main() {
	var (
		timeout   time.Duration
		trace     bool
		loopCheck bool
		dsCells   int
		rsCells   int
		lsCells   int
	)
	flag.DurationVar(&timeout, "timeout", 0, "stop execution after this long")
	flag.BoolVar(&trace, "trace", false, "log each compiled definition to stderr")
	flag.BoolVar(&loopCheck, "loop-check", false, "poll the escape flag in BEGIN/DO loop closers (no key or signal sets it)")
	flag.IntVar(&dsCells, "ds-cells", 0, "override the data stack's cell count")
	flag.IntVar(&rsCells, "rs-cells", 0, "override the return stack's cell count")
	flag.IntVar(&lsCells, "ls-cells", 0, "override the locals stack's cell count")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer os.Exit(log.ExitCode())

	opts := []jitthird.Option{
		jitthird.WithOutput(os.Stdout),
		jitthird.WithLoopCheck(loopCheck),
		jitthird.WithStackSizes(jitthird.StackSizes{DS: dsCells, RS: rsCells, LS: lsCells}),
	}
	if trace {
		opts = append(opts, jitthird.WithLogf(log.Leveledf("TRACE")))
	}

	for _, name := range flag.Args() {
		f, err := os.Open(name)
		if err != nil {
			log.Errorf("%v", err)
			return
		}
		defer f.Close()
		opts = append(opts, jitthird.WithInput(f))
	}
	opts = append(opts, jitthird.WithInput(os.Stdin))

	w := jitthird.New(opts...)
	defer w.Close()

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.ErrorIf(w.Run(ctx))
}
