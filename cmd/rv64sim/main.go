// Package main provides the entry point for rv64sim, a cycle-level
// five-stage RV64I pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rv64sim/core"
	"github.com/sarchlab/rv64sim/loader"
	"github.com/sarchlab/rv64sim/membus"
	"github.com/sarchlab/rv64sim/sim"
)

var (
	pipeline  = flag.Bool("pipeline", false, "Run the five-stage pipelined model instead of the non-pipelined reference")
	debug     = flag.Bool("debug", false, "Emit a per-instruction disassembly trace to stderr")
	maxCycles = flag.Uint64("maxcycles", 0, "Abort after this many cycles (0 means unlimited)")
	entry     = flag.String("entry", "", "Override the program's ELF entry point, e.g. 0x10000")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv64sim [-pipeline] [-debug] [-maxcycles N] [-entry 0xADDR] <program.elf>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	prog, err := loader.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	entryPC := core.MemAddress(prog.EntryPoint)
	if *entry != "" {
		v, err := parseHexAddr(*entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -entry: %v\n", err)
			os.Exit(1)
		}
		entryPC = v
	}

	var traceWriter io.Writer
	if *debug {
		traceWriter = os.Stderr
	}

	s, result := run(prog, *pipeline, entryPC, *maxCycles, traceWriter)

	switch result.Kind {
	case sim.StepEndOfTest:
		fmt.Printf("%s\n", s.Stats())
		os.Exit(0)
	case sim.StepError:
		fmt.Fprintf(os.Stderr, "Error at pc=0x%x: %v\n", result.PC, result.Err)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Stopped after %d cycles at pc=0x%x without reaching the end marker\n",
			s.Stats().Cycles, result.PC)
		os.Exit(1)
	}
}

// parseHexAddr parses a "0x"-prefixed hexadecimal address.
func parseHexAddr(s string) (core.MemAddress, error) {
	var v uint64
	if _, err := fmt.Sscanf(s, "0x%x", &v); err != nil {
		return 0, err
	}
	return core.MemAddress(v), nil
}

// run loads prog's segments into a fresh membus.Memory, builds a
// Simulator over it, and ticks it to completion or until maxCycles is
// reached (0 means unlimited). It is kept separate from main so the
// loading/run loop can be exercised without going through flag parsing
// or os.Exit.
func run(prog *loader.Program, pipelined bool, entryPC core.MemAddress, maxCycles uint64, trace io.Writer) (*sim.Simulator, sim.StepResult) {
	bus := membus.New()
	for _, seg := range prog.Segments {
		bus.LoadBytes(core.MemAddress(seg.VirtAddr), seg.Data)
	}

	opts := []sim.Option{
		sim.WithPipelining(pipelined),
		sim.WithEntryPC(entryPC),
		sim.WithStackPointer(prog.InitialSP),
	}
	if trace != nil {
		opts = append(opts, sim.WithTraceWriter(trace))
	}

	s := sim.NewSimulator(bus, opts...)

	var result sim.StepResult
	for {
		result = s.Tick()
		if result.Kind != sim.StepContinue {
			return s, result
		}
		if maxCycles != 0 && s.Stats().Cycles >= maxCycles {
			return s, result
		}
	}
}
