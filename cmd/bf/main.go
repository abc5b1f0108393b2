// bf CLI - compiles and runs tape-language programs
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfjit/compiler"
	"github.com/chazu/bfjit/engine"
	"github.com/chazu/bfjit/jit"
	"github.com/chazu/bfjit/manifest"
	"github.com/chazu/bfjit/server"
	"github.com/chazu/bfjit/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options are the parsed command line.
type options struct {
	backend  string
	fallback bool
	optimize bool
	dump     bool
	dumpCode bool
	dumpTape string
	verbose  bool
	lsp      bool
	path     string

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("bf", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.backend, "backend", "auto", "Execution backend: interp, jit or auto")
	fs.BoolVar(&o.fallback, "fallback", false, "Let auto fall back to the interpreter where the JIT is unsupported")
	fs.BoolVar(&o.optimize, "O", true, "Run the optimization passes")
	fs.BoolVar(&o.dump, "dump", false, "Print the op listing and exit")
	fs.BoolVar(&o.dumpCode, "dump-code", false, "Print the generated x86-64 code as hex and exit")
	fs.StringVar(&o.dumpTape, "dump-tape", "", "Write the final tape snapshot (CBOR) to this file")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.lsp, "lsp", false, "Start the language server on stdio")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bf [options] file.b\n\n")
		fmt.Fprintf(stderr, "Compiles a program and runs it with stdin as input and stdout as output.\n")
		fmt.Fprintf(stderr, "Settings come from the nearest %s, then BFJIT_* variables, then flags.\n\n", manifest.FileName)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  bf hello.b                      # Run with the JIT\n")
		fmt.Fprintf(stderr, "  bf -backend interp hello.b      # Run with the interpreter\n")
		fmt.Fprintf(stderr, "  bf -fallback hello.b            # JIT where available, else interpreter\n")
		fmt.Fprintf(stderr, "  bf -dump hello.b                # Show the optimized ops\n")
		fmt.Fprintf(stderr, "  bf -lsp                         # Language server for editors\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if !o.lsp {
		if fs.NArg() != 1 {
			fs.Usage()
			return nil, errors.New("expected exactly one source file")
		}
		o.path = fs.Arg(0)
	}
	return o, nil
}

// merge applies the configuration file and environment beneath any flag
// given explicitly.
func (o *options) merge(m *manifest.Manifest) {
	if !o.set["backend"] {
		o.backend = m.Run.Backend
	}
	if !o.set["fallback"] {
		o.fallback = m.Run.Fallback
	}
	if !o.set["O"] {
		o.optimize = m.Run.Optimize
	}
	if !o.set["dump-tape"] {
		o.dumpTape = m.Dump.Tape
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	verbosity := 0
	if o.verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if o.lsp {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintln(stderr, renderError(err))
			return 1
		}
		return 0
	}

	source, err := os.ReadFile(o.path)
	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		return 1
	}

	m, err := manifest.Resolve(o.path)
	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		return 1
	}
	o.merge(m)

	kind, err := engine.ParseKind(o.backend)
	if err != nil {
		fmt.Fprintln(stderr, renderError(err))
		return 1
	}

	if o.dump || o.dumpCode {
		return dump(o, source, stdout, stderr)
	}

	out := bufio.NewWriter(stdout)
	opts := engine.Options{Backend: kind, Fallback: o.fallback, Optimize: o.optimize}
	res, err := engine.Run(source, opts, vm.NewSource(bufio.NewReader(stdin)), out)
	if err != nil {
		var perr *compiler.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(stderr, renderParseError(o.path, source, perr))
		} else {
			fmt.Fprintln(stderr, renderError(err))
		}
		return 1
	}

	if o.verbose {
		fmt.Fprintf(stderr, "ran %d ops on %s\n", res.Ops, res.Backend)
	}

	if o.dumpTape != "" {
		if err := writeTape(o.dumpTape, res.Tape); err != nil {
			fmt.Fprintln(stderr, renderError(err))
			return 1
		}
	}
	return 0
}

// dump prints the op listing or the machine code instead of running.
func dump(o *options, source []byte, stdout, stderr io.Writer) int {
	ops, err := compiler.CompileWithOptions(source, compiler.Options{Optimize: o.optimize})
	if err != nil {
		var perr *compiler.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(stderr, renderParseError(o.path, source, perr))
		} else {
			fmt.Fprintln(stderr, renderError(err))
		}
		return 1
	}

	if o.dump {
		fmt.Fprint(stdout, compiler.DisassembleWithName(ops, o.path))
	}
	if o.dumpCode {
		// Bridge addresses are left zero; the listing is for inspection.
		code, err := jit.NewTranslator(jit.Bridge{}).Translate(ops)
		if err != nil {
			fmt.Fprintln(stderr, renderError(err))
			return 1
		}
		fmt.Fprint(stdout, hex.Dump(code))
	}
	return 0
}

func writeTape(path string, tape *vm.Tape) error {
	if tape == nil {
		return errors.New("no tape to write")
	}
	data, err := vm.MarshalSnapshot(tape.Snapshot())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write tape snapshot: %w", err)
	}
	return nil
}
