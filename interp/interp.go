/*
Package interp implements a tree-walking interpreter for SymboScript.

Programs are executed directly on the AST produced by package syntax. All
variables live in the vault of package runtime; the interpreter calls into
it for every read, write and scope transition. Native routines (I/O,
conversions, hash maps) are called through a fixed table of tags.

Usage

    in, err := interp.New(interp.DefaultConfig())
    …
    err = in.Run("hello.syms", `println("Hello", 1 + 2);`)

Errors returned by the interpreter are of type *symboscript.Error and may be
categorized with errors.Is, e.g. errors.Is(err, symboscript.UnboundName).


License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// tracer traces with key 'symbo.interp'.
func tracer() tracing.Trace {
	return tracing.Select("symbo.interp")
}

// Config configures an interpreter.
type Config struct {
	MaxDepth int         // maximum nesting of calls, formula reads and imports
	Stdout   io.Writer   // output of print and println
	Stderr   io.Writer   // output of the default Report function
	Color    bool        // colorize output and diagnostics
	Report   func(error) // receives recoverable diagnostics, e.g. failed imports
}

// DefaultConfig returns a configuration writing to the standard output
// streams.
func DefaultConfig() Config {
	return Config{
		MaxDepth: 1000,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Interpreter executes SymboScript programs. It is not safe for concurrent
// use.
type Interpreter struct {
	config      Config
	vault       *runtime.Vault
	files       []sourceFile  // stack of files being executed
	activations []*activation // stack of function calls
	depth       int
	last        runtime.Value // value of the last expression statement
	prelude     *syntax.Program
}

type sourceFile struct {
	path   string
	source string
}

// activation collects the values yielded by a function call.
type activation struct {
	yielded bool
	values  []runtime.Value
}

// New creates an interpreter. Missing fields of config are filled in from
// DefaultConfig.
func New(config Config) (*Interpreter, error) {
	def := DefaultConfig()
	if config.MaxDepth <= 0 {
		config.MaxDepth = def.MaxDepth
	}
	if config.Stdout == nil {
		config.Stdout = def.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = def.Stderr
	}
	in := &Interpreter{config: config}
	if in.config.Report == nil {
		in.config.Report = func(err error) {
			fmt.Fprintln(in.config.Stderr, symboscript.FormatError(err, in.config.Color))
		}
	}
	prelude, err := syntax.Parse(preludePath, preludeSource)
	if err != nil {
		return nil, fmt.Errorf("cannot parse prelude: %w", err)
	}
	in.prelude = prelude
	return in, nil
}

// Vault returns the scope store of the interpreter. It is nil before the
// first program has been started.
func (in *Interpreter) Vault() *runtime.Vault {
	return in.vault
}

// Run parses and executes a program against a fresh vault. The vault is torn
// down afterwards.
func (in *Interpreter) Run(path, source string) error {
	prog, err := syntax.Parse(path, source)
	if err != nil {
		return attachSource(err, path, source)
	}
	in.Start(path, source)
	defer in.Stop()
	_, err = in.Eval(prog)
	return err
}

// Start prepares a fresh vault for a sequence of calls to Eval, e.g. for a
// REPL session. source is the text spans of subsequent programs refer to; it
// may be extended with AppendSource.
func (in *Interpreter) Start(path, source string) {
	in.vault = runtime.NewVault()
	in.files = []sourceFile{{path: path, source: source}}
	in.activations = nil
	in.depth = 0
	in.vault.EnterBlock() // global scope
	in.injectNatives()
	tracer().P("file", path).Debugf("started, %d records live", in.vault.Live())
}

// Stop tears down the vault. Every scope record is freed.
func (in *Interpreter) Stop() {
	if in.vault == nil || in.vault.Depth() == 0 {
		return
	}
	if d := in.vault.Depth(); d > 1 {
		tracer().Errorf("unbalanced scope stack, depth = %d", d)
	}
	in.vault.Unwind(0)
	if n := in.vault.Live(); n > 0 {
		tracer().Errorf("vault leaks %d records", n)
	}
}

// AppendSource extends the source text of the outermost file. It returns the
// offset of the appended text, to be used with syntax.Offset.
func (in *Interpreter) AppendSource(text string) uint64 {
	if len(in.files) == 0 {
		in.files = []sourceFile{{path: "<input>"}}
	}
	offset := uint64(len(in.files[0].source))
	in.files[0].source += text
	return offset
}

// Source returns path and text of the outermost file.
func (in *Interpreter) Source() (string, string) {
	if len(in.files) == 0 {
		return "", ""
	}
	return in.files[0].path, in.files[0].source
}

// Eval executes a program against the current vault. Top-level statements
// run in the global scope, so their bindings persist between calls. Eval
// returns the value of the last expression statement executed.
func (in *Interpreter) Eval(prog *syntax.Program) (runtime.Value, error) {
	if in.vault == nil {
		in.Start("<input>", "")
	}
	in.last = runtime.None()
	in.depth = 0
	cf, err := in.execStatements(prog.Body)
	if err != nil {
		return runtime.None(), err
	}
	if cf.Kind == FlowThrow {
		return runtime.None(), in.errorf(cf.node, symboscript.UncaughtThrow,
			"uncaught throw of %s", in.display(cf.Value))
	}
	if cf.Kind == FlowReturn {
		return cf.Value, nil
	}
	return in.last, nil
}

// --- Diagnostics -----------------------------------------------------------

func (in *Interpreter) currentFile() sourceFile {
	if len(in.files) == 0 {
		return sourceFile{}
	}
	return in.files[len(in.files)-1]
}

// errorf creates a diagnostic located at node, within the current file.
func (in *Interpreter) errorf(node syntax.Node, kind symboscript.ErrorKind, format string, args ...interface{}) error {
	var span symboscript.Span
	if node != nil {
		span = node.Span()
	}
	f := in.currentFile()
	return symboscript.Errorf(kind, span, format, args...).WithSource(f.path, f.source)
}

// locate attaches a position to diagnostics from the vault, which do not know
// about source code.
func (in *Interpreter) locate(err error, node syntax.Node) error {
	var serr *symboscript.Error
	if errors.As(err, &serr) && serr.Source == "" {
		if serr.Span.IsNull() && node != nil {
			serr.Span = node.Span()
		}
		f := in.currentFile()
		serr.WithSource(f.path, f.source)
	}
	return err
}

func attachSource(err error, path, source string) error {
	var serr *symboscript.Error
	if errors.As(err, &serr) {
		serr.WithSource(path, source)
	}
	return err
}

// enter guards against runaway recursion.
func (in *Interpreter) enter(node syntax.Node) error {
	in.depth++
	if in.depth > in.config.MaxDepth {
		in.depth--
		return in.errorf(node, symboscript.DepthExceeded, "maximum depth of %d exceeded",
			in.config.MaxDepth)
	}
	return nil
}

func (in *Interpreter) leave() {
	in.depth--
}
