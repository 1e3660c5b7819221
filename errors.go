package symboscript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorKind categorizes diagnostics. ErrorKind implements error, so clients may
// test for a category with errors.Is:
//
//     if errors.Is(err, symboscript.UnboundName) { … }
//
type ErrorKind int

// Categories of diagnostics.
const (
	NoError ErrorKind = iota
	Lexical
	Syntax
	UnboundName
	NotCallable
	Arity
	NotScope
	StaleHandle
	NotIterable
	UncaughtThrow
	YieldOutside
	DepthExceeded
	Import
)

var errorKindNames = [...]string{
	"no error", "lexical error", "syntax error", "unbound name", "not callable",
	"wrong number of arguments", "not a scope", "stale scope handle", "not iterable",
	"uncaught throw", "yield outside of function", "recursion too deep", "import failed",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return fmt.Sprintf("error(%d)", int(k))
	}
	return errorKindNames[k]
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is a diagnostic produced by the lexer, the parser or the interpreter.
// It carries everything needed to render a source-annotated report: the path
// and text of the file being executed, a message and the offending span.
type Error struct {
	Kind    ErrorKind
	Path    string
	Source  string
	Message string
	Span    Span
}

// Errorf creates a diagnostic for a span. Path and source are usually filled
// in later, by the component which knows about the file being processed.
func Errorf(kind ErrorKind, span Span, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

// WithSource sets path and source text, if not already present.
// Returns the error (for chaining).
func (e *Error) WithSource(path, source string) *Error {
	if e.Path == "" && e.Source == "" {
		e.Path = path
		e.Source = source
	}
	return e
}

func (e *Error) Error() string {
	line, col, _, _ := e.Position()
	if e.Path == "" {
		return fmt.Sprintf("%d:%d: %s", line, col, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, line, col, e.Message)
}

// Unwrap returns the category of the error.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Position calculates 1-based line and column numbers for the start and the
// end of the error span.
func (e *Error) Position() (line, col, endLine, endCol int) {
	start, end := e.clampedSpan()
	line, col = lineCol(e.Source, start)
	endLine, endCol = lineCol(e.Source, end)
	return
}

func (e *Error) clampedSpan() (int, int) {
	n := uint64(len(e.Source))
	start, end := e.Span.From(), e.Span.To()
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return int(start), int(end)
}

func lineCol(source string, pos int) (int, int) {
	before := source[:pos]
	line := strings.Count(before, "\n") + 1
	col := pos - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}

// Format renders the error as a source-annotated report:
//
//    --> path/file.syms:3:9-3:12
//    3 | let y = foo + 1;
//                ^^^ unbound name `foo`
//
// If color is set, the report is styled for terminal output.
func (e *Error) Format(color bool) string {
	line, col, endLine, endCol := e.Position()
	start, end := e.clampedSpan()
	header := fmt.Sprintf("--> %s:%d:%d-%d:%d", e.Path, line, col, endLine, endCol)
	lineNo := fmt.Sprintf("%d |", line)
	lineStart := strings.LastIndexByte(e.Source[:start], '\n') + 1
	near := e.Source[lineStart:]
	if nl := strings.IndexByte(near, '\n'); nl >= 0 {
		near = near[:nl]
	}
	near = strings.TrimRight(near, " \t\r")
	width := end - start
	if rest := len(near) - (col - 1); width > rest {
		width = rest
	}
	if width < 1 {
		width = 1
	}
	pointer := strings.Repeat(" ", len(lineNo)+col) + strings.Repeat("^", width)
	msg := e.Message
	if e.Kind != NoError {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if color {
		blue := pterm.NewStyle(pterm.FgBlue, pterm.Bold)
		red := pterm.NewStyle(pterm.FgRed, pterm.Bold)
		header, lineNo = blue.Sprint(header), blue.Sprint(lineNo)
		pointer, msg = red.Sprint(pointer), red.Sprint(msg)
	}
	return fmt.Sprintf("%s\n%s %s\n%s %s", header, lineNo, near, pointer, msg)
}

// FormatError renders an error for display. Diagnostics carrying source text
// are rendered as a source-annotated report, others by their message.
func FormatError(err error, color bool) string {
	var e *Error
	if errors.As(err, &e) && e.Source != "" {
		return e.Format(color)
	}
	if color {
		return pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(err.Error())
	}
	return err.Error()
}
