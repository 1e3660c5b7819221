package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/interp"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
	"github.com/pterm/pterm"
)

// replPath is the file name diagnostics of interactive input refer to.
const replPath = "<repl>"

// REPL is an interactive session. All input lines are collected into a
// single source buffer, so diagnostics may refer to earlier lines.
type REPL struct {
	in    *interp.Interpreter
	rl    *readline.Instance
	color bool
}

// newREPL starts a session with line editing.
func newREPL(in *interp.Interpreter, settings *Settings) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "symbo> ",
		HistoryFile: settings.History,
	})
	if err != nil {
		return nil, err
	}
	r := newSession(in, settings.Color)
	r.rl = rl
	pterm.Info.Println("Welcome to SymboScript") // colored welcome message
	return r, nil
}

// newSession starts a session without a terminal attached.
func newSession(in *interp.Interpreter, color bool) *REPL {
	in.Start(replPath, "")
	return &REPL{in: in, color: color}
}

// Loop reads and evaluates input until the user quits.
func (r *REPL) Loop() {
	defer r.in.Stop()
	defer r.rl.Close()
	tracer().Infof("Quit with <ctrl>D") // inform user how to stop the CLI
	for {
		line, err := r.rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if quit := r.Eval(line); quit {
			break
		}
	}
	fmt.Println("Good bye!")
}

// Eval evaluates a line of input, either a command starting with ':' or
// SymboScript statements. It returns true if the session should end.
func (r *REPL) Eval(line string) bool {
	if strings.HasPrefix(line, ":") {
		return r.command(strings.Fields(line[1:]))
	}
	v, err := r.evaluate(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, symboscript.FormatError(err, r.color))
		return false
	}
	if !v.IsNone() {
		pterm.Info.Println(r.in.Display(v))
	}
	return false
}

// evaluate appends a line to the session's source and executes it.
func (r *REPL) evaluate(line string) (runtime.Value, error) {
	text := completeStatement(line) + "\n"
	offset := r.in.AppendSource(text)
	prog, err := syntax.Parse(replPath, text, syntax.Offset(offset))
	if err != nil {
		var serr *symboscript.Error
		if errors.As(err, &serr) {
			serr.WithSource(r.in.Source())
		}
		return runtime.None(), err
	}
	return r.in.Eval(prog)
}

// completeStatement adds a missing ';' to a line of input.
func completeStatement(line string) string {
	if strings.HasSuffix(line, ";") || strings.HasSuffix(line, "}") {
		return line
	}
	return line + ";"
}

func (r *REPL) command(args []string) bool {
	if len(args) == 0 {
		args = []string{"help"}
	}
	switch args[0] {
	case "quit", "q":
		return true
	case "vault":
		v := r.in.Vault()
		pterm.Println("vault")
		root := pterm.NewTreeFromLeveledList(vaultTree(v.Snapshot()))
		pterm.DefaultTree.WithRoot(root).Render()
		pterm.Info.Printf("%d records live, fingerprint %s\n", v.Live(), v.Fingerprint())
	case "source":
		_, source := r.in.Source()
		pterm.Println(source)
	case "help":
		pterm.Info.Println(":vault  show live scopes  |  :source  show input  |  :quit")
	default:
		pterm.Error.Printf("unknown command :%s\n", args[0])
	}
	return false
}

// vaultTree arranges the records of a vault snapshot by nesting. Records are
// ordered by path, which places every scope in front of its children.
func vaultTree(records []runtime.RecordInfo) pterm.LeveledList {
	var ll pterm.LeveledList
	for _, rec := range records {
		text := rec.Path
		if len(rec.Names) > 0 {
			text += "  " + strings.Join(rec.Names, " ")
		}
		ll = append(ll, pterm.LeveledListItem{
			Level: strings.Count(rec.Path, "$") - 1,
			Text:  text,
		})
	}
	return ll
}
