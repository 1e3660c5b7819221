/*
Command symbo runs SymboScript programs.

Usage

    symbo [flags] [file]

With a file argument, symbo executes the file and exits with status 1 if
the program fails. Without one, symbo starts an interactive session (REPL),
where statements are evaluated line by line against a persistent global
scope. Quit with <ctrl>D.

Flags

    -trace Error     trace level [Debug|Info|Error]
    -config file     settings file (YAML); default is symbo.yaml next to the script
    -color           colorize output
    -maxdepth n      maximum nesting of calls

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/interp"
	"github.com/pterm/pterm"
)

// tracer traces with key 'symbo.cli'.
func tracer() tracing.Trace {
	return tracing.Select("symbo.cli")
}

func main() {
	initDisplay()
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	configFile := flag.String("config", "", "Settings file (YAML)")
	color := flag.Bool("color", true, "Colorize output")
	maxDepth := flag.Int("maxdepth", 0, "Maximum nesting of calls")
	flag.Parse()
	script := flag.Arg(0)
	settings, err := loadSettings(*configFile, script)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) { // flags given on the command line take precedence
		switch f.Name {
		case "color":
			settings.Color = *color
		case "maxdepth":
			settings.MaxDepth = *maxDepth
		}
	})
	if err = settings.configureTracing(*tlevel); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	in, err := interp.New(settings.interpreterConfig())
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	if script == "" {
		repl, err := newREPL(in, settings)
		if err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(3)
		}
		repl.Loop()
		return
	}
	if err := runFile(in, script, settings.Color); err != nil {
		os.Exit(1)
	}
}

// runFile executes a script. Diagnostics are printed to stderr.
func runFile(in *interp.Interpreter, path string, color bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}
	tracer().P("file", path).Infof("run")
	if err = in.Run(path, string(source)); err != nil {
		fmt.Fprintln(os.Stderr, symboscript.FormatError(err, color))
	}
	return err
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
