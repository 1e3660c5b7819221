package interp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pterm/pterm"

	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// Native routines. Adding a native capability requires a tag, a routine in
// the table and an injection in injectNatives.
const (
	nativePrint runtime.NativeTag = iota
	nativePrintln
	nativeStr
	nativeNum
	nativeBool
	nativeError
	nativeType
	nativeLen
	nativeToString
	nativeIsErr
	nativeToNumber
	nativeBoxLen
	nativeBoxType
	nativeHMSet
	nativeHMGet
	nativeHMDel
	nativeHMHas
	nativeHMKeys
	nativeHMValues
	nativeHMClear
	nativeHMLen
	nativeMapNew
)

type nativeFunc func(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error)

var natives map[runtime.NativeTag]nativeFunc

func init() {
	natives = map[runtime.NativeTag]nativeFunc{
		nativePrint:    ioPrint,
		nativePrintln:  ioPrintln,
		nativeStr:      unary(func(in *Interpreter, v runtime.Value) runtime.Value { return runtime.Str(in.display(v)) }),
		nativeNum:      unary(func(_ *Interpreter, v runtime.Value) runtime.Value { return toNumber(v) }),
		nativeBool:     unary(func(_ *Interpreter, v runtime.Value) runtime.Value { return runtime.Bool(v.AsBool()) }),
		nativeError:    unary(func(in *Interpreter, v runtime.Value) runtime.Value { return runtime.Err(in.display(v)) }),
		nativeType:     unary(func(_ *Interpreter, v runtime.Value) runtime.Value { return runtime.Str(v.Kind.String()) }),
		nativeLen:      unary(length),
		nativeToString: boxed(func(in *Interpreter, v runtime.Value) runtime.Value { return runtime.Str(in.display(v)) }),
		nativeIsErr:    boxed(func(_ *Interpreter, v runtime.Value) runtime.Value { return runtime.Bool(v.Kind == runtime.ErrKind) }),
		nativeToNumber: boxed(func(_ *Interpreter, v runtime.Value) runtime.Value { return toNumber(v) }),
		nativeBoxLen:   boxed(length),
		nativeBoxType:  boxed(func(_ *Interpreter, v runtime.Value) runtime.Value { return runtime.Str(v.Kind.String()) }),
		nativeHMSet:    hashmapSet,
		nativeHMGet:    hashmapGet,
		nativeHMDel:    hashmapDel,
		nativeHMHas:    hashmapHas,
		nativeHMKeys:   hashmapKeys,
		nativeHMValues: hashmapValues,
		nativeHMClear:  hashmapClear,
		nativeHMLen:    hashmapLen,
		nativeMapNew:   mapNew,
	}
}

var ioRoutines = map[string]runtime.NativeTag{
	"print":   nativePrint,
	"println": nativePrintln,
}

var conversions = map[string]runtime.NativeTag{
	"str":   nativeStr,
	"num":   nativeNum,
	"bool":  nativeBool,
	"error": nativeError,
	"type":  nativeType,
	"len":   nativeLen,
}

var hashmapRoutines = map[string]runtime.NativeTag{
	"set":    nativeHMSet,
	"get":    nativeHMGet,
	"del":    nativeHMDel,
	"has":    nativeHMHas,
	"keys":   nativeHMKeys,
	"values": nativeHMValues,
	"clear":  nativeHMClear,
	"len":    nativeHMLen,
}

// boxedValue is the key of an autoboxed primitive within its box.
const boxedValue = "$value"

// boxedMethods are the methods of autoboxed primitives.
var boxedMethods = map[string]runtime.NativeTag{
	"to_string": nativeToString,
	"is_err":    nativeIsErr,
	"to_number": nativeToNumber,
	"len":       nativeBoxLen,
	"type":      nativeBoxType,
}

// injectNatives populates the global scope:
//
//    std             named scope
//    std.io          print, println
//    std.hashmap     storage primitives for maps
//    std.str, …      conversions
//    print, str, …   I/O and conversions, directly
//    Map             named scope with constructor `new`
//
func (in *Interpreter) injectNatives() {
	v := in.vault
	std := v.DeclareNamedScope("std")
	defineAll(v, conversions)
	ioScope := v.DeclareNamedScope("io")
	defineAll(v, ioRoutines)
	v.EndDeclaration(ioScope, "io")
	hm := v.DeclareNamedScope("hashmap")
	defineAll(v, hashmapRoutines)
	v.EndDeclaration(hm, "hashmap")
	v.EndDeclaration(std, "std")
	defineAll(v, ioRoutines)
	defineAll(v, conversions)
	class := v.DeclareNamedScope("Map")
	v.Define("new", runtime.Native(nativeMapNew))
	v.EndDeclaration(class, "Map")
}

func defineAll(v *runtime.Vault, routines map[string]runtime.NativeTag) {
	for name, tag := range routines {
		v.Define(name, runtime.Native(tag))
	}
}

// Display renders a value the way print does, without colors.
func (in *Interpreter) Display(v runtime.Value) string {
	return in.display(v)
}

// display renders a value for output, with scopes shown by their path.
func (in *Interpreter) display(v runtime.Value) string {
	switch v.Kind {
	case runtime.ScopeRefKind:
		return "<scope " + in.vault.Path(v.Scope) + ">"
	case runtime.SequenceKind:
		parts := make([]string, len(v.Seq))
		for i, x := range v.Seq {
			if x.Kind == runtime.StrKind {
				parts[i] = strconv.Quote(x.Str)
			} else {
				parts[i] = in.display(x)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.String()
}

func (in *Interpreter) colorize(v runtime.Value) string {
	s := in.display(v)
	if !in.config.Color {
		return s
	}
	switch v.Kind {
	case runtime.NumberKind:
		return pterm.FgGreen.Sprint(s)
	case runtime.BoolKind:
		return pterm.NewStyle(pterm.FgBlue, pterm.Bold).Sprint(s)
	case runtime.NoneKind:
		return pterm.FgGray.Sprint(s)
	case runtime.ErrKind:
		return pterm.FgRed.Sprint(s)
	}
	return s
}

// --- I/O -------------------------------------------------------------------

func ioPrint(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	fmt.Fprint(in.config.Stdout, in.joinArgs(args))
	return runtime.None(), nil
}

func ioPrintln(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	fmt.Fprintln(in.config.Stdout, in.joinArgs(args))
	return runtime.None(), nil
}

func (in *Interpreter) joinArgs(args []runtime.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = in.colorize(arg)
	}
	return strings.Join(parts, " ")
}

// --- Conversions -----------------------------------------------------------

// unary wraps a conversion of a single argument.
func unary(f func(*Interpreter, runtime.Value) runtime.Value) nativeFunc {
	return func(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
		if err := in.expectArgs(call, args, 1); err != nil {
			return runtime.None(), err
		}
		return f(in, args[0]), nil
	}
}

// boxed wraps a method of autoboxed primitives. Called without arguments,
// the method operates on the boxed value; otherwise it behaves like a
// conversion.
func boxed(f func(*Interpreter, runtime.Value) runtime.Value) nativeFunc {
	return func(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			tag, err := in.vault.Resolve(boxedValue)
			if err != nil {
				return runtime.None(), in.errorf(call, symboscript.NotScope,
					"`%s` called on non-primitive", call.Callee)
			}
			return f(in, tag.Value), nil
		}
		if err := in.expectArgs(call, args, 1); err != nil {
			return runtime.None(), err
		}
		return f(in, args[0]), nil
	}
}

func toNumber(v runtime.Value) runtime.Value {
	switch v.Kind {
	case runtime.NumberKind:
		return v
	case runtime.BoolKind:
		if v.Bool {
			return runtime.Number(1)
		}
		return runtime.Number(0)
	case runtime.StrKind:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return runtime.None()
		}
		return runtime.Number(n)
	}
	return runtime.None()
}

func length(in *Interpreter, v runtime.Value) runtime.Value {
	switch v.Kind {
	case runtime.StrKind:
		return runtime.Number(float64(utf8.RuneCountInString(v.Str)))
	case runtime.SequenceKind:
		return runtime.Number(float64(len(v.Seq)))
	case runtime.ScopeRefKind:
		if symtab, err := in.vault.Bindings(v.Scope); err == nil {
			return runtime.Number(float64(symtab.Size()))
		}
	}
	return runtime.None()
}
