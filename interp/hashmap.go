package interp

import (
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// Maps are named scopes. Every instance owns a scope `entries` which holds
// the map's entries as bindings, keyed by the string form of the key. The
// methods of an instance are defined by the prelude, which is executed within
// the scope of every new instance.

func mapNew(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	if err := in.expectArgs(call, args, 0); err != nil {
		return runtime.None(), err
	}
	v := in.vault
	h, err := v.NewOwnedScope(v.Owner(), "Map")
	if err != nil {
		return runtime.None(), in.locate(err, call)
	}
	entries, err := v.NewOwnedScope(h, "entries")
	if err != nil {
		return runtime.None(), in.locate(err, call)
	}
	v.DefineIn(h, "this", runtime.ScopeRef(h))
	v.DefineIn(h, "entries", runtime.ScopeRef(entries))
	if err = v.EnterNamed(h); err != nil {
		return runtime.None(), in.locate(err, call)
	}
	defer v.ExitNamed()
	in.files = append(in.files, sourceFile{path: preludePath, source: preludeSource})
	defer func() { in.files = in.files[:len(in.files)-1] }()
	if _, err = in.execStatements(in.prelude.Body); err != nil {
		return runtime.None(), err
	}
	tracer().P("map", v.Path(h)).Debugf("new")
	return runtime.ScopeRef(h), nil
}

// entriesOf checks the arguments of a hashmap primitive. The first argument
// has to reference the entries scope of a map.
func (in *Interpreter) entriesOf(call *syntax.CallExpression, args []runtime.Value, n int) (*runtime.SymbolTable, runtime.Handle, error) {
	if err := in.expectArgs(call, args, n); err != nil {
		return nil, runtime.Handle{}, err
	}
	if args[0].Kind != runtime.ScopeRefKind {
		return nil, runtime.Handle{}, in.errorf(call, symboscript.NotScope,
			"`%s` expects a map, got %s", call.Callee, args[0].Kind)
	}
	symtab, err := in.vault.Bindings(args[0].Scope)
	if err != nil {
		return nil, runtime.Handle{}, in.locate(err, call)
	}
	return symtab, args[0].Scope, nil
}

func hashmapSet(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	_, h, err := in.entriesOf(call, args, 3)
	if err != nil {
		return runtime.None(), err
	}
	if _, err = in.vault.DefineIn(h, args[1].String(), args[2]); err != nil {
		return runtime.None(), in.locate(err, call)
	}
	return runtime.None(), nil
}

func hashmapGet(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 2)
	if err != nil {
		return runtime.None(), err
	}
	if tag := symtab.ResolveTag(args[1].String()); tag != nil {
		return tag.Value, nil
	}
	return runtime.None(), nil
}

func hashmapDel(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 2)
	if err != nil {
		return runtime.None(), err
	}
	return runtime.Bool(symtab.RemoveTag(args[1].String()) != nil), nil
}

func hashmapHas(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 2)
	if err != nil {
		return runtime.None(), err
	}
	return runtime.Bool(symtab.ResolveTag(args[1].String()) != nil), nil
}

func hashmapKeys(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 1)
	if err != nil {
		return runtime.None(), err
	}
	names := symtab.Names()
	keys := make([]runtime.Value, len(names))
	for i, name := range names {
		keys[i] = runtime.Str(name)
	}
	return runtime.Sequence(keys...), nil
}

func hashmapValues(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 1)
	if err != nil {
		return runtime.None(), err
	}
	values := make([]runtime.Value, 0, symtab.Size())
	symtab.Each(func(name string, tag *runtime.Tag) {
		values = append(values, tag.Value)
	})
	return runtime.Sequence(values...), nil
}

func hashmapClear(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 1)
	if err != nil {
		return runtime.None(), err
	}
	symtab.Clear()
	return runtime.None(), nil
}

func hashmapLen(in *Interpreter, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	symtab, _, err := in.entriesOf(call, args, 1)
	if err != nil {
		return runtime.None(), err
	}
	return runtime.Number(float64(symtab.Size())), nil
}
