package interp

import (
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// callByName resolves the callee of a call in the active scopes and invokes
// it. Arguments have been evaluated by the caller.
func (in *Interpreter) callByName(call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	callee, err := in.lookup(call, call.Callee)
	if err != nil {
		return runtime.None(), err
	}
	return in.invoke(call, callee, args)
}

func (in *Interpreter) invoke(call *syntax.CallExpression, callee runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch callee.Kind {
	case runtime.NativeKind:
		routine, ok := natives[callee.Native]
		if !ok {
			return runtime.None(), in.errorf(call, symboscript.NotCallable,
				"no native routine for `%s`", call.Callee)
		}
		tracer().Debugf("native call %s/%d", call.Callee, len(args))
		return routine(in, call, args)
	case runtime.FunctionKind:
		return in.callFunction(call, callee.Func, args)
	}
	return runtime.None(), in.errorf(call, symboscript.NotCallable,
		"`%s` is not a function, but %s", call.Callee, callee.Kind)
}

// callFunction runs the body of a function in a fresh block, with parameters
// bound to args. A thrown value is converted into an error value. A function
// which yielded values and did not return explicitly results in the sequence
// of yielded values.
func (in *Interpreter) callFunction(call *syntax.CallExpression, fn *syntax.FunctionDeclaration, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return runtime.None(), in.errorf(call, symboscript.Arity,
			"`%s` expects %d argument(s), got %d", fn.ID, len(fn.Params), len(args))
	}
	if err := in.enter(call); err != nil {
		return runtime.None(), err
	}
	defer in.leave()
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	for i, param := range fn.Params {
		in.vault.Define(param, args[i])
	}
	act := &activation{}
	in.activations = append(in.activations, act)
	defer func() {
		in.activations = in.activations[:len(in.activations)-1]
	}()
	cf, err := in.execStatements(fn.Body)
	if err != nil {
		return runtime.None(), err
	}
	switch cf.Kind {
	case FlowReturn:
		return cf.Value, nil
	case FlowThrow:
		return runtime.Err(in.display(cf.Value)), nil
	}
	if act.yielded {
		return runtime.Sequence(act.values...), nil
	}
	return runtime.None(), nil
}

// expectArgs checks the number of arguments of a native call.
func (in *Interpreter) expectArgs(call *syntax.CallExpression, args []runtime.Value, n int) error {
	if len(args) != n {
		return in.errorf(call, symboscript.Arity, "`%s` expects %d argument(s), got %d",
			call.Callee, n, len(args))
	}
	return nil
}
