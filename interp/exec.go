package interp

import (
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// FlowKind tells how control leaves a statement.
type FlowKind int8

// Kinds of control flow.
const (
	FlowNone FlowKind = iota
	FlowBreak
	FlowContinue
	FlowReturn
	FlowThrow
)

// ControlFlow is the result of executing a statement. Value is set for
// FlowReturn and FlowThrow.
type ControlFlow struct {
	Kind  FlowKind
	Value runtime.Value
	node  syntax.Node // statement which caused the transfer of control
}

var next = ControlFlow{}

// execStatements executes statements in order, stopping at the first one
// which transfers control.
func (in *Interpreter) execStatements(list []syntax.Statement) (ControlFlow, error) {
	for _, stmt := range list {
		cf, err := in.exec(stmt)
		if err != nil || cf.Kind != FlowNone {
			return cf, err
		}
	}
	return next, nil
}

// execBlock executes statements within a fresh block scope.
func (in *Interpreter) execBlock(list []syntax.Statement) (ControlFlow, error) {
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	return in.execStatements(list)
}

func (in *Interpreter) exec(stmt syntax.Statement) (ControlFlow, error) {
	switch s := stmt.(type) {
	case *syntax.ExpressionStatement:
		v, err := in.eval(s.Expr)
		if err != nil {
			return next, err
		}
		in.last = v
	case *syntax.VariableDeclaration:
		v := runtime.Ast(s.Init)
		if !s.IsFormula {
			var err error
			if v, err = in.eval(s.Init); err != nil {
				return next, err
			}
		}
		in.vault.Define(s.ID, v)
	case *syntax.FunctionDeclaration:
		in.vault.Define(s.ID, runtime.Function(s))
	case *syntax.ScopeDeclaration:
		return in.declareScope(s.ID, s.Body, false)
	case *syntax.ContextDeclaration:
		return in.declareScope(s.ID, s.Body, true)
	case *syntax.BlockStatement:
		return in.execBlock(s.Body)
	case *syntax.IfStatement:
		return in.execIf(s)
	case *syntax.WhileStatement:
		return in.execLoop(s.Test, s.Body)
	case *syntax.LoopStatement:
		return in.execLoop(nil, s.Body)
	case *syntax.ForStatement:
		return in.execFor(s)
	case *syntax.TryStatement:
		return in.execTry(s)
	case *syntax.AssignStatement:
		return next, in.assign(s)
	case *syntax.ImportStatement:
		return next, in.importFile(s)
	case *syntax.ReturnStatement:
		v, err := in.evalOptional(s.Argument)
		return ControlFlow{Kind: FlowReturn, Value: v, node: s}, err
	case *syntax.ThrowStatement:
		v, err := in.eval(s.Argument)
		return ControlFlow{Kind: FlowThrow, Value: v, node: s}, err
	case *syntax.BreakStatement:
		return ControlFlow{Kind: FlowBreak, node: s}, nil
	case *syntax.ContinueStatement:
		return ControlFlow{Kind: FlowContinue, node: s}, nil
	case *syntax.YieldStatement:
		return next, in.yield(s)
	default:
		tracer().Errorf("unknown statement type %T", stmt)
	}
	return next, nil
}

func (in *Interpreter) evalOptional(expr syntax.Expression) (runtime.Value, error) {
	if expr == nil {
		return runtime.None(), nil
	}
	return in.eval(expr)
}

// declareScope evaluates the body of a scope or context declaration within a
// new named scope. A context has `this` bound to itself.
func (in *Interpreter) declareScope(id string, body []syntax.Statement, context bool) (ControlFlow, error) {
	h := in.vault.DeclareNamedScope(id)
	tracer().P("scope", in.vault.Path(h)).Debugf("declare")
	if context {
		in.vault.Define("this", runtime.ScopeRef(h))
	}
	cf, err := in.execStatements(body)
	in.vault.EndDeclaration(h, id)
	return cf, err
}

func (in *Interpreter) execIf(s *syntax.IfStatement) (ControlFlow, error) {
	test, err := in.eval(s.Test)
	if err != nil {
		return next, err
	}
	if test.AsBool() {
		return in.execBlock(s.Consequent.Body)
	}
	if s.Alternate != nil {
		return in.exec(s.Alternate)
	}
	return next, nil
}

// execLoop executes `while` loops and, if test is nil, `loop` loops. The loop
// has a block of its own, and every iteration runs in a nested block.
func (in *Interpreter) execLoop(test syntax.Expression, body *syntax.BlockStatement) (ControlFlow, error) {
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	for {
		if test != nil {
			t, err := in.eval(test)
			if err != nil {
				return next, err
			}
			if !t.AsBool() {
				return next, nil
			}
		}
		cf, err := in.execBlock(body.Body)
		if err != nil {
			return cf, err
		}
		switch cf.Kind {
		case FlowBreak:
			return next, nil
		case FlowReturn, FlowThrow:
			return cf, nil
		}
	}
}

func (in *Interpreter) execFor(s *syntax.ForStatement) (ControlFlow, error) {
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	iterable, err := in.eval(s.Iterable)
	if err != nil {
		return next, err
	}
	items, err := in.iterate(s.Iterable, iterable)
	if err != nil {
		return next, err
	}
	for _, item := range items {
		cf, err := in.iteration(s.Var, item, s.Body.Body)
		if err != nil {
			return cf, err
		}
		switch cf.Kind {
		case FlowBreak:
			return next, nil
		case FlowReturn, FlowThrow:
			return cf, nil
		}
	}
	return next, nil
}

func (in *Interpreter) iteration(name string, item runtime.Value, body []syntax.Statement) (ControlFlow, error) {
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	in.vault.Define(name, item)
	return in.execStatements(body)
}

// iterate returns the elements of a sequence, the characters of a string or
// the sorted binding names of a scope.
func (in *Interpreter) iterate(node syntax.Node, v runtime.Value) ([]runtime.Value, error) {
	switch v.Kind {
	case runtime.SequenceKind:
		return v.Seq, nil
	case runtime.StrKind:
		items := make([]runtime.Value, 0, len(v.Str))
		for _, r := range v.Str {
			items = append(items, runtime.Str(string(r)))
		}
		return items, nil
	case runtime.ScopeRefKind:
		symtab, err := in.vault.Bindings(v.Scope)
		if err != nil {
			return nil, in.locate(err, node)
		}
		names := symtab.Names()
		items := make([]runtime.Value, len(names))
		for i, name := range names {
			items[i] = runtime.Str(name)
		}
		return items, nil
	}
	return nil, in.errorf(node, symboscript.NotIterable, "cannot iterate over %s", v.Kind)
}

// execTry runs the handler of a try statement if its body throws.
func (in *Interpreter) execTry(s *syntax.TryStatement) (ControlFlow, error) {
	cf, err := in.execBlock(s.Body.Body)
	if err != nil || cf.Kind != FlowThrow {
		return cf, err
	}
	tracer().Debugf("caught %v", cf.Value)
	in.vault.EnterBlock()
	defer in.vault.ExitBlock()
	if s.CatchID != "" {
		in.vault.Define(s.CatchID, cf.Value)
	}
	return in.execStatements(s.Handler.Body)
}

func (in *Interpreter) yield(s *syntax.YieldStatement) error {
	if len(in.activations) == 0 {
		return in.errorf(s, symboscript.YieldOutside, "yield outside of a function")
	}
	v, err := in.evalOptional(s.Argument)
	if err != nil {
		return err
	}
	act := in.activations[len(in.activations)-1]
	act.yielded = true
	act.values = append(act.values, v)
	return nil
}
