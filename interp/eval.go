package interp

import (
	"math"

	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

func (in *Interpreter) eval(expr syntax.Expression) (runtime.Value, error) {
	switch e := expr.(type) {
	case *syntax.Literal:
		return literal(e), nil
	case *syntax.Identifier:
		return in.lookup(e, e.Name)
	case *syntax.BinaryExpression:
		l, err := in.eval(e.Left)
		if err != nil {
			return l, err
		}
		r, err := in.eval(e.Right)
		if err != nil {
			return r, err
		}
		return runtime.BinaryOp(e.Operator, l, r), nil
	case *syntax.UnaryExpression:
		v, err := in.eval(e.Right)
		if err != nil {
			return v, err
		}
		return runtime.UnaryOp(e.Operator, v), nil
	case *syntax.ConditionalExpression:
		test, err := in.eval(e.Test)
		if err != nil {
			return test, err
		}
		if test.AsBool() {
			return in.eval(e.Consequent)
		}
		return in.eval(e.Alternate)
	case *syntax.SequenceExpression:
		values, err := in.evalList(e)
		return runtime.Sequence(values...), err
	case *syntax.CallExpression:
		args, err := in.evalList(e.Arguments)
		if err != nil {
			return runtime.None(), err
		}
		return in.callByName(e, args)
	case *syntax.MemberExpression:
		return in.member(e)
	case *syntax.WordExpression:
		return in.word(e)
	case *syntax.NoneExpression:
		return runtime.None(), nil
	}
	tracer().Errorf("unknown expression type %T", expr)
	return runtime.None(), nil
}

func literal(e *syntax.Literal) runtime.Value {
	switch v := e.Value.(type) {
	case float64:
		return runtime.Number(v)
	case string:
		return runtime.Str(v)
	case bool:
		return runtime.Bool(v)
	}
	return runtime.None()
}

func (in *Interpreter) evalList(seq *syntax.SequenceExpression) ([]runtime.Value, error) {
	if seq == nil {
		return nil, nil
	}
	values := make([]runtime.Value, 0, len(seq.Expressions))
	for _, x := range seq.Expressions {
		v, err := in.eval(x)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// lookup resolves a name in the active scopes. Formulas are evaluated.
func (in *Interpreter) lookup(node syntax.Node, name string) (runtime.Value, error) {
	tag, err := in.vault.Resolve(name)
	if err != nil {
		return runtime.None(), in.locate(err, node)
	}
	return in.deref(node, tag.Value)
}

// deref evaluates a formula binding in the current scope. Other values are
// returned unchanged.
func (in *Interpreter) deref(node syntax.Node, v runtime.Value) (runtime.Value, error) {
	if v.Kind != runtime.AstKind {
		return v, nil
	}
	if err := in.enter(node); err != nil {
		return runtime.None(), err
	}
	defer in.leave()
	return in.eval(v.Expr)
}

func (in *Interpreter) word(e *syntax.WordExpression) (runtime.Value, error) {
	switch e.Word {
	case syntax.Await:
		return in.eval(e.Argument)
	case syntax.Delete:
		id, ok := e.Argument.(*syntax.Identifier)
		if !ok {
			return runtime.None(), in.errorf(e, symboscript.Syntax, "can only delete names")
		}
		if !in.vault.Unbind(id.Name) {
			return runtime.None(), in.errorf(id, symboscript.UnboundName, "`%s` is not defined", id.Name)
		}
		return runtime.None(), nil
	case syntax.New:
		call, ok := e.Argument.(*syntax.CallExpression)
		if !ok {
			return runtime.None(), in.errorf(e, symboscript.Syntax, "expected constructor call")
		}
		args, err := in.evalList(call.Arguments)
		if err != nil {
			return runtime.None(), err
		}
		class, err := in.lookup(call, call.Callee)
		if err != nil {
			return runtime.None(), err
		}
		ctor := &syntax.CallExpression{Callee: "new", Arguments: call.Arguments}
		ctor.Pos = call.Pos
		return in.callIn(call, class, ctor, args)
	}
	return runtime.None(), nil
}

// --- Members ---------------------------------------------------------------

// member evaluates `obj.name`, `obj.f(args)` and `obj[key]`. Keys and
// arguments are evaluated in the caller's scope, before the object's scope
// is entered.
func (in *Interpreter) member(e *syntax.MemberExpression) (runtime.Value, error) {
	obj, err := in.eval(e.Object)
	if err != nil {
		return obj, err
	}
	if e.IsExpr {
		key, err := in.eval(e.Property)
		if err != nil {
			return key, err
		}
		return in.index(e, obj, key)
	}
	switch p := e.Property.(type) {
	case *syntax.Identifier:
		return in.property(e, obj, p.Name)
	case *syntax.CallExpression:
		args, err := in.evalList(p.Arguments)
		if err != nil {
			return runtime.None(), err
		}
		return in.callIn(e, obj, p, args)
	}
	return runtime.None(), in.errorf(e.Property, symboscript.Syntax, "invalid member %s", e.Property)
}

// property reads a member of a scope or of an autoboxed primitive.
func (in *Interpreter) property(e syntax.Node, obj runtime.Value, name string) (runtime.Value, error) {
	if obj.Kind == runtime.ScopeRefKind {
		if err := in.vault.EnterNamed(obj.Scope); err != nil {
			return runtime.None(), in.locate(err, e)
		}
		defer in.vault.ExitNamed()
		return in.lookup(e, name)
	}
	if !boxable(obj) {
		return runtime.None(), in.errorf(e, symboscript.NotScope, "%s is not a scope", obj.Kind)
	}
	box := in.box(obj)
	defer in.vault.ExitBoxed()
	tag, err := in.vault.Lookup(box, name)
	if err != nil || tag == nil {
		return runtime.None(), in.errorf(e, symboscript.UnboundName, "%s has no member `%s`", obj.Kind, name)
	}
	return tag.Value, nil
}

// callIn calls a function within the scope of obj, either a named scope or an
// autoboxed primitive.
func (in *Interpreter) callIn(e syntax.Node, obj runtime.Value, call *syntax.CallExpression, args []runtime.Value) (runtime.Value, error) {
	if obj.Kind == runtime.ScopeRefKind {
		if err := in.vault.EnterNamed(obj.Scope); err != nil {
			return runtime.None(), in.locate(err, e)
		}
		defer in.vault.ExitNamed()
		return in.callByName(call, args)
	}
	if !boxable(obj) {
		return runtime.None(), in.errorf(call, symboscript.NotScope, "%s is not a scope", obj.Kind)
	}
	box := in.box(obj)
	defer in.vault.ExitBoxed()
	tag, err := in.vault.Lookup(box, call.Callee)
	if err != nil || tag == nil {
		return runtime.None(), in.errorf(call, symboscript.UnboundName, "%s has no method `%s`", obj.Kind, call.Callee)
	}
	return in.invoke(call, tag.Value, args)
}

// boxable is true for primitives. Functions have no members.
func boxable(v runtime.Value) bool {
	return v.Kind != runtime.FunctionKind && v.Kind != runtime.NativeKind
}

// box enters a transient scope holding a primitive value under `$value`,
// together with the methods for primitives.
func (in *Interpreter) box(v runtime.Value) runtime.Handle {
	h := in.vault.EnterBoxed()
	in.vault.Define(boxedValue, v)
	for name, tag := range boxedMethods {
		in.vault.Define(name, runtime.Native(tag))
	}
	return h
}

// index evaluates `obj[key]`. Sequences and strings are indexed by number,
// scopes by the string form of key. Missing entries yield None.
func (in *Interpreter) index(e *syntax.MemberExpression, obj, key runtime.Value) (runtime.Value, error) {
	switch obj.Kind {
	case runtime.SequenceKind:
		if i, ok := position(key, len(obj.Seq)); ok {
			return obj.Seq[i], nil
		}
		return runtime.None(), nil
	case runtime.StrKind:
		chars := []rune(obj.Str)
		if i, ok := position(key, len(chars)); ok {
			return runtime.Str(string(chars[i])), nil
		}
		return runtime.None(), nil
	case runtime.ScopeRefKind:
		tag, err := in.vault.Lookup(obj.Scope, key.String())
		if err != nil {
			return runtime.None(), in.locate(err, e)
		}
		if tag == nil {
			return runtime.None(), nil
		}
		if tag.Value.Kind == runtime.AstKind {
			return in.property(e, obj, key.String())
		}
		return tag.Value, nil
	}
	return runtime.None(), in.errorf(e.Object, symboscript.NotScope, "cannot index %s", obj.Kind)
}

func position(key runtime.Value, length int) (int, bool) {
	if key.Kind != runtime.NumberKind || math.IsNaN(key.Num) {
		return 0, false
	}
	i := int(key.Num)
	return i, i >= 0 && i < length
}

// --- Assignment ------------------------------------------------------------

func (in *Interpreter) assign(s *syntax.AssignStatement) error {
	compute := func(current func() (runtime.Value, error)) (runtime.Value, error) {
		if s.Operator == syntax.AssignFormula {
			return runtime.Ast(s.Right), nil
		}
		r, err := in.eval(s.Right)
		if err != nil {
			return r, err
		}
		op, compound := s.Operator.Binary()
		if !compound {
			return r, nil
		}
		l, err := current()
		if err != nil {
			return l, err
		}
		return runtime.BinaryOp(op, l, r), nil
	}
	switch left := s.Left.(type) {
	case *syntax.Identifier:
		tag, err := in.vault.Resolve(left.Name)
		if err != nil {
			return in.locate(err, left)
		}
		v, err := compute(func() (runtime.Value, error) {
			return in.deref(left, tag.Value)
		})
		if err != nil {
			return err
		}
		tag.Value = v
		return nil
	case *syntax.MemberExpression:
		return in.assignMember(left, compute)
	}
	return in.errorf(s.Left, symboscript.Syntax, "cannot assign to %s", s.Left)
}

func (in *Interpreter) assignMember(left *syntax.MemberExpression,
	compute func(func() (runtime.Value, error)) (runtime.Value, error)) error {
	//
	obj, err := in.eval(left.Object)
	if err != nil {
		return err
	}
	var name string
	var key runtime.Value
	if left.IsExpr {
		if key, err = in.eval(left.Property); err != nil {
			return err
		}
		name = key.String()
	} else if id, ok := left.Property.(*syntax.Identifier); ok {
		name = id.Name
	} else {
		return in.errorf(left.Property, symboscript.Syntax, "cannot assign to %s", left.Property)
	}
	switch {
	case obj.Kind == runtime.ScopeRefKind:
		v, err := compute(func() (runtime.Value, error) {
			tag, err := in.vault.Lookup(obj.Scope, name)
			if err != nil || tag == nil {
				return runtime.None(), in.locate(err, left)
			}
			return in.property(left, obj, name)
		})
		if err != nil {
			return err
		}
		_, err = in.vault.DefineIn(obj.Scope, name, v)
		return in.locate(err, left)
	case obj.Kind == runtime.SequenceKind && left.IsExpr:
		id, ok := left.Object.(*syntax.Identifier)
		i, inRange := position(key, len(obj.Seq))
		if !ok || !inRange {
			return in.errorf(left, symboscript.NotScope, "cannot assign to %s", left)
		}
		v, err := compute(func() (runtime.Value, error) { return obj.Seq[i], nil })
		if err != nil {
			return err
		}
		tag, err := in.vault.Resolve(id.Name)
		if err != nil {
			return in.locate(err, id)
		}
		seq := make([]runtime.Value, len(obj.Seq))
		copy(seq, obj.Seq)
		seq[i] = v
		tag.Value = runtime.Sequence(seq...)
		return nil
	}
	return in.errorf(left.Object, symboscript.NotScope, "%s is not a scope", obj.Kind)
}
