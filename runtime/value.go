package runtime

import (
	"strconv"
	"strings"

	"github.com/npillmayer/symboscript/syntax"
)

// Kind is the type tag of a value.
type Kind int8

// Kinds of values.
const (
	NoneKind Kind = iota
	NumberKind
	BoolKind
	StrKind
	SequenceKind
	AstKind
	ScopeRefKind
	NativeKind
	FunctionKind
	ErrKind
)

var kindNames = [...]string{
	"None", "number", "bool", "string", "sequence", "formula", "scope",
	"native", "function", "error",
}

func (k Kind) String() string {
	return kindNames[k]
}

// NativeTag identifies a native routine. The set of tags is fixed; package
// interp holds the routines.
type NativeTag int

// Value is a tagged union of all runtime values. Only the field matching
// Kind is valid.
//
// Values of kind AstKind hold an unevaluated expression (a formula binding),
// which is re-evaluated on every read. Values of kind ScopeRefKind are
// references: copying one aliases the named scope it denotes.
type Value struct {
	Kind   Kind
	Num    float64
	Bool   bool
	Str    string // StrKind and ErrKind
	Seq    []Value
	Expr   syntax.Expression
	Scope  Handle
	Native NativeTag
	Func   *syntax.FunctionDeclaration
}

// Constructors for values.
func None() Value { return Value{} }
func Number(n float64) Value { return Value{Kind: NumberKind, Num: n} }
func Bool(b bool) Value { return Value{Kind: BoolKind, Bool: b} }
func Str(s string) Value { return Value{Kind: StrKind, Str: s} }
func Sequence(vs ...Value) Value { return Value{Kind: SequenceKind, Seq: vs} }
func Ast(e syntax.Expression) Value { return Value{Kind: AstKind, Expr: e} }
func ScopeRef(h Handle) Value { return Value{Kind: ScopeRefKind, Scope: h} }
func Native(t NativeTag) Value { return Value{Kind: NativeKind, Native: t} }
func Err(msg string) Value { return Value{Kind: ErrKind, Str: msg} }

// Function wraps a function declaration. Functions do not capture their
// environment; free names are resolved dynamically at call time.
func Function(f *syntax.FunctionDeclaration) Value {
	return Value{Kind: FunctionKind, Func: f}
}

// IsNone is a predicate.
func (v Value) IsNone() bool {
	return v.Kind == NoneKind
}

// AsBool returns the truthiness of a value: None is false, numbers are true
// if non-zero, every other value is true.
func (v Value) AsBool() bool {
	switch v.Kind {
	case NoneKind:
		return false
	case NumberKind:
		return v.Num != 0
	case BoolKind:
		return v.Bool
	}
	return true
}

// Equal is total structural equality. Values of different kinds are never
// equal. Scope references are equal if they denote the same scope.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case NoneKind:
		return true
	case NumberKind:
		return v.Num == o.Num
	case BoolKind:
		return v.Bool == o.Bool
	case StrKind, ErrKind:
		return v.Str == o.Str
	case SequenceKind:
		if len(v.Seq) != len(o.Seq) {
			return false
		}
		for i := range v.Seq {
			if !v.Seq[i].Equal(o.Seq[i]) {
				return false
			}
		}
		return true
	case AstKind:
		return v.Expr == o.Expr
	case ScopeRefKind:
		return v.Scope == o.Scope
	case NativeKind:
		return v.Native == o.Native
	case FunctionKind:
		return v.Func == o.Func
	}
	return false
}

// FormatNumber renders a number in its shortest form: 3, 0.5, 1024.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// String renders a value for output. Strings are rendered unquoted, except
// as elements of a sequence.
func (v Value) String() string {
	switch v.Kind {
	case NoneKind:
		return "None"
	case NumberKind:
		return FormatNumber(v.Num)
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case StrKind:
		return v.Str
	case SequenceKind:
		var b strings.Builder
		b.WriteByte('[')
		for i, x := range v.Seq {
			if i > 0 {
				b.WriteString(", ")
			}
			if x.Kind == StrKind {
				b.WriteString(strconv.Quote(x.Str))
			} else {
				b.WriteString(x.String())
			}
		}
		b.WriteByte(']')
		return b.String()
	case AstKind:
		return v.Expr.String()
	case ScopeRefKind:
		return "<scope " + v.Scope.String() + ">"
	case NativeKind:
		return "<native fn>"
	case FunctionKind:
		return "<fn " + v.Func.ID + ">"
	case ErrKind:
		return "error: " + v.Str
	}
	return "?"
}
