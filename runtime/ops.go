package runtime

import (
	"math"
	"strings"

	"github.com/npillmayer/symboscript/syntax"
)

// Operator table. Operands of unsupported kinds silently yield None.

// BinaryOp applies a binary operator to two evaluated operands.
func BinaryOp(op syntax.BinaryOperator, l, r Value) Value {
	switch op {
	case syntax.Add:
		return add(l, r)
	case syntax.Multiply:
		return multiply(l, r)
	case syntax.Subtract, syntax.Divide, syntax.Modulo, syntax.Power:
		if l.Kind != NumberKind || r.Kind != NumberKind {
			return None()
		}
		return Number(arith(op, l.Num, r.Num))
	case syntax.Range:
		if l.Kind != NumberKind || r.Kind != NumberKind {
			return None()
		}
		return numberRange(l.Num, r.Num)
	case syntax.BitLeftShift, syntax.BitRightShift:
		if l.Kind != NumberKind || r.Kind != NumberKind {
			return None()
		}
		a, b := toUnsigned(l.Num), toUnsigned(r.Num)
		if op == syntax.BitLeftShift {
			return Number(float64(a << b))
		}
		return Number(float64(a >> b))
	case syntax.BitAnd, syntax.BitOr, syntax.BitXor:
		return bitwise(op, l, r)
	case syntax.Eq:
		return Bool(l.Equal(r))
	case syntax.NotEq:
		return Bool(!l.Equal(r))
	case syntax.Lt, syntax.LtEq, syntax.Gt, syntax.GtEq:
		return compare(op, l, r)
	case syntax.And:
		return Bool(l.AsBool() && r.AsBool())
	case syntax.Or:
		return Bool(l.AsBool() || r.AsBool())
	case syntax.Xor:
		return Bool(l.AsBool() != r.AsBool())
	}
	return None()
}

// UnaryOp applies a unary operator to an evaluated operand.
func UnaryOp(op syntax.UnaryOperator, v Value) Value {
	switch op {
	case syntax.UnaryPlus:
		return v
	case syntax.Not:
		return Bool(!v.AsBool())
	}
	if v.Kind != NumberKind {
		return None()
	}
	switch op {
	case syntax.UnaryMinus:
		return Number(-v.Num)
	case syntax.BitNot:
		return Number(float64(^toSigned(v.Num)))
	case syntax.Increment:
		return Number(v.Num + 1)
	case syntax.Decrement:
		return Number(v.Num - 1)
	}
	return None()
}

func add(l, r Value) Value {
	switch {
	case l.Kind == NumberKind && r.Kind == NumberKind:
		return Number(l.Num + r.Num)
	case l.Kind == StrKind && r.Kind == StrKind:
		return Str(l.Str + r.Str)
	case l.Kind == StrKind && r.Kind == NumberKind:
		return Str(l.Str + FormatNumber(r.Num))
	case l.Kind == NumberKind && r.Kind == StrKind:
		return Str(FormatNumber(l.Num) + r.Str)
	case l.Kind == BoolKind && r.Kind == BoolKind:
		return Bool(l.Bool || r.Bool)
	}
	return None()
}

func multiply(l, r Value) Value {
	switch {
	case l.Kind == NumberKind && r.Kind == NumberKind:
		return Number(l.Num * r.Num)
	case l.Kind == StrKind && r.Kind == NumberKind:
		return repeat(l.Str, r.Num)
	case l.Kind == NumberKind && r.Kind == StrKind:
		return repeat(r.Str, l.Num)
	}
	return None()
}

// MaxLen is the maximum number of elements of a sequence, and of bytes of a
// string, an operator will create. Larger results are undefined.
const MaxLen = 1 << 24

// repeat concatenates n copies of s. It is None if the result would exceed
// MaxLen bytes.
func repeat(s string, n float64) Value {
	if n < 1 || math.IsNaN(n) || s == "" {
		return Str("")
	}
	if math.IsInf(n, 1) || n > float64(MaxLen/len(s)) {
		return None()
	}
	return Str(strings.Repeat(s, int(n)))
}

func arith(op syntax.BinaryOperator, a, b float64) float64 {
	switch op {
	case syntax.Subtract:
		return a - b
	case syntax.Divide:
		return a / b
	case syntax.Modulo:
		return math.Mod(a, b)
	case syntax.Power:
		return math.Pow(a, b)
	}
	return math.NaN()
}

// numberRange creates the sequence from..to, inclusive, with endpoints
// rounded. A descending range is empty, a range of more than MaxLen
// elements is None.
func numberRange(from, to float64) Value {
	a, b := math.Round(from), math.Round(to)
	if math.IsNaN(a) || math.IsNaN(b) || b < a {
		return Sequence()
	}
	n := b - a + 1
	if math.IsInf(n, 0) || math.IsNaN(n) || n > MaxLen {
		return None()
	}
	seq := make([]Value, 0, int(n))
	for x := a; x <= b; x++ {
		seq = append(seq, Number(x))
	}
	return Sequence(seq...)
}

func bitwise(op syntax.BinaryOperator, l, r Value) Value {
	if l.Kind == BoolKind && r.Kind == BoolKind {
		switch op {
		case syntax.BitAnd:
			return Bool(l.Bool && r.Bool)
		case syntax.BitOr:
			return Bool(l.Bool || r.Bool)
		}
		return Bool(l.Bool != r.Bool)
	}
	if l.Kind != NumberKind || r.Kind != NumberKind {
		return None()
	}
	a, b := toSigned(l.Num), toSigned(r.Num)
	switch op {
	case syntax.BitAnd:
		return Number(float64(a & b))
	case syntax.BitOr:
		return Number(float64(a | b))
	}
	return Number(float64(a ^ b))
}

func compare(op syntax.BinaryOperator, l, r Value) Value {
	var c int
	switch {
	case l.Kind == NumberKind && r.Kind == NumberKind:
		if math.IsNaN(l.Num) || math.IsNaN(r.Num) {
			return Bool(false)
		}
		switch {
		case l.Num < r.Num:
			c = -1
		case l.Num > r.Num:
			c = 1
		}
	case l.Kind == StrKind && r.Kind == StrKind:
		c = strings.Compare(l.Str, r.Str)
	default:
		return None()
	}
	switch op {
	case syntax.Lt:
		return Bool(c < 0)
	case syntax.LtEq:
		return Bool(c <= 0)
	case syntax.Gt:
		return Bool(c > 0)
	}
	return Bool(c >= 0)
}

// toSigned truncates a number to a signed integer.
func toSigned(n float64) int64 {
	if math.IsNaN(n) {
		return 0
	}
	return int64(n)
}

// toUnsigned truncates a number to an unsigned integer. Negative numbers
// saturate to 0.
func toUnsigned(n float64) uint64 {
	if n <= 0 || math.IsNaN(n) {
		return 0
	}
	return uint64(n)
}
