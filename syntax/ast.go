package syntax

import (
	"strconv"
	"strings"

	"github.com/npillmayer/symboscript"
)

// Node is implemented by every AST node.
type Node interface {
	Span() symboscript.Span
}

// Statement is a node which executes for side effects and control flow.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a node which evaluates to a value. String renders an
// expression in a fully parenthesized form, e.g. "(1+(2*3))".
type Expression interface {
	Node
	exprNode()
	String() string
}

// Loc is embedded into every AST node and records its source span.
type Loc struct {
	Pos symboscript.Span
}

// Span is part of interface Node.
func (l Loc) Span() symboscript.Span {
	return l.Pos
}

func at(span symboscript.Span) Loc {
	return Loc{Pos: span}
}

// Program is the root of an AST.
type Program struct {
	Loc
	Body []Statement
}

// --- Statements ------------------------------------------------------------

type ExpressionStatement struct {
	Loc
	Expr Expression
}

// ReturnStatement returns from a function. Argument may be nil.
type ReturnStatement struct {
	Loc
	Argument Expression
}

type ThrowStatement struct {
	Loc
	Argument Expression
}

type ContinueStatement struct{ Loc }

type BreakStatement struct{ Loc }

// YieldStatement adds a value to the output of the enclosing function.
// Argument may be nil.
type YieldStatement struct {
	Loc
	Argument Expression
}

// VariableDeclaration binds ID in the current scope. If IsFormula is set,
// Init is bound unevaluated and re-evaluated on every read.
type VariableDeclaration struct {
	Loc
	ID        string
	Init      Expression
	IsFormula bool
}

type FunctionDeclaration struct {
	Loc
	ID      string
	Params  []string
	Body    []Statement
	IsAsync bool
}

// ScopeDeclaration declares a named scope.
type ScopeDeclaration struct {
	Loc
	ID   string
	Body []Statement
}

// ContextDeclaration declares a named scope which has `this` bound to itself.
type ContextDeclaration struct {
	Loc
	ID   string
	Body []Statement
}

// IfStatement has an optional Alternate, which is either a block or another
// if statement.
type IfStatement struct {
	Loc
	Test       Expression
	Consequent *BlockStatement
	Alternate  Statement
}

// ForStatement iterates Var over the elements of Iterable.
type ForStatement struct {
	Loc
	Var      string
	Iterable Expression
	Body     *BlockStatement
}

type WhileStatement struct {
	Loc
	Test Expression
	Body *BlockStatement
}

type LoopStatement struct {
	Loc
	Body *BlockStatement
}

type BlockStatement struct {
	Loc
	Body []Statement
}

// AssignStatement assigns to an identifier or a member expression.
type AssignStatement struct {
	Loc
	Left     Expression
	Operator AssignOperator
	Right    Expression
}

// ImportStatement imports a sibling source file into a named scope As.
type ImportStatement struct {
	Loc
	Source string
	As     string
}

// TryStatement runs Handler with CatchID bound to a thrown value.
// CatchID may be empty.
type TryStatement struct {
	Loc
	Body    *BlockStatement
	CatchID string
	Handler *BlockStatement
}

func (*ExpressionStatement) stmtNode() {}
func (*ReturnStatement) stmtNode()     {}
func (*ThrowStatement) stmtNode()      {}
func (*ContinueStatement) stmtNode()   {}
func (*BreakStatement) stmtNode()      {}
func (*YieldStatement) stmtNode()      {}
func (*VariableDeclaration) stmtNode() {}
func (*FunctionDeclaration) stmtNode() {}
func (*ScopeDeclaration) stmtNode()    {}
func (*ContextDeclaration) stmtNode()  {}
func (*IfStatement) stmtNode()         {}
func (*ForStatement) stmtNode()        {}
func (*WhileStatement) stmtNode()      {}
func (*LoopStatement) stmtNode()       {}
func (*BlockStatement) stmtNode()      {}
func (*AssignStatement) stmtNode()     {}
func (*ImportStatement) stmtNode()     {}
func (*TryStatement) stmtNode()        {}

// --- Expressions -----------------------------------------------------------

type BinaryExpression struct {
	Loc
	Left     Expression
	Operator BinaryOperator
	Right    Expression
}

type UnaryExpression struct {
	Loc
	Operator UnaryOperator
	Right    Expression
}

// ConditionalExpression is `Test ? Consequent : Alternate`.
type ConditionalExpression struct {
	Loc
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

// CallExpression calls a function by name.
type CallExpression struct {
	Loc
	Callee    string
	Arguments *SequenceExpression
}

// MemberExpression accesses Property within Object. Property is an
// identifier or a call expression, resolved inside the object. If IsExpr is
// set, Property is an arbitrary key expression (`Object[Property]`).
type MemberExpression struct {
	Loc
	Object   Expression
	Property Expression
	IsExpr   bool
}

type SequenceExpression struct {
	Loc
	Expressions []Expression
}

// WordExpression is one of `await e`, `delete name` or `new X(args)`.
type WordExpression struct {
	Loc
	Word     WordOperator
	Argument Expression
}

// Literal is a number (float64), a string, a bool or nil for None.
type Literal struct {
	Loc
	Value interface{}
}

type Identifier struct {
	Loc
	Name string
}

// NoneExpression is an empty expression, evaluating to None.
type NoneExpression struct{ Loc }

func (*BinaryExpression) exprNode()      {}
func (*UnaryExpression) exprNode()       {}
func (*ConditionalExpression) exprNode() {}
func (*CallExpression) exprNode()        {}
func (*MemberExpression) exprNode()      {}
func (*SequenceExpression) exprNode()    {}
func (*WordExpression) exprNode()        {}
func (*Literal) exprNode()               {}
func (*Identifier) exprNode()            {}
func (*NoneExpression) exprNode()        {}

func (e *BinaryExpression) String() string {
	return "(" + e.Left.String() + e.Operator.String() + e.Right.String() + ")"
}

func (e *UnaryExpression) String() string {
	return "(" + e.Operator.String() + e.Right.String() + ")"
}

func (e *ConditionalExpression) String() string {
	return "(" + e.Test.String() + " ? " + e.Consequent.String() + " : " + e.Alternate.String() + ")"
}

func (e *CallExpression) String() string {
	return e.Callee + "(" + e.Arguments.list() + ")"
}

func (e *MemberExpression) String() string {
	if e.IsExpr {
		return e.Object.String() + "[" + e.Property.String() + "]"
	}
	return e.Object.String() + "." + e.Property.String()
}

func (e *SequenceExpression) String() string {
	return "[" + e.list() + "]"
}

func (e *SequenceExpression) list() string {
	if e == nil {
		return ""
	}
	parts := make([]string, len(e.Expressions))
	for i, x := range e.Expressions {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func (e *WordExpression) String() string {
	return e.Word.String() + " " + e.Argument.String()
}

func (e *Literal) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "None"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return "?"
}

func (e *Identifier) String() string {
	return e.Name
}

func (e *NoneExpression) String() string {
	return "None"
}

// --- Operators -------------------------------------------------------------

type BinaryOperator int8

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Power
	Range
	Modulo
	And
	Or
	Xor
	BitAnd
	BitOr
	BitXor
	BitLeftShift
	BitRightShift
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
)

var binaryOperatorNames = [...]string{
	"+", "-", "*", "/", "^", "..", "%", " and ", " or ", " xor ", "&", "|", " bxor ",
	"<<", ">>", "==", "!=", "<", "<=", ">", ">=",
}

func (op BinaryOperator) String() string {
	return binaryOperatorNames[op]
}

type UnaryOperator int8

const (
	UnaryPlus UnaryOperator = iota
	UnaryMinus
	Not
	BitNot
	Increment
	Decrement
)

var unaryOperatorNames = [...]string{"+", "-", "!", "~", "++", "--"}

func (op UnaryOperator) String() string {
	return unaryOperatorNames[op]
}

// AssignOperator is `=`, `:=` or one of the compound assignments. Binary
// returns the arithmetic operator of a compound assignment.
type AssignOperator int8

const (
	AssignPlain AssignOperator = iota
	AssignFormula
	AssignAdd
	AssignSubtract
	AssignMultiply
	AssignDivide
	AssignPower
	AssignModulo
)

var assignOperatorNames = [...]string{"=", ":=", "+=", "-=", "*=", "/=", "^=", "%="}

func (op AssignOperator) String() string {
	return assignOperatorNames[op]
}

// Binary returns the binary operator applied by a compound assignment.
// The second return value is false for `=` and `:=`.
func (op AssignOperator) Binary() (BinaryOperator, bool) {
	switch op {
	case AssignAdd:
		return Add, true
	case AssignSubtract:
		return Subtract, true
	case AssignMultiply:
		return Multiply, true
	case AssignDivide:
		return Divide, true
	case AssignPower:
		return Power, true
	case AssignModulo:
		return Modulo, true
	}
	return Add, false
}

type WordOperator int8

const (
	Await WordOperator = iota
	Delete
	New
)

var wordOperatorNames = [...]string{"await", "delete", "new"}

func (op WordOperator) String() string {
	return wordOperatorNames[op]
}
