package syntax

import (
	"errors"
	"strconv"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/symboscript"
)

// tracer traces with key 'symbo.syntax'.
func tracer() tracing.Trace {
	return tracing.Select("symbo.syntax")
}

// Option configures a parse run.
type Option func(*parser)

// Offset shifts all spans by n bytes. It is used for input which is part of
// a larger buffer, e.g. a REPL session. Errors of a parse with an offset are
// returned without source, as the caller holds the buffer spans refer to.
func Offset(n uint64) Option {
	return func(p *parser) {
		p.offset = n
	}
}

// Parse parses a SymboScript program. path is used for diagnostics only.
// Errors are of type *symboscript.Error with kind Lexical or Syntax.
func Parse(path, source string, opts ...Option) (prog *Program, err error) {
	p := &parser{path: path}
	for _, opt := range opts {
		opt(p)
	}
	if err = p.init(source); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.attach(p.err)
		}
	}()
	prog = p.program()
	tracer().Debugf("parsed %s: %d statements", path, len(prog.Body))
	return prog, nil
}

// ParseExpression parses a single expression, optionally terminated by ';'.
func ParseExpression(source string) (expr Expression, err error) {
	p := &parser{path: "<expr>"}
	if err = p.init(source); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			expr, err = nil, p.attach(p.err)
		}
	}()
	expr = p.expression()
	p.accept(Semicolon)
	if !p.at(EOF) {
		p.unexpected("end of expression")
	}
	return expr, nil
}

// --- Parser state ----------------------------------------------------------

type bailout struct{}

type parser struct {
	path   string
	source string
	tokens []symboscript.Token
	pos    int
	eof    symboscript.Token
	offset uint64
	err    *symboscript.Error
}

type eofToken struct {
	span symboscript.Span
}

func (t eofToken) TokType() symboscript.TokType { return EOF }
func (t eofToken) Lexeme() string               { return "" }
func (t eofToken) Value() interface{}           { return nil }
func (t eofToken) Span() symboscript.Span       { return t.span }

func (p *parser) init(source string) error {
	p.source = source
	tokens, err := Tokenize(source)
	if err != nil {
		var lexErr *symboscript.Error
		if errors.As(err, &lexErr) {
			lexErr.Span = lexErr.Span.Shift(p.offset)
		}
		return p.attach(err)
	}
	p.tokens = tokens
	end := uint64(len(source)) + p.offset
	p.eof = eofToken{symboscript.Span{end, end}}
	return nil
}

// attach sets path and source of a diagnostic. Spans are already shifted. For
// input with an offset, the caller holds the complete source and attaches it.
func (p *parser) attach(err error) error {
	var serr *symboscript.Error
	if !errors.As(err, &serr) {
		return err
	}
	if p.offset == 0 {
		serr.WithSource(p.path, p.source)
	}
	return serr
}

func (p *parser) cur() symboscript.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.eof
}

func (p *parser) peek(n int) symboscript.TokType {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n].TokType()
	}
	return EOF
}

func (p *parser) at(t symboscript.TokType) bool {
	return p.cur().TokType() == t
}

func (p *parser) atAny(ts ...symboscript.TokType) bool {
	k := p.cur().TokType()
	for _, t := range ts {
		if k == t {
			return true
		}
	}
	return false
}

func (p *parser) span() symboscript.Span {
	if p.pos >= len(p.tokens) {
		return p.eof.Span()
	}
	return p.cur().Span().Shift(p.offset)
}

func (p *parser) next() symboscript.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) accept(t symboscript.TokType) bool {
	if p.at(t) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(t symboscript.TokType) symboscript.Token {
	if !p.at(t) {
		p.unexpected(TokenName(t))
	}
	return p.next()
}

func (p *parser) ident() (string, symboscript.Span) {
	span := p.span()
	return p.expect(Ident).Lexeme(), span
}

// memberName reads the name following a '.'. Keywords are valid member names,
// as in `Map.new()`.
func (p *parser) memberName() (string, symboscript.Span) {
	span := p.span()
	if tt := p.cur().TokType(); tt >= KwLet && tt <= KwBnot {
		return p.next().Lexeme(), span
	}
	return p.ident()
}

func (p *parser) unexpected(expected string) {
	tok := p.cur()
	found := TokenName(tok.TokType())
	if tok.TokType() == Ident || tok.TokType() == Number {
		found += " `" + tok.Lexeme() + "`"
	}
	p.fail(p.span(), "expected %s, found %s", expected, found)
}

func (p *parser) fail(span symboscript.Span, format string, args ...interface{}) {
	p.err = symboscript.Errorf(symboscript.Syntax, span, format, args...)
	panic(bailout{})
}

// endStatement consumes a terminating ';', which is optional in front of '}'
// and at the end of input.
func (p *parser) endStatement() {
	if p.accept(Semicolon) || p.atAny(RBrace, EOF) {
		return
	}
	p.unexpected("`;`")
}

func (p *parser) from(start symboscript.Span) Loc {
	end := start
	if p.pos > 0 {
		end = p.tokens[p.pos-1].Span().Shift(p.offset)
	}
	return at(start.Extend(end))
}

// --- Statements ------------------------------------------------------------

func (p *parser) program() *Program {
	start := p.span()
	prog := &Program{}
	prog.Body = p.statements(EOF)
	prog.Loc = p.from(start)
	return prog
}

func (p *parser) statements(end symboscript.TokType) []Statement {
	var list []Statement
	for !p.at(end) {
		if p.at(EOF) {
			p.unexpected(TokenName(end))
		}
		if p.accept(Semicolon) {
			continue
		}
		list = append(list, p.statement())
	}
	return list
}

func (p *parser) block() *BlockStatement {
	start := p.span()
	p.expect(LBrace)
	body := p.statements(RBrace)
	p.expect(RBrace)
	return &BlockStatement{Loc: p.from(start), Body: body}
}

func (p *parser) statement() Statement {
	start := p.span()
	switch p.cur().TokType() {
	case LBrace:
		return p.block()
	case KwLet:
		return p.variableDeclaration()
	case KwFn:
		return p.functionDeclaration(false)
	case KwAsync:
		p.next()
		return p.functionDeclaration(true)
	case KwScope:
		p.next()
		id, _ := p.ident()
		body := p.block().Body
		return &ScopeDeclaration{Loc: p.from(start), ID: id, Body: body}
	case KwContext:
		p.next()
		id, _ := p.ident()
		body := p.block().Body
		return &ContextDeclaration{Loc: p.from(start), ID: id, Body: body}
	case KwIf:
		return p.ifStatement()
	case KwWhile:
		p.next()
		test := p.expression()
		body := p.block()
		return &WhileStatement{Loc: p.from(start), Test: test, Body: body}
	case KwLoop:
		p.next()
		body := p.block()
		return &LoopStatement{Loc: p.from(start), Body: body}
	case KwFor:
		p.next()
		v, _ := p.ident()
		p.expect(KwIn)
		iterable := p.expression()
		body := p.block()
		return &ForStatement{Loc: p.from(start), Var: v, Iterable: iterable, Body: body}
	case KwTry:
		return p.tryStatement()
	case KwReturn:
		p.next()
		arg := p.optionalExpression()
		p.endStatement()
		return &ReturnStatement{Loc: p.from(start), Argument: arg}
	case KwYield:
		p.next()
		arg := p.optionalExpression()
		p.endStatement()
		return &YieldStatement{Loc: p.from(start), Argument: arg}
	case KwThrow:
		p.next()
		arg := p.expression()
		p.endStatement()
		return &ThrowStatement{Loc: p.from(start), Argument: arg}
	case KwBreak:
		p.next()
		p.endStatement()
		return &BreakStatement{Loc: p.from(start)}
	case KwContinue:
		p.next()
		p.endStatement()
		return &ContinueStatement{Loc: p.from(start)}
	case KwImport:
		return p.importStatement()
	}
	return p.expressionStatement()
}

func (p *parser) optionalExpression() Expression {
	if p.atAny(Semicolon, RBrace, EOF) {
		return nil
	}
	return p.expression()
}

func (p *parser) variableDeclaration() Statement {
	start := p.span()
	p.expect(KwLet)
	decl := &VariableDeclaration{}
	decl.ID, _ = p.ident()
	switch {
	case p.accept(Assign):
		decl.Init = p.expression()
	case p.accept(ColonAssign):
		decl.Init = p.expression()
		decl.IsFormula = true
	default:
		decl.Init = &NoneExpression{Loc: p.from(start)}
	}
	p.endStatement()
	decl.Loc = p.from(start)
	return decl
}

func (p *parser) functionDeclaration(async bool) Statement {
	start := p.span()
	p.expect(KwFn)
	fn := &FunctionDeclaration{IsAsync: async}
	fn.ID, _ = p.ident()
	p.expect(LParen)
	for !p.at(RParen) {
		param, _ := p.ident()
		fn.Params = append(fn.Params, param)
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(RParen)
	if p.at(LBrace) {
		fn.Body = p.block().Body
	} else {
		fn.Body = []Statement{p.statement()}
	}
	fn.Loc = p.from(start)
	return fn
}

func (p *parser) ifStatement() Statement {
	start := p.span()
	p.expect(KwIf)
	stmt := &IfStatement{}
	stmt.Test = p.expression()
	stmt.Consequent = p.block()
	if p.accept(KwElse) {
		if p.at(KwIf) {
			stmt.Alternate = p.ifStatement()
		} else {
			stmt.Alternate = p.block()
		}
	}
	stmt.Loc = p.from(start)
	return stmt
}

func (p *parser) tryStatement() Statement {
	start := p.span()
	p.expect(KwTry)
	stmt := &TryStatement{}
	stmt.Body = p.block()
	p.expect(KwCatch)
	if p.at(Ident) {
		stmt.CatchID, _ = p.ident()
	}
	stmt.Handler = p.block()
	stmt.Loc = p.from(start)
	return stmt
}

func (p *parser) importStatement() Statement {
	start := p.span()
	p.expect(KwImport)
	stmt := &ImportStatement{}
	if p.at(Ident) {
		stmt.Source, _ = p.ident()
	} else {
		stmt.Source = unquote(p.expect(String).Lexeme())
	}
	if p.accept(KwAs) {
		stmt.As, _ = p.ident()
	}
	p.endStatement()
	stmt.Loc = p.from(start)
	return stmt
}

var assignOperators = map[symboscript.TokType]AssignOperator{
	Assign:        AssignPlain,
	ColonAssign:   AssignFormula,
	PlusAssign:    AssignAdd,
	MinusAssign:   AssignSubtract,
	StarAssign:    AssignMultiply,
	SlashAssign:   AssignDivide,
	CaretAssign:   AssignPower,
	PercentAssign: AssignModulo,
}

func (p *parser) expressionStatement() Statement {
	start := p.span()
	expr := p.expression()
	if op, ok := assignOperators[p.cur().TokType()]; ok {
		switch expr.(type) {
		case *Identifier, *MemberExpression:
		default:
			p.fail(expr.Span(), "cannot assign to %s", expr.String())
		}
		p.next()
		right := p.expression()
		p.endStatement()
		return &AssignStatement{Loc: p.from(start), Left: expr, Operator: op, Right: right}
	}
	p.endStatement()
	return &ExpressionStatement{Loc: p.from(start), Expr: expr}
}

// --- Expressions -----------------------------------------------------------

func (p *parser) expression() Expression {
	return p.conditional()
}

func (p *parser) conditional() Expression {
	start := p.span()
	test := p.or()
	if !p.accept(Question) {
		return test
	}
	cons := p.conditional()
	p.expect(Colon)
	alt := p.conditional()
	return &ConditionalExpression{Loc: p.from(start), Test: test, Consequent: cons, Alternate: alt}
}

// binaryLevel parses a left-associative chain of binary operators.
func (p *parser) binaryLevel(ops map[symboscript.TokType]BinaryOperator, operand func() Expression) Expression {
	start := p.span()
	left := operand()
	for {
		op, ok := ops[p.cur().TokType()]
		if !ok {
			return left
		}
		p.next()
		right := operand()
		left = &BinaryExpression{Loc: p.from(start), Left: left, Operator: op, Right: right}
	}
}

var (
	orOps    = map[symboscript.TokType]BinaryOperator{KwOr: Or, PipePipe: Or, KwXor: Xor}
	andOps   = map[symboscript.TokType]BinaryOperator{KwAnd: And, AmpAmp: And}
	borOps   = map[symboscript.TokType]BinaryOperator{Pipe: BitOr, KwBor: BitOr}
	bxorOps  = map[symboscript.TokType]BinaryOperator{KwBxor: BitXor}
	bandOps  = map[symboscript.TokType]BinaryOperator{Amp: BitAnd, KwBand: BitAnd}
	eqOps    = map[symboscript.TokType]BinaryOperator{Equal: Eq, NotEqual: NotEq}
	relOps   = map[symboscript.TokType]BinaryOperator{Less: Lt, LessEqual: LtEq, Greater: Gt, GreaterEqual: GtEq}
	rangeOps = map[symboscript.TokType]BinaryOperator{DotDot: Range}
	shiftOps = map[symboscript.TokType]BinaryOperator{ShiftLeft: BitLeftShift, ShiftRight: BitRightShift}
	addOps   = map[symboscript.TokType]BinaryOperator{Plus: Add, Minus: Subtract}
	mulOps   = map[symboscript.TokType]BinaryOperator{Star: Multiply, Slash: Divide, Percent: Modulo}
)

func (p *parser) or() Expression { return p.binaryLevel(orOps, p.and) }

func (p *parser) and() Expression { return p.binaryLevel(andOps, p.bor) }

func (p *parser) bor() Expression { return p.binaryLevel(borOps, p.bxor) }

func (p *parser) bxor() Expression { return p.binaryLevel(bxorOps, p.band) }

func (p *parser) band() Expression { return p.binaryLevel(bandOps, p.equal) }

func (p *parser) equal() Expression { return p.binaryLevel(eqOps, p.rel) }

func (p *parser) rel() Expression { return p.binaryLevel(relOps, p.rangeExpr) }

func (p *parser) rangeExpr() Expression { return p.binaryLevel(rangeOps, p.shift) }

func (p *parser) shift() Expression { return p.binaryLevel(shiftOps, p.additive) }

func (p *parser) additive() Expression { return p.binaryLevel(addOps, p.term) }

// term parses multiplicative operators. A number literal directly followed by
// an identifier or a parenthesis is an implicit multiplication: `2x`, `3(x+1)`.
func (p *parser) term() Expression {
	start := p.span()
	left := p.unary()
	for {
		if _, isNum := numberLiteral(left); isNum && p.atAny(Ident, LParen) {
			right := p.unary()
			left = &BinaryExpression{Loc: p.from(start), Left: left, Operator: Multiply, Right: right}
			continue
		}
		op, ok := mulOps[p.cur().TokType()]
		if !ok {
			return left
		}
		p.next()
		right := p.unary()
		left = &BinaryExpression{Loc: p.from(start), Left: left, Operator: op, Right: right}
	}
}

func numberLiteral(e Expression) (float64, bool) {
	if lit, ok := e.(*Literal); ok {
		n, isNum := lit.Value.(float64)
		return n, isNum
	}
	return 0, false
}

var unaryOps = map[symboscript.TokType]UnaryOperator{
	Minus: UnaryMinus, Plus: UnaryPlus, Bang: Not, KwNot: Not, Tilde: BitNot, KwBnot: BitNot,
	PlusPlus: Increment, MinusMinus: Decrement,
}

func (p *parser) unary() Expression {
	start := p.span()
	if op, ok := unaryOps[p.cur().TokType()]; ok {
		p.next()
		right := p.unary()
		return &UnaryExpression{Loc: p.from(start), Operator: op, Right: right}
	}
	switch p.cur().TokType() {
	case KwAwait:
		p.next()
		arg := p.unary()
		return &WordExpression{Loc: p.from(start), Word: Await, Argument: arg}
	case KwDelete:
		p.next()
		name, span := p.ident()
		return &WordExpression{Loc: p.from(start), Word: Delete, Argument: &Identifier{Loc: at(span), Name: name}}
	case KwNew:
		p.next()
		if !p.at(Ident) || p.peek(1) != LParen {
			p.unexpected("constructor call")
		}
		call := p.primary()
		return &WordExpression{Loc: p.from(start), Word: New, Argument: call}
	}
	return p.power()
}

// power is right associative: 2^3^2 = 2^(3^2).
func (p *parser) power() Expression {
	start := p.span()
	base := p.postfix()
	if !p.accept(Caret) {
		return base
	}
	exp := p.unary()
	return &BinaryExpression{Loc: p.from(start), Left: base, Operator: Power, Right: exp}
}

func (p *parser) postfix() Expression {
	start := p.span()
	expr := p.primary()
	for {
		switch {
		case p.accept(Dot):
			name, span := p.memberName()
			var prop Expression = &Identifier{Loc: at(span), Name: name}
			if p.at(LParen) {
				args := p.arguments(LParen, RParen)
				prop = &CallExpression{Loc: p.from(span), Callee: name, Arguments: args}
			}
			expr = &MemberExpression{Loc: p.from(start), Object: expr, Property: prop}
		case p.accept(LBracket):
			key := p.expression()
			p.expect(RBracket)
			expr = &MemberExpression{Loc: p.from(start), Object: expr, Property: key, IsExpr: true}
		default:
			return expr
		}
	}
}

func (p *parser) primary() Expression {
	start := p.span()
	tok := p.cur()
	switch tok.TokType() {
	case Number:
		p.next()
		n, err := strconv.ParseFloat(tok.Lexeme(), 64)
		if err != nil {
			p.fail(start, "malformed number %q", tok.Lexeme())
		}
		return &Literal{Loc: at(start), Value: n}
	case String:
		p.next()
		return &Literal{Loc: at(start), Value: unquote(tok.Lexeme())}
	case KwTrue, KwFalse:
		p.next()
		return &Literal{Loc: at(start), Value: tok.TokType() == KwTrue}
	case KwNone:
		p.next()
		return &Literal{Loc: at(start), Value: nil}
	case Ident:
		p.next()
		if p.at(LParen) {
			args := p.arguments(LParen, RParen)
			return &CallExpression{Loc: p.from(start), Callee: tok.Lexeme(), Arguments: args}
		}
		return &Identifier{Loc: at(start), Name: tok.Lexeme()}
	case LParen:
		p.next()
		expr := p.expression()
		p.expect(RParen)
		return expr
	case LBracket:
		return p.arguments(LBracket, RBracket)
	}
	p.unexpected("expression")
	return nil
}

// arguments parses a delimited, comma-separated list of expressions.
// A trailing comma is allowed.
func (p *parser) arguments(open, close symboscript.TokType) *SequenceExpression {
	start := p.span()
	p.expect(open)
	seq := &SequenceExpression{}
	for !p.at(close) {
		seq.Expressions = append(seq.Expressions, p.expression())
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(close)
	seq.Loc = p.from(start)
	return seq
}
