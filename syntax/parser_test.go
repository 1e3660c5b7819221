package syntax

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/symboscript"
)

func TestTokenize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	input := `let x := 2x + .5; // comment
	/* block
	   comment */ print("a\tb", 'c', x..y, a.b);`
	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatal(err)
	}
	expected := []symboscript.TokType{
		KwLet, Ident, ColonAssign, Number, Ident, Plus, Number, Semicolon,
		Ident, LParen, String, Comma, String, Comma, Ident, DotDot, Ident, Comma,
		Ident, Dot, Ident, RParen, Semicolon,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.TokType() != expected[i] {
			t.Errorf("token #%d: expected %s, got %s (%q)", i, TokenName(expected[i]),
				TokenName(tok.TokType()), tok.Lexeme())
		}
	}
	if lexeme := tokens[0].Lexeme(); lexeme != "let" {
		t.Errorf("expected first lexeme to be 'let', is %q", lexeme)
	}
	if span := tokens[1].Span(); span != (symboscript.Span{4, 5}) {
		t.Errorf("expected span of x to be (4…5), is %v", span)
	}
}

func TestTokenizeKeywordPrefix(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	tokens, err := Tokenize("index in lettuce")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 || tokens[0].TokType() != Ident || tokens[1].TokType() != KwIn ||
		tokens[2].TokType() != Ident {
		t.Errorf("keywords must not match prefixes of identifiers: %v", tokens)
	}
}

func TestLexicalError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	_, err := Tokenize("let x = 1 # 2;")
	if !errors.Is(err, symboscript.Lexical) {
		t.Fatalf("expected lexical error, got %v", err)
	}
	var serr *symboscript.Error
	errors.As(err, &serr)
	if serr.Span.From() != 10 {
		t.Errorf("expected error at position 10, got %v", serr.Span)
	}
}

func TestUnquote(t *testing.T) {
	inputs := map[string]string{
		`"abc"`:    "abc",
		`'abc'`:    "abc",
		`"a\nb"`:   "a\nb",
		`"a\"b"`:   `a"b`,
		`'it\'s'`:  "it's",
		`"\\"`:     `\`,
		`""`:       "",
		`"tab\tx"`: "tab\tx",
	}
	for input, expected := range inputs {
		if s := unquote(input); s != expected {
			t.Errorf("unquote(%s): expected %q, got %q", input, expected, s)
		}
	}
}

var exprStrings = []struct {
	input, ast string
}{
	{"1+2;", "(1+2)"},
	{"1-2;", "(1-2)"},
	{"1*2;", "(1*2)"},
	{"1/2;", "(1/2)"},
	{"1%2;", "(1%2)"},
	{"1^2;", "(1^2)"},
	{"1&2;", "(1&2)"},
	{"1|2;", "(1|2)"},
	{"1<<2;", "(1<<2)"},
	{"1>>2;", "(1>>2)"},
	{"1==2;", "(1==2)"},
	{"1!=2;", "(1!=2)"},
	{"1<2;", "(1<2)"},
	{"1>2;", "(1>2)"},
	{"1<=2;", "(1<=2)"},
	{"1>=2;", "(1>=2)"},
	{"!1;", "(!1)"},
	{"~1;", "(~1)"},
	{"-1;", "(-1)"},
	{"++1;", "(++1)"},
	{"--1;", "(--1)"},
	{"a ? b : c;", "(a ? b : c)"},
	{"a ? b : c ? d : e;", "(a ? b : (c ? d : e))"},
	{"a ? b : c ? d : e ? f : g;", "(a ? b : (c ? d : (e ? f : g)))"},
	{"(a ? b : c) ? d : e;", "((a ? b : c) ? d : e)"},
	{"1+2*3;", "(1+(2*3))"},
	{"1-2-3;", "((1-2)-3)"},
	{"2^3^2;", "(2^(3^2))"},
	{"-2^2;", "(-(2^2))"},
	{"2^-1;", "(2^(-1))"},
	{"2x;", "(2*x)"},
	{"3(x+1);", "(3*(x+1))"},
	{"2x^2;", "(2*(x^2))"},
	{"1..5;", "(1..5)"},
	{"1..2+3;", "(1..(2+3))"},
	{"a and b or c;", "((a and b) or c)"},
	{"a && b || c;", "((a and b) or c)"},
	{"a xor not b;", "(a xor (!b))"},
	{"a band b bor c bxor d;", "((a&b)|(c bxor d))"},
	{"1 < 2 == true;", "((1<2)==true)"},
	{"f(1, 2);", "f(1, 2)"},
	{"m.get(\"k\");", "m.get(\"k\")"},
	{"a.b.c;", "a.b.c"},
	{"xs[1+1];", "xs[(1+1)]"},
	{"[1, 2, 3,];", "[1, 2, 3]"},
	{"new Map();", "new Map()"},
	{"await f(x);", "await f(x)"},
	{"delete x;", "delete x"},
	{"None;", "None"},
}

func TestParseExpressions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	for _, x := range exprStrings {
		prog, err := Parse("test", x.input)
		if err != nil {
			t.Errorf("%s: %v", x.input, err)
			continue
		}
		if len(prog.Body) != 1 {
			t.Errorf("%s: expected 1 statement, got %d", x.input, len(prog.Body))
			continue
		}
		stmt, ok := prog.Body[0].(*ExpressionStatement)
		if !ok {
			t.Errorf("%s: expected expression statement, got %T", x.input, prog.Body[0])
			continue
		}
		if s := stmt.Expr.String(); s != x.ast {
			t.Errorf("%s: expected %s, got %s", x.input, x.ast, s)
		}
	}
}

func TestParseStatements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	input := `
	let a = 1;
	let f := a * 2;
	let n;
	fn add(x, y) { return x + y; }
	async fn wait(x) return x;
	scope s { let v = 1; }
	context c { let w = 2 }
	if a > 0 { a = 2; } else if a < 0 { a -= 1; } else { }
	while a < 10 { a += 1; }
	loop { break; }
	for x in 1..3 { continue }
	import "lib" as l;
	import other;
	try { throw "x"; } catch e { println(e); }
	s.v = 3;
	;;
	`
	prog, err := Parse("test", input)
	if err != nil {
		t.Fatal(err)
	}
	expected := []interface{}{
		&VariableDeclaration{}, &VariableDeclaration{}, &VariableDeclaration{},
		&FunctionDeclaration{}, &FunctionDeclaration{}, &ScopeDeclaration{},
		&ContextDeclaration{}, &IfStatement{}, &WhileStatement{}, &LoopStatement{},
		&ForStatement{}, &ImportStatement{}, &ImportStatement{}, &TryStatement{},
		&AssignStatement{},
	}
	if len(prog.Body) != len(expected) {
		t.Fatalf("expected %d statements, got %d", len(expected), len(prog.Body))
	}
	for i, stmt := range prog.Body {
		if want, got := typeName(expected[i]), typeName(stmt); want != got {
			t.Errorf("statement #%d: expected %s, got %s", i, want, got)
		}
	}
	if f := prog.Body[1].(*VariableDeclaration); !f.IsFormula {
		t.Errorf("expected `let f :=` to be a formula")
	}
	if _, ok := prog.Body[2].(*VariableDeclaration).Init.(*NoneExpression); !ok {
		t.Errorf("expected `let n;` to be initialized with None")
	}
	add := prog.Body[3].(*FunctionDeclaration)
	if add.ID != "add" || len(add.Params) != 2 || add.IsAsync {
		t.Errorf("unexpected function declaration %+v", add)
	}
	if wait := prog.Body[4].(*FunctionDeclaration); !wait.IsAsync || len(wait.Body) != 1 {
		t.Errorf("expected async function with single statement body")
	}
	elif := prog.Body[7].(*IfStatement).Alternate
	if _, ok := elif.(*IfStatement); !ok {
		t.Errorf("expected else-if chain, got %T", elif)
	}
	if imp := prog.Body[11].(*ImportStatement); imp.Source != "lib" || imp.As != "l" {
		t.Errorf("unexpected import %+v", imp)
	}
	if imp := prog.Body[12].(*ImportStatement); imp.Source != "other" || imp.As != "" {
		t.Errorf("unexpected import %+v", imp)
	}
	if try := prog.Body[13].(*TryStatement); try.CatchID != "e" {
		t.Errorf("expected catch variable e, got %q", try.CatchID)
	}
	if assign := prog.Body[14].(*AssignStatement); assign.Left.String() != "s.v" {
		t.Errorf("expected assignment to s.v, got %s", assign.Left)
	}
}

func typeName(x interface{}) string {
	switch x.(type) {
	case *VariableDeclaration:
		return "var"
	case *FunctionDeclaration:
		return "fn"
	case *ScopeDeclaration:
		return "scope"
	case *ContextDeclaration:
		return "context"
	case *IfStatement:
		return "if"
	case *WhileStatement:
		return "while"
	case *LoopStatement:
		return "loop"
	case *ForStatement:
		return "for"
	case *ImportStatement:
		return "import"
	case *TryStatement:
		return "try"
	case *AssignStatement:
		return "assign"
	}
	return "other"
}

func TestSyntaxErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	inputs := []string{
		"let = 5;",
		"1 + ;",
		"fn f(a b) {}",
		"if x { y",
		"1 = 2;",
		"let x = 1 let y = 2;",
		"new 5;",
	}
	for _, input := range inputs {
		_, err := Parse("test.syms", input)
		if !errors.Is(err, symboscript.Syntax) {
			t.Errorf("%q: expected syntax error, got %v", input, err)
			continue
		}
		var serr *symboscript.Error
		errors.As(err, &serr)
		if serr.Path != "test.syms" {
			t.Errorf("%q: expected path of error to be set", input)
		}
		t.Logf("%q: %v", input, err)
	}
}

func TestParseOffset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	prog, err := Parse("repl", "x + 1;", Offset(100))
	if err != nil {
		t.Fatal(err)
	}
	expr := prog.Body[0].(*ExpressionStatement).Expr
	if span := expr.Span(); span != (symboscript.Span{100, 105}) {
		t.Errorf("expected span (100…105), got %v", span)
	}
	_, err = Parse("repl", "x + ;", Offset(100))
	var serr *symboscript.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected diagnostic, got %v", err)
	}
	if serr.Span.From() != 104 {
		t.Errorf("expected error at 104, got %v", serr.Span)
	}
	if serr.Path != "" {
		t.Errorf("expected error with offset to leave path to caller")
	}
}

func TestParseExpression(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.syntax")
	defer teardown()
	//
	expr, err := ParseExpression("a.b(1) + 2")
	if err != nil {
		t.Fatal(err)
	}
	if s := expr.String(); s != "(a.b(1)+2)" {
		t.Errorf("expected (a.b(1)+2), got %s", s)
	}
}
