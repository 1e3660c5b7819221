package interp

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/symboscript"
	"github.com/npillmayer/symboscript/runtime"
	"github.com/npillmayer/symboscript/syntax"
)

// newTestInterpreter creates an interpreter writing to a buffer. Reported
// diagnostics are collected in reports.
func newTestInterpreter(t *testing.T) (*Interpreter, *bytes.Buffer, *[]error) {
	out := &bytes.Buffer{}
	reports := &[]error{}
	config := DefaultConfig()
	config.Stdout = out
	config.Stderr = out
	config.MaxDepth = 200
	config.Report = func(err error) { *reports = append(*reports, err) }
	in, err := New(config)
	if err != nil {
		t.Fatalf("cannot create interpreter: %v", err)
	}
	return in, out, reports
}

func run(t *testing.T, source string) (string, error) {
	in, out, _ := newTestInterpreter(t)
	err := in.Run("test.syms", source)
	if in.Vault() != nil && in.Vault().Live() != 0 {
		t.Errorf("vault leaks %d records after run", in.Vault().Live())
	}
	return out.String(), err
}

var programs = []struct {
	name   string
	source string
	output string
}{
	{"hello", `println("Hello", 1 + 2);`, "Hello 3\n"},
	{"map", `let m = Map.new(); m.set("k", 5); print(m.get("k"));`, "5"},
	{"map missing key", `let m = Map.new(); println(m.get("missing"));`, "None\n"},
	{"map new", `let m = new Map(); m.set(1, "one"); m.set("b", 2);
		println(m.has(1), m.len(), m.keys(), m.values());
		m.del(1); println(m.has("1"), m.len());
		m.clear(); println(m.len());`,
		"true 2 [\"1\", \"b\"] [\"one\", 2]\nfalse 1\n0\n"},
	{"maps are independent", `let a = Map.new(); let b = Map.new();
		a.set("x", 1); println(a.len(), b.len(), b.get("x"));`, "1 0 None\n"},
	{"recursion", `fn fact(n) {
			let r = n;
			if n > 1 { r = n * fact(n - 1); }
			return r;
		}
		println(fact(5));`, "120\n"},
	{"recursion isolation", `fn f(n) {
			let x = n;
			if n > 0 { f(n - 1); }
			return x;
		}
		println(f(3));`, "3\n"},
	{"scope aliasing", `scope s { let a = 1; }
		let t = s; t.a = 2; println(s.a);`, "2\n"},
	{"context this", `context c { let v = 7; fn get() return this.v; }
		println(c.get());`, "7\n"},
	{"formula", `let x = 2; let y := x * 3; x = 5; println(y);`, "15\n"},
	{"compound assignment", `let x = 10; x -= 4; x *= 2; println(x);`, "12\n"},
	{"while", `let i = 0; let s = 0; while i < 4 { i += 1; s += i; } println(s);`, "10\n"},
	{"loop break", `let i = 0; loop { i += 1; if i == 3 { break; } } println(i);`, "3\n"},
	{"for continue", `let s = 0; for x in 1..5 { if x == 2 { continue; } s += x; } println(s);`, "13\n"},
	{"for over string", `for c in "abc" { print(c); }`, "abc"},
	{"yield", `fn gen() { for i in 1..3 { yield i * 2; } } println(gen());`, "[2, 4, 6]\n"},
	{"try catch", `try { throw "boom"; } catch e { println("caught", e); }`, "caught boom\n"},
	{"throw in function", `fn f() { throw "bad"; } let r = f(); println(r.is_err(), r);`,
		"true error: bad\n"},
	{"boxed methods", `let s = "hello"; println(s.len(), (42).to_string() + "!", s.type());`,
		"5 42! string\n"},
	{"conversions", `println(num("2.5") * 2, str(1.5), bool(0), type([1]), len([1, 2]));`,
		"5 1.5 false sequence 2\n"},
	{"std scope", `std.io.println(std.str(3));`, "3\n"},
	{"index", `let xs = [1, 2, 3]; xs[1] = 20; println(xs[1], xs[7], "abc"[2]);`, "20 None c\n"},
	{"delete", `let a = 1; delete a; let a = 2; println(a);`, "2\n"},
	{"conditional", `println(1 < 2 ? "yes" : "no");`, "yes\n"},
	{"implicit multiplication", `let x = 3; println(2x + 1);`, "7\n"},
	{"huge range", `println(len(0..10^300), len(0..10^12), len(1..3));`, "None None 3\n"},
	{"huge repeat", `println(len("ab" * 10^300), len("ab" * 10^12), len("ab" * 3));`, "None None 6\n"},
	{"member falls back to enclosing scope", `scope t { } let a = 5; println(t.a);`, "5\n"},
}

func TestPrograms(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	for _, p := range programs {
		t.Run(p.name, func(t *testing.T) {
			out, err := run(t, p.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(p.output, out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

var failing = []struct {
	name   string
	source string
	kind   symboscript.ErrorKind
}{
	{"unbound", `println(nope);`, symboscript.UnboundName},
	{"arity", `fn f(a) a; f(1, 2);`, symboscript.Arity},
	{"native arity", `str(1, 2);`, symboscript.Arity},
	{"not callable", `let x = 1; x();`, symboscript.NotCallable},
	{"not a scope", `let x = 1; x.y = 2;`, symboscript.NotScope},
	{"no member", `let x = 1; x.nothing;`, symboscript.UnboundName},
	{"function member", `fn f() 1; f.foo;`, symboscript.NotScope},
	{"function method", `fn f() 1; f.type();`, symboscript.NotScope},
	{"native member", `println.x;`, symboscript.NotScope},
	{"not iterable", `for x in 5 { }`, symboscript.NotIterable},
	{"uncaught throw", `throw 1;`, symboscript.UncaughtThrow},
	{"yield outside", `yield 1;`, symboscript.YieldOutside},
	{"depth", `fn r(n) return r(n + 1); r(0);`, symboscript.DepthExceeded},
	{"formula depth", `let a := a + 1; a;`, symboscript.DepthExceeded},
	{"syntax", `let = 3;`, symboscript.Syntax},
	{"stale map", `fn make() { let m = Map.new(); return m; }
		let x = make(); x.set("a", 1);`, symboscript.StaleHandle},
	{"stale scope", `fn make() { scope s { let a = 1; } return s; }
		let x = make(); x.a;`, symboscript.StaleHandle},
}

func TestErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	for _, f := range failing {
		t.Run(f.name, func(t *testing.T) {
			_, err := run(t, f.source)
			if !errors.Is(err, f.kind) {
				t.Errorf("expected error of kind %q, got %v", f.kind, err)
			}
		})
	}
}

func TestErrorLocation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	_, err := run(t, "let a = 1;\nprintln(a, bee);")
	var serr *symboscript.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected a diagnostic, got %v", err)
	}
	if serr.Path != "test.syms" {
		t.Errorf("expected path test.syms, got %q", serr.Path)
	}
	line, col, _, _ := serr.Position()
	if line != 2 || col != 12 {
		t.Errorf("expected error at 2:12, got %d:%d", line, col)
	}
}

func TestEvalValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	tests := []struct {
		source string
		value  runtime.Value
	}{
		{"1 + 2;", runtime.Number(3)},
		{`"a" + 1;`, runtime.Str("a1")},
		{`1 + "a";`, runtime.Str("1a")},
		{"true + true;", runtime.Bool(true)},
		{"2 ^ 10;", runtime.Number(1024)},
		{"1..5;", runtime.Sequence(runtime.Number(1), runtime.Number(2), runtime.Number(3),
			runtime.Number(4), runtime.Number(5))},
		{`1 - "a";`, runtime.None()},
		{"None == None;", runtime.Bool(true)},
		{"return 6 * 7;", runtime.Number(42)},
	}
	in, _, _ := newTestInterpreter(t)
	for _, test := range tests {
		prog, err := syntax.Parse("eval.syms", test.source)
		if err != nil {
			t.Fatalf("cannot parse %q: %v", test.source, err)
		}
		in.Start("eval.syms", test.source)
		v, err := in.Eval(prog)
		in.Stop()
		if err != nil {
			t.Errorf("%q: unexpected error %v", test.source, err)
			continue
		}
		if diff := cmp.Diff(test.value, v); diff != "" {
			t.Errorf("%q: value mismatch (-want +got):\n%s", test.source, diff)
		}
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	in, _, _ := newTestInterpreter(t)
	in.Start("<repl>", "")
	var v runtime.Value
	for _, line := range []string{"let a = 40;", "let m = Map.new();", "m.set(a, 2);", "a + m.get(40);"} {
		offset := in.AppendSource(line)
		prog, err := syntax.Parse("<repl>", line, syntax.Offset(offset))
		if err != nil {
			t.Fatalf("cannot parse %q: %v", line, err)
		}
		if v, err = in.Eval(prog); err != nil {
			t.Fatalf("%q: unexpected error %v", line, err)
		}
	}
	if !v.Equal(runtime.Number(42)) {
		t.Errorf("expected 42, got %v", v)
	}
	_, source := in.Source()
	if source != "let a = 40;let m = Map.new();m.set(a, 2);a + m.get(40);" {
		t.Errorf("unexpected session source %q", source)
	}
	offset := in.AppendSource("b;")
	prog, _ := syntax.Parse("<repl>", "b;", syntax.Offset(offset))
	_, err := in.Eval(prog)
	var serr *symboscript.Error
	if !errors.As(err, &serr) || serr.Span.From() != offset {
		t.Errorf("expected unbound name at offset %d, got %v", offset, err)
	}
	in.Stop()
	if in.Vault().Live() != 0 {
		t.Errorf("vault leaks %d records after session", in.Vault().Live())
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	dir := t.TempDir()
	writeFile(t, dir, "lib.syms", `let counter = 0;
fn bump() { counter += 1; return counter; }
`)
	writeFile(t, dir, "util.syms", `import "lib";
fn twice() { lib.bump(); return lib.bump(); }
`)
	main := writeFile(t, dir, "main.syms", `import "lib";
import "lib.syms" as other;
import "util";
lib.bump();
println(lib.counter, other.counter, util.twice(), lib.counter);
println(other.__name__, other.__module__);
`)
	source, _ := os.ReadFile(main)
	in, out, reports := newTestInterpreter(t)
	if err := in.Run(main, string(source)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*reports) != 0 {
		t.Errorf("unexpected reports: %v", *reports)
	}
	want := "1 0 2 1\nother lib.syms\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if in.Vault().Live() != 0 {
		t.Errorf("vault leaks %d records after run", in.Vault().Live())
	}
}

func TestMissingImportIsReported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	dir := t.TempDir()
	main := filepath.Join(dir, "main.syms")
	in, out, reports := newTestInterpreter(t)
	if err := in.Run(main, `import "nothere"; println("after");`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "after\n" {
		t.Errorf("expected evaluation to continue, output is %q", out.String())
	}
	if len(*reports) != 1 || !errors.Is((*reports)[0], symboscript.Import) {
		t.Errorf("expected one import diagnostic, got %v", *reports)
	}
}

func TestImportSyntaxErrorIsFatal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.interp")
	defer teardown()
	//
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.syms", "let = ;")
	in, _, _ := newTestInterpreter(t)
	err := in.Run(filepath.Join(dir, "main.syms"), `import "bad";`)
	var serr *symboscript.Error
	if !errors.As(err, &serr) || serr.Kind != symboscript.Syntax {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if serr.Path != bad {
		t.Errorf("expected error in %s, got %s", bad, serr.Path)
	}
}
