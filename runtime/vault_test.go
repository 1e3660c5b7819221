package runtime

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/symboscript"
)

func TestVaultBlocks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	global := v.EnterBlock()
	if v.Path(global) != "$0" {
		t.Errorf("expected global path $0, got %s", v.Path(global))
	}
	old := v.Define("x", Number(0))
	if x := v.Define("x", Number(1)); x == old || x.Value.Num != 1 {
		t.Errorf("expected re-definition to replace binding, got %v", x)
	}
	b1 := v.EnterBlock()
	v.Define("x", Number(2))
	tag, err := v.Resolve("x")
	if err != nil || tag.Value.Num != 2 {
		t.Errorf("expected inner x=2, got %v (%v)", tag, err)
	}
	v.ExitBlock()
	b2 := v.EnterBlock()
	if b1 == b2 {
		t.Errorf("expected distinct handles for distinct block invocations")
	}
	if v.Path(b2) != "$0$1" {
		t.Errorf("expected path $0$1, got %s", v.Path(b2))
	}
	tag, _ = v.Resolve("x")
	if tag.Value.Num != 1 {
		t.Errorf("expected outer x=1, got %v", tag.Value)
	}
	v.ExitBlock()
	if _, err := v.Resolve("y"); !errors.Is(err, symboscript.UnboundName) {
		t.Errorf("expected unbound name, got %v", err)
	}
	v.ExitBlock()
	if v.Live() != 0 {
		t.Errorf("expected empty vault, %d records live", v.Live())
	}
}

func TestVaultRecursionIsolation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	v.EnterBlock()
	var recurse func(n int)
	recurse = func(n int) {
		v.EnterBlock()
		defer v.ExitBlock()
		v.Define("n", Number(float64(n)))
		if n > 0 {
			recurse(n - 1)
		}
		tag, _ := v.Resolve("n")
		if tag.Value.Num != float64(n) {
			t.Errorf("activation %d sees n=%v", n, tag.Value)
		}
	}
	recurse(5)
	v.ExitBlock()
}

func TestVaultNamedScopes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	global := v.EnterBlock()
	block := v.EnterBlock()
	s := v.DeclareNamedScope("s")
	v.Define("a", Number(1))
	inner := v.DeclareNamedScope("inner")
	v.EndDeclaration(inner, "inner")
	v.EndDeclaration(s, "s")
	if v.Path(s) != "$0$0.s$0" || v.Path(inner) != "$0$0.s$0.inner$0" {
		t.Errorf("unexpected paths %s, %s", v.Path(s), v.Path(inner))
	}
	tag, err := v.Resolve("s")
	if err != nil || tag.Value.Kind != ScopeRefKind || tag.Value.Scope != s {
		t.Fatalf("expected s to be bound to its scope, is %v (%v)", tag, err)
	}
	if _, err := v.Resolve("a"); err == nil {
		t.Errorf("members of s must not be visible outside of s")
	}
	if err := v.EnterNamed(s); err != nil {
		t.Fatal(err)
	}
	if tag, err := v.Resolve("a"); err != nil || tag.Value.Num != 1 {
		t.Errorf("expected a=1 within s, got %v (%v)", tag, err)
	}
	v.ExitNamed()
	if v.Current() != block {
		t.Errorf("expected current scope to be the block")
	}
	v.ExitBlock()
	for _, h := range []Handle{block, s, inner} {
		if v.IsLive(h) {
			t.Errorf("expected %v to be freed with its owner", h)
		}
	}
	if err := v.EnterNamed(s); !errors.Is(err, symboscript.StaleHandle) {
		t.Errorf("expected stale handle, got %v", err)
	}
	if v.Current() != global || v.Live() != 1 {
		t.Errorf("expected only the global scope to be live, have %d records", v.Live())
	}
}

func TestVaultStaleHandleNotResurrected(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	v.EnterBlock()
	old := v.EnterBlock()
	v.ExitBlock()
	fresh := v.EnterBlock() // re-uses the slot
	v.Define("z", Bool(true))
	if old.index != fresh.index {
		t.Logf("slot has not been re-used")
	}
	if _, err := v.Lookup(old, "z"); !errors.Is(err, symboscript.StaleHandle) {
		t.Errorf("expected stale handle error for freed scope, got %v", err)
	}
	if _, err := v.DefineIn(old, "z", None()); !errors.Is(err, symboscript.StaleHandle) {
		t.Errorf("expected stale handle error for freed scope, got %v", err)
	}
	if _, err := v.Lookup(Handle{}, "z"); !errors.Is(err, symboscript.StaleHandle) {
		t.Errorf("expected zero handle to be invalid")
	}
	v.ExitBlock()
	v.ExitBlock()
}

func TestVaultOwnedScopes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	v.EnterBlock()
	call := v.EnterBlock()
	class := v.DeclareNamedScope("Map")
	v.EndDeclaration(class, "Map")
	if err := v.EnterNamed(class); err != nil {
		t.Fatal(err)
	}
	if v.Owner() != call {
		t.Errorf("expected owner to be the innermost block")
	}
	obj, err := v.NewOwnedScope(v.Owner(), "Map")
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := v.NewOwnedScope(obj, "entries")
	v.ExitNamed()
	before := v.Live()
	v.ExitBlock()
	if v.IsLive(obj) || v.IsLive(entries) || v.IsLive(class) {
		t.Errorf("expected owned scopes to be freed")
	}
	if v.Live() != before-4 {
		t.Errorf("expected 4 records to be freed, live: %d -> %d", before, v.Live())
	}
	v.ExitBlock()
}

func TestVaultUnbind(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	v.EnterBlock()
	v.Define("x", Number(1))
	v.EnterBlock()
	v.Define("x", Number(2))
	if !v.Unbind("x") {
		t.Fatal("expected x to be unbound")
	}
	if tag, _ := v.Resolve("x"); tag.Value.Num != 1 {
		t.Errorf("expected outer x to be visible after unbinding inner one")
	}
	v.Unbind("x")
	if v.Unbind("x") {
		t.Errorf("expected no more bindings of x")
	}
	v.ExitBlock()
	v.ExitBlock()
}

func TestVaultSnapshot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "symbo.vault")
	defer teardown()
	//
	v := NewVault()
	v.EnterBlock()
	v.Define("g", Number(1))
	empty := v.Fingerprint()
	v.EnterBlock()
	s := v.DeclareNamedScope("s")
	v.Define("b", None())
	v.Define("a", None())
	v.EndDeclaration(s, "s")
	expected := []RecordInfo{
		{Path: "$0", Names: []string{"g"}},
		{Path: "$0$0", Names: []string{"s"}, Owned: []string{"$0$0.s$0"}},
		{Path: "$0$0.s$0", Names: []string{"a", "b"}},
	}
	if diff := cmp.Diff(expected, v.Snapshot()); diff != "" {
		t.Errorf("unexpected snapshot (-want +got):\n%s", diff)
	}
	if v.Fingerprint() == empty {
		t.Errorf("expected fingerprint to change")
	}
	v.ExitBlock()
	if fp := v.Fingerprint(); fp != empty {
		t.Errorf("expected fingerprint after teardown to equal initial one")
	}
	v.ExitBlock()
}
