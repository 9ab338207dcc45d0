package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/remix/compiler"
	"github.com/chazu/remix/vm"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)
	unit, err := compiler.Compile("let x = 3\nx += 1")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.Get("missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get on empty cache: %v", err)
	}

	id, err := c.Put("k1", unit.Program)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("build id = %q", id)
	}

	p, gotID, err := c.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotID != id {
		t.Errorf("build id = %s, want %s", gotID, id)
	}
	locals, err := vm.NewInterpreter().Run(p.Global)
	if err != nil {
		t.Fatal(err)
	}
	if !vm.Equal(locals[0], vm.Int(4)) {
		t.Errorf("x = %s, want 4", locals[0])
	}
}

func TestPutReplaces(t *testing.T) {
	c := openTemp(t)
	p := &vm.Program{Main: -1, Global: &vm.Function{Name: "g"}}
	first, _ := c.Put("k", p)
	second, err := c.Put("k", p)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("replacement reused the build id")
	}
	entries, err := c.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].BuildID != second || entries[0].Size == 0 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDelete(t *testing.T) {
	c := openTemp(t)
	c.Put("k", &vm.Program{Main: -1})
	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get("k"); !errors.Is(err, ErrMiss) {
		t.Errorf("after delete: %v", err)
	}
}

func TestCompileHitsOnRename(t *testing.T) {
	c := openTemp(t)

	unit, hit, err := c.Compile("let x = 3\nx += 1")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first compile reported a hit")
	}
	if unit.Program == nil || unit.Syntax == nil {
		t.Fatalf("unit = %+v", unit)
	}

	renamed, hit, err := c.Compile("$ same program $\nlet count = 3   count += 1")
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("renamed program missed the cache")
	}
	if renamed.Syntax.Global.Bindings["count"] != 0 {
		t.Errorf("bindings = %v", renamed.Syntax.Global.Bindings)
	}

	_, hit, err = c.Compile("let x = 3\nx += 2")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("different program hit the cache")
	}

	entries, _ := c.Entries()
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestCompileErrors(t *testing.T) {
	c := openTemp(t)
	if _, _, err := c.Compile("let x = "); !errors.Is(err, compiler.ErrSyntax) {
		t.Errorf("err = %v", err)
	}
	if _, _, err := c.Compile("let x = y"); !errors.Is(err, compiler.ErrUndefinedVariable) {
		t.Errorf("err = %v", err)
	}
	entries, _ := c.Entries()
	if len(entries) != 0 {
		t.Errorf("failed compiles cached %d entries", len(entries))
	}
}

func TestKeyStable(t *testing.T) {
	a, _ := compiler.Compile("let a = [1, 2]")
	b, _ := compiler.Compile("let b = [1, 2]")
	ka, err := Key(a.Syntax)
	if err != nil {
		t.Fatal(err)
	}
	kb, _ := Key(b.Syntax)
	if ka != kb || len(ka) != 64 {
		t.Errorf("keys %s / %s", ka, kb)
	}
}
