package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "swap"
version = "0.1.0"
entry = "src/main.rmx"

[build]
cache = "/tmp/remix-cache.db"
image = "out/swap.rmxi"

[run]
verbosity = 2
dump = true
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "swap" {
		t.Errorf("project name = %q, want swap", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Run.Verbosity != 2 || !m.Run.Dump {
		t.Errorf("run = %+v", m.Run)
	}
	if got := m.EntryPath(); got != filepath.Join(m.Dir, "src", "main.rmx") {
		t.Errorf("entry path = %q", got)
	}
	if got := m.CachePath(); got != "/tmp/remix-cache.db" {
		t.Errorf("cache path = %q, want absolute path unchanged", got)
	}
	if got := m.ImagePath(); got != filepath.Join(m.Dir, "out", "swap.rmxi") {
		t.Errorf("image path = %q", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Build.Cache != filepath.Join(".remix", "cache.db") {
		t.Errorf("default cache = %q", m.Build.Cache)
	}
	if m.EntryPath() != "" || m.ImagePath() != "" {
		t.Errorf("unset paths resolved: %q %q", m.EntryPath(), m.ImagePath())
	}
	if m.Run.Verbosity != 0 || m.Run.Dump {
		t.Errorf("run = %+v", m.Run)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project\nname = ")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadManifestUnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[build]\noutput = \"x\"\n")
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "build.output") {
		t.Errorf("err = %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"outer\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil || m.Project.Name != "outer" {
		t.Fatalf("manifest = %+v", m)
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
}

func TestDefault(t *testing.T) {
	m := Default("/work")
	if m.CachePath() != filepath.Join("/work", ".remix", "cache.db") {
		t.Errorf("cache path = %q", m.CachePath())
	}
}
