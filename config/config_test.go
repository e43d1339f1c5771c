package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "cleovm.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[scripts]
dirs = ["mods", "extra"]
extensions = [".csa"]

[store]
path = "archive.db"

[log]
verbosity = 2
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Scripts.Dirs) != 2 || c.Scripts.Dirs[0] != "mods" {
		t.Errorf("dirs = %v, want [mods extra]", c.Scripts.Dirs)
	}
	if len(c.Scripts.Extensions) != 1 || c.Scripts.Extensions[0] != ".csa" {
		t.Errorf("extensions = %v, want [.csa]", c.Scripts.Extensions)
	}
	if c.Store.Path != "archive.db" {
		t.Errorf("store path = %q, want archive.db", c.Store.Path)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", c.Log.Verbosity)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Scripts.Dirs) != 1 || c.Scripts.Dirs[0] != "scripts" {
		t.Errorf("default dirs = %v, want [scripts]", c.Scripts.Dirs)
	}
	if len(c.Scripts.Extensions) != 2 {
		t.Errorf("default extensions = %v, want [.csa .csi]", c.Scripts.Extensions)
	}
	if c.Store.Path != "cleovm.db" {
		t.Errorf("default store path = %q, want cleovm.db", c.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing cleovm.toml")
	}
}

func TestLoadBadToml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[scripts\ndirs = ")

	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestPathsResolveAgainstDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[scripts]
dirs = ["mods"]
`)

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(c.Dir, "mods")
	if got := c.ScriptDirs()[0]; got != want {
		t.Errorf("script dir = %q, want %q", got, want)
	}
	if got := c.StorePath(); got != filepath.Join(c.Dir, "cleovm.db") {
		t.Errorf("store path = %q, want under config dir", got)
	}
}

func TestAbsolutePathsKept(t *testing.T) {
	c := Default(t.TempDir())
	abs := filepath.Join(string(filepath.Separator), "opt", "scripts")
	c.Scripts.Dirs = []string{abs}

	if got := c.ScriptDirs()[0]; got != abs {
		t.Errorf("script dir = %q, want %q untouched", got, abs)
	}
}
