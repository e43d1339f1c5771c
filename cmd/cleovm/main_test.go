package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marbeck/cleovm/config"
	"github.com/marbeck/cleovm/vm"
)

// writeScript writes a script of ops no-op words (plus a terminator
// unless terminated is false) into the config's default script dir.
func writeScript(t *testing.T, cfgDir, name string, ops int, terminated bool) {
	t.Helper()
	dir := filepath.Join(cfgDir, "scripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	b := vm.NewScriptBuilder()
	for i := 0; i < ops; i++ {
		b.Emit(0x77)
	}
	if terminated {
		b.EmitTerminate()
	}
	if err := os.WriteFile(filepath.Join(dir, name), b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunScriptsUntilInactive(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "short.csa", 1, true)
	writeScript(t, dir, "long.csa", 3, true)

	framesRun, active, err := runScripts(config.Default(dir), 0)
	if err != nil {
		t.Fatalf("runScripts: %v", err)
	}
	if active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
	// One word per frame per script; the long script needs 3 ops plus
	// the terminator.
	if framesRun != 4 {
		t.Errorf("frames = %d, want 4", framesRun)
	}
}

func TestRunScriptsFrameBudget(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "endless.csa", 10, true)

	framesRun, active, err := runScripts(config.Default(dir), 3)
	if err != nil {
		t.Fatalf("runScripts: %v", err)
	}
	if framesRun != 3 {
		t.Errorf("frames = %d, want the budget of 3", framesRun)
	}
	if active != 1 {
		t.Errorf("active = %d, want 1 after exhausting the budget", active)
	}
}

func TestRunScriptsRetiresTruncated(t *testing.T) {
	// A script whose word stream runs out without a terminator must be
	// retired, not decoded past the end of its buffer.
	dir := t.TempDir()
	writeScript(t, dir, "cut.csa", 2, false)

	_, active, err := runScripts(config.Default(dir), 0)
	if err != nil {
		t.Fatalf("runScripts: %v", err)
	}
	if active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
}

func TestRunScriptsNoScripts(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runScripts(config.Default(dir), 0); err == nil {
		t.Error("expected error when no scripts are found")
	}
}
