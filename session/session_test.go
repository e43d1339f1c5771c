package session

import (
	"path/filepath"
	"testing"

	"github.com/marbeck/cleovm/store"
	"github.com/marbeck/cleovm/vm"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testScriptBytes() []byte {
	b := vm.NewScriptBuilder()
	b.Emit(0x77)
	b.EmitTerminate()
	return b.Bytes()
}

func TestCaptureRecordsState(t *testing.T) {
	s := vm.NewScript(testScriptBytes(), "mission")
	s.SetActivationTime(7)
	s.DecodeNext() // cursor -> 2

	sn, err := Capture(s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if sn.Name != "mission" || sn.Cursor != 2 || !sn.Active {
		t.Errorf("snapshot = (%q, %d, %v), want (mission, 2, true)", sn.Name, sn.Cursor, sn.Active)
	}
	if sn.ActivationTime != 7 {
		t.Errorf("activationTime = %d, want 7", sn.ActivationTime)
	}
	if sn.Digest != store.Digest(testScriptBytes()) {
		t.Errorf("digest = %s, want content digest of the buffer", sn.Digest)
	}
	if sn.RunID == "" {
		t.Error("empty run ID")
	}
}

func TestCaptureRunIDsAreUnique(t *testing.T) {
	s := vm.NewScript(testScriptBytes(), "mission")
	a, err := Capture(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Capture(s)
	if err != nil {
		t.Fatal(err)
	}
	if a.RunID == b.RunID {
		t.Errorf("two captures share run ID %s", a.RunID)
	}
}

func TestCaptureUnloadedScript(t *testing.T) {
	s := vm.NewScript(testScriptBytes(), "gone")
	s.Unload()

	if _, err := Capture(s); err == nil {
		t.Error("expected error capturing an unloaded script")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := vm.NewScript(testScriptBytes(), "mission")
	s.DecodeNext()
	sn, err := Capture(s)
	if err != nil {
		t.Fatal(err)
	}

	data, err := Marshal(sn)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if *got != *sn {
		t.Errorf("round trip changed the snapshot: %+v vs %+v", got, sn)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	sn := &Snapshot{RunID: "fixed", Name: "mission", Digest: "abc", Cursor: 2, Active: true}

	a, err := Marshal(sn)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(sn)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("canonical encoding is not deterministic")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestRestoreResumesExecution(t *testing.T) {
	st := testStore(t)
	data := testScriptBytes()
	if _, err := st.Put("mission.csa", data); err != nil {
		t.Fatal(err)
	}

	s := vm.NewScript(data, "mission")
	s.DecodeNext() // past the first instruction
	sn, err := Capture(s)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Restore(sn, st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Cursor() != 2 || !restored.Active() {
		t.Errorf("restored = (%d, %v), want (2, true)", restored.Cursor(), restored.Active())
	}
	// The next instruction is the terminator the donor never reached.
	e := vm.NewEngine(&vm.TableHost{}, nil)
	if !e.RunNextInstruction(restored) {
		t.Error("restored script did not hit the terminator")
	}
}

func TestRestoreInactiveSnapshot(t *testing.T) {
	st := testStore(t)
	data := testScriptBytes()
	if _, err := st.Put("mission.csa", data); err != nil {
		t.Fatal(err)
	}

	sn := &Snapshot{Name: "done", Digest: store.Digest(data), Cursor: 4, Active: false}
	restored, err := Restore(sn, st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Active() {
		t.Error("restored script active, snapshot was inactive")
	}
}

func TestRestoreMissingBuffer(t *testing.T) {
	st := testStore(t)
	sn := &Snapshot{Name: "lost", Digest: store.Digest([]byte("never archived")), Cursor: 0, Active: true}

	if _, err := Restore(sn, st); err == nil {
		t.Error("expected error for a digest missing from the archive")
	}
}
