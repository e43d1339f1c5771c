// Package session captures and restores per-script execution state, so
// a run can be suspended and resumed across process restarts. Buffers
// are not embedded in snapshots; they are referenced by content digest
// and rehydrated from the archive.
package session

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/marbeck/cleovm/store"
	"github.com/marbeck/cleovm/vm"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("session: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is the resumable state of one script.
type Snapshot struct {
	RunID          string `cbor:"run_id"`
	Name           string `cbor:"name"`
	Digest         string `cbor:"digest"`
	Cursor         int    `cbor:"cursor"`
	Active         bool   `cbor:"active"`
	ActivationTime uint32 `cbor:"activation_time"`
}

// Capture records a script's resumable state. The script must still
// own its buffer.
func Capture(s *vm.Script) (*Snapshot, error) {
	if !s.Loaded() {
		return nil, fmt.Errorf("capture %s: script is unloaded", s.Name())
	}
	digest := s.Digest()
	return &Snapshot{
		RunID:          uuid.NewString(),
		Name:           s.Name(),
		Digest:         hex.EncodeToString(digest[:]),
		Cursor:         s.Cursor(),
		Active:         s.Active(),
		ActivationTime: s.ActivationTime(),
	}, nil
}

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(sn *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(sn)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var sn Snapshot
	if err := cbor.Unmarshal(data, &sn); err != nil {
		return nil, fmt.Errorf("session: unmarshal snapshot: %w", err)
	}
	return &sn, nil
}

// Restore rebuilds a script from a snapshot, fetching its buffer from
// the archive by digest.
func Restore(sn *Snapshot, st *store.Store) (*vm.Script, error) {
	data, err := st.Get(sn.Digest)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", sn.Name, err)
	}
	s, err := vm.RestoreScript(data, sn.Name, sn.Cursor)
	if err != nil {
		return nil, err
	}
	s.SetActivationTime(sn.ActivationTime)
	if !sn.Active {
		s.MarkInactive()
	}
	return s, nil
}
