package vm

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// ErrScriptSource indicates the script bytes could not be obtained.
var ErrScriptSource = errors.New("script source unavailable")

// Script is a single loaded script: an exclusively-owned instruction
// buffer plus the execution state needed to resume it between blocks.
type Script struct {
	buffer []byte
	cursor int

	// Once false the script is never re-entered. The manager destroys
	// inactive scripts on its next sweep.
	active bool

	// Set by the decoder for the current instruction only. A negative
	// opcode word means the instruction's boolean result is inverted
	// by whoever applies it.
	invertReturn bool

	// Scheduling hint owned by the manager. Must start at zero or a
	// junk value may delay the script's launch.
	activationTime uint32

	name string
}

// NameCounter hands out unique placeholder names for freshly loaded
// scripts. Scripts usually rename themselves later.
type NameCounter struct {
	n atomic.Uint64
}

// Next returns the next placeholder name.
func (c *NameCounter) Next() string {
	return fmt.Sprintf("magic%d", c.n.Add(1)-1)
}

// NewScript constructs an active script over a private copy of data.
// CLEO scripts carry junk at the end (something to do with globals)
// that can't be executed; the buffer holds it anyway, dispatch just
// never reaches it. Empty input yields a buffer-less script.
func NewScript(data []byte, name string) *Script {
	var buf []byte
	if len(data) > 0 {
		buf = make([]byte, len(data))
		copy(buf, data)
	}
	return &Script{
		buffer:         buf,
		active:         true,
		activationTime: 0,
		name:           name,
	}
}

// LoadFile reads a script file and constructs a Script named by names.
// On failure no Script is produced and the error wraps ErrScriptSource.
func LoadFile(path string, names *NameCounter) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %v", path, ErrScriptSource, err)
	}
	return NewScript(data, names.Next()), nil
}

// RestoreScript rebuilds a script at a saved cursor position, for
// resuming a captured session.
func RestoreScript(data []byte, name string, cursor int) (*Script, error) {
	if cursor < 0 || cursor > len(data) {
		return nil, fmt.Errorf("restore %s: cursor %d outside buffer of %d bytes", name, cursor, len(data))
	}
	s := NewScript(data, name)
	s.cursor = cursor
	return s, nil
}

// Unload releases the instruction buffer. Safe to call more than once.
func (s *Script) Unload() {
	s.buffer = nil
}

// Loaded reports whether the script still owns its buffer. Unloaded,
// moved-from and zero-length scripts all report false.
func (s *Script) Loaded() bool {
	return s.buffer != nil
}

// Move transfers the script to a new value and leaves the receiver
// empty: no buffer, inactive. Buffer ownership is singular, so the
// drained source must not release anything later.
func (s *Script) Move() *Script {
	moved := *s
	*s = Script{}
	return &moved
}

// MarkInactive retires the script. Terminal; destruction happens on
// the manager's next sweep, not here.
func (s *Script) MarkInactive() {
	s.active = false
}

// Active reports whether the script may still be advanced.
func (s *Script) Active() bool {
	return s.active
}

// Cursor returns the current read offset into the buffer.
func (s *Script) Cursor() int {
	return s.cursor
}

// Len returns the buffer size, including any trailing junk.
func (s *Script) Len() int {
	return len(s.buffer)
}

// InvertReturn reports the inversion flag of the current instruction.
func (s *Script) InvertReturn() bool {
	return s.invertReturn
}

// Name returns the script's name.
func (s *Script) Name() string {
	return s.name
}

// SetName renames the script. Scripts rename themselves shortly after
// loading.
func (s *Script) SetName(name string) {
	s.name = name
}

// ActivationTime returns the manager-owned scheduling hint.
func (s *Script) ActivationTime() uint32 {
	return s.activationTime
}

// SetActivationTime updates the scheduling hint.
func (s *Script) SetActivationTime(t uint32) {
	s.activationTime = t
}

// Digest returns the SHA-256 of the instruction buffer, the script's
// content address in the archive.
func (s *Script) Digest() [32]byte {
	return sha256.Sum256(s.buffer)
}
