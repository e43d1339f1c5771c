package vm

import "encoding/binary"

// Every instruction begins with a little-endian 16-bit opcode word.
// The top bit is not part of the opcode: it asks the caller to invert
// the instruction's boolean result.
const (
	opcodeMask = 0x7fff
	invertFlag = 0x8000

	// OpTerminate logically ends a script. The engine intercepts it
	// instead of dispatching, see Engine.RunNextInstruction.
	OpTerminate uint16 = 0x4e
)

// DecodeNext reads the opcode word at the cursor and advances past it.
// It returns the masked opcode and the inversion flag, and records the
// flag on the script for the instruction's caller to apply. The
// decoder itself never inverts anything. This is the only place the
// cursor moves, so the bounds check lives here and nowhere else.
func (s *Script) DecodeNext() (opcode uint16, invert bool) {
	if s.cursor+2 > len(s.buffer) {
		panic("bytecode underflow")
	}
	word := binary.LittleEndian.Uint16(s.buffer[s.cursor:])
	s.cursor += 2

	s.invertReturn = word&invertFlag != 0
	return word & opcodeMask, s.invertReturn
}

// ---------------------------------------------------------------------------
// ScriptBuilder: helper for constructing instruction streams
// ---------------------------------------------------------------------------

// ScriptBuilder assembles a raw instruction stream, mainly for tests
// and tooling.
type ScriptBuilder struct {
	bytes []byte
}

// NewScriptBuilder creates an empty builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the assembled stream.
func (b *ScriptBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *ScriptBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode word.
func (b *ScriptBuilder) Emit(opcode uint16) {
	b.emitWord(opcode & opcodeMask)
}

// EmitInverted appends an opcode word with the inversion bit set.
func (b *ScriptBuilder) EmitInverted(opcode uint16) {
	b.emitWord(opcode&opcodeMask | invertFlag)
}

// EmitTerminate appends the terminator word.
func (b *ScriptBuilder) EmitTerminate() {
	b.Emit(OpTerminate)
}

// EmitRaw appends raw bytes: handler arguments or trailing junk.
func (b *ScriptBuilder) EmitRaw(data ...byte) {
	b.bytes = append(b.bytes, data...)
}

func (b *ScriptBuilder) emitWord(word uint16) {
	b.bytes = append(b.bytes, byte(word), byte(word>>8))
}
