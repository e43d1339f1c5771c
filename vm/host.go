package vm

import "fmt"

// Handler executes one opcode. The return value is the block-boundary
// signal: true ends the current block and yields back to the scheduler.
type Handler func(ctx *Script, opcode uint16) bool

// Override reimplements a single opcode locally (touch checks and the
// like). It consumes whatever argument bytes it needs from the script
// buffer itself and never ends a block.
type Override func(s *Script)

// VarRef is an opaque reference to a script variable slot, produced by
// the host's argument plumbing.
type VarRef any

// Host is the capability interface supplied by the embedding
// environment. The interpreter consumes it as-is: the handler table,
// the default handler and the argument plumbing all live on the other
// side of this boundary and are read-only from here.
type Host interface {
	// DefaultHandler returns the handler for every opcode at or above
	// the table range.
	DefaultHandler() Handler

	// TableHandler returns the handler stored at the given byte offset
	// into the table of 8-byte entries. Offsets come from
	// HandlerOffset; anything out of range is a fatal fault, not a
	// wraparound.
	TableHandler(offset uint64) Handler

	// ResolveContext derives the "self" reference a table handler must
	// receive. The host ABI wants a different pointer than the script
	// itself for some handler ranges; the transform is the host's
	// secret, keyed by the per-entry adjustment value next to the
	// handler slot.
	ResolveContext(s *Script, offset uint64) *Script

	// Argument plumbing, pass-through to the host.
	ReadValueArgs(s *Script, count int)
	ReadVariableArg(s *Script) VarRef
	UpdateBoolean(s *Script, flag bool)
}

// TableEntry is one 16-byte pair in a handler table: the handler slot
// and the adjacent context-adjustment value.
type TableEntry struct {
	Handler Handler
	Adjust  uint64
}

// TableHost is an in-memory Host over a handler table held as entry
// pairs. Entry i covers byte offsets [16i, 16i+16). Embedders that own
// a real table populate one of these; tests use it as a recording fake.
type TableHost struct {
	Default Handler
	Entries []TableEntry

	// Context, when set, applies the per-entry adjustment. When nil
	// the script itself is the context.
	Context func(s *Script, adjust uint64) *Script

	// Optional argument plumbing. Nil funcs are no-ops.
	OnReadValueArgs   func(s *Script, count int)
	OnReadVariableArg func(s *Script) VarRef
	OnUpdateBoolean   func(s *Script, flag bool)
}

// DefaultHandler implements Host.
func (h *TableHost) DefaultHandler() Handler {
	return h.Default
}

// TableHandler implements Host. It fails fast on a malformed offset:
// that means an unsupported opcode value or a corrupted buffer, never
// something to paper over.
func (h *TableHost) TableHandler(offset uint64) Handler {
	return h.entry(offset).Handler
}

// ResolveContext implements Host.
func (h *TableHost) ResolveContext(s *Script, offset uint64) *Script {
	if h.Context == nil {
		return s
	}
	return h.Context(s, h.entry(offset).Adjust)
}

func (h *TableHost) entry(offset uint64) TableEntry {
	idx := offset / 16
	if offset%16 != 0 || idx >= uint64(len(h.Entries)) {
		panic(fmt.Sprintf("handler table offset 0x%x out of range (%d entries)", offset, len(h.Entries)))
	}
	return h.Entries[idx]
}

// ReadValueArgs implements Host.
func (h *TableHost) ReadValueArgs(s *Script, count int) {
	if h.OnReadValueArgs != nil {
		h.OnReadValueArgs(s, count)
	}
}

// ReadVariableArg implements Host.
func (h *TableHost) ReadVariableArg(s *Script) VarRef {
	if h.OnReadVariableArg != nil {
		return h.OnReadVariableArg(s)
	}
	return nil
}

// UpdateBoolean implements Host.
func (h *TableHost) UpdateBoolean(s *Script, flag bool) {
	if h.OnUpdateBoolean != nil {
		h.OnUpdateBoolean(s, flag)
	}
}
