package vm

// Overrides maps opcodes to locally supplied handlers, consulted
// before generic table dispatch. It lets a small set of instructions
// (platform-specific sensor and touch checks, mostly) be reimplemented
// without touching decode or table resolution.
type Overrides struct {
	handlers map[uint16]Override
}

// NewOverrides creates an empty registry.
func NewOverrides() *Overrides {
	return &Overrides{handlers: make(map[uint16]Override)}
}

// Register installs an override for an opcode, replacing any previous
// one.
func (o *Overrides) Register(opcode uint16, fn Override) {
	o.handlers[opcode&opcodeMask] = fn
}

// Lookup returns the override for an opcode, or nil. Safe on a nil
// registry.
func (o *Overrides) Lookup(opcode uint16) Override {
	if o == nil {
		return nil
	}
	return o.handlers[opcode&opcodeMask]
}

// Len returns the number of registered overrides.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.handlers)
}
