package vm

// Engine drives scripts one instruction or one block at a time. It
// owns nothing but the host capability and the override registry; all
// per-script state lives on the Script.
type Engine struct {
	host      Host
	overrides *Overrides
}

// NewEngine creates an engine over a host. overrides may be nil.
func NewEngine(host Host, overrides *Overrides) *Engine {
	return &Engine{host: host, overrides: overrides}
}

// RunNextInstruction executes one instruction of s. The return value
// is the block-boundary signal: true means yield back to the
// scheduler.
func (e *Engine) RunNextInstruction(s *Script) bool {
	// This shouldn't happen, but just in case...
	if !s.active {
		return true
	}

	opcode, _ := s.DecodeNext()

	// Custom implementations win over the host's table.
	if fn := e.overrides.Lookup(opcode); fn != nil {
		fn(s)
		return false
	}

	if opcode == OpTerminate {
		// 0x4e terminates the script, but the host must not be the
		// one to tear down interpreter-owned instances. Going
		// inactive defers destruction to the manager's next sweep.
		s.active = false
		return true
	}

	handler, ctx := ResolveHandler(e.host, s, opcode)
	return handler(ctx, opcode)
}

// RunNextBlock executes instructions until one signals a block
// boundary. The cursor and state persist, so the next call resumes
// exactly where this one yielded.
func (e *Engine) RunNextBlock(s *Script) {
	for !e.RunNextInstruction(s) {
		// Nothing
	}
}

// ReadValueArgs asks the host to consume count value arguments.
func (e *Engine) ReadValueArgs(s *Script, count int) {
	e.host.ReadValueArgs(s, count)
}

// ReadVariableArg asks the host for a reference to the next variable
// argument.
func (e *Engine) ReadVariableArg(s *Script) VarRef {
	return e.host.ReadVariableArg(s)
}

// UpdateBoolean reports an instruction's boolean result to the host.
// The decoder only records the inversion flag; this is the invoking
// layer that actually applies it.
func (e *Engine) UpdateBoolean(s *Script, result bool) {
	if s.invertReturn {
		result = !result
	}
	e.host.UpdateBoolean(s, result)
}
