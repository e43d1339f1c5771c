package vm

// Opcodes below 0xa8c are handled by functions from a table; the rest
// go to the host's default handler, the "default case" of the giant
// switch the host dispatches through.
const defaultHandlerMin = 0xa8c

// Fixed transform stepping a byte offset into the handler table from
// the opcode. The magic multiplier and mask come straight from the
// host ABI and are not meaningful on their own.
const (
	offsetMagic = 1374389535
	offsetMask  = 0x3ffffff0
)

// HandlerOffset maps a table-range opcode to its byte offset in the
// handler table. Deterministic, allocation-free, valid for any opcode
// below the default-handler threshold.
func HandlerOffset(opcode uint16) uint64 {
	return (uint64(opcode&opcodeMask) * offsetMagic >> 33) & offsetMask
}

// ResolveHandler picks the handler for an opcode along with the
// context reference it must receive. Table-range opcodes also get
// their context adjusted by the host; the default handler always
// receives the script unchanged.
func ResolveHandler(h Host, s *Script, opcode uint16) (Handler, *Script) {
	if opcode >= defaultHandlerMin {
		return h.DefaultHandler(), s
	}
	offset := HandlerOffset(opcode)
	return h.TableHandler(offset), h.ResolveContext(s, offset)
}
