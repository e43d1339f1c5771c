// Package vm implements the CLEO script interpreter core.
//
// This package contains:
//   - script buffer and lifecycle management
//   - two-byte opcode word decoding
//   - computed handler-table resolution
//   - per-opcode override dispatch
//   - block-at-a-time execution under an external scheduler
package vm
