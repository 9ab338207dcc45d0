// Package vm implements the remix virtual machine.
//
// This package contains:
//   - Exact rational, array and string values
//   - Opcode definitions, metadata and disassembly
//   - The single-frame stack interpreter
//   - The CBOR program image codec
package vm
