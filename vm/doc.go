// Package vm implements the interpreter backend.
//
// This package contains:
//   - The fixed-size byte tape and its wraparound pointer policy
//   - Byte-oriented input/output capabilities shared with the jit package
//   - The op interpreter
//   - Tape snapshots
package vm
