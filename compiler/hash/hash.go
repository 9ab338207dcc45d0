// Package hash computes content hashes of lowered functions and modules.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/remix/syntax"
)

// HashFunction computes the SHA-256 content hash of a lowered function.
//
// The hash covers the register-resolved syntax tree and constant pool, so two
// functions that differ only in variable names, whitespace or comments hash
// the same.
func HashFunction(fn *syntax.Function) ([32]byte, error) {
	data, err := SerializeFunction(fn)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// HashModule computes the SHA-256 content hash of a lowered module.
func HashModule(m *syntax.Module) ([32]byte, error) {
	data, err := SerializeModule(m)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Hex renders a hash as lowercase hexadecimal.
func Hex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}
