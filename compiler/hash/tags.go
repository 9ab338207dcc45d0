package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the syntax tree serialization format.
//
// These tags are FROZEN. Once assigned, a tag byte must never change
// meaning. Adding new tags is fine; changing existing ones breaks every
// previously computed content hash and every cache entry keyed by one.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing content hashes.
const HashVersion byte = 1

// Node and value tags.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Constant pool values
	TagFractionValue byte = 0x01
	TagStringValue   byte = 0x02
	TagArrayValue    byte = 0x03

	// Expressions
	TagFraction     byte = 0x08
	TagString       byte = 0x09
	TagArrayLiteral byte = 0x0A
	TagLookup       byte = 0x0B
	TagBinop        byte = 0x0C

	// Statements
	TagLetUnlet byte = 0x10
	TagRefUnref byte = 0x11
	TagModop    byte = 0x12
	TagIf       byte = 0x13
	TagCatch    byte = 0x14

	// Structure
	TagFunction byte = 0x18
	TagModule   byte = 0x19
	TagAbsent   byte = 0x1A // missing optional child

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagFractionValue, TagStringValue, TagArrayValue,
	TagFraction, TagString, TagArrayLiteral, TagLookup, TagBinop,
	TagLetUnlet, TagRefUnref, TagModop, TagIf, TagCatch,
	TagFunction, TagModule, TagAbsent,
}
