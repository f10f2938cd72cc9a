// Package souris implements a compact, self-describing binary encoding for a
// recursive, dynamically typed key/value store.
//
// Components:
//   - Value: a closed tagged union (character, string, binary, bool,
//     integer, nested Store). One framing byte carries a 3-bit type tag in
//     the top bits and a 5-bit niche in the bottom bits; bool lives entirely
//     in the niche.
//   - Store: either a Map (unique string keys) or an Array. The shape is
//     fixed for the lifetime of a Store. The reserved Map key "Array" always
//     holds an Array-shaped Store and Push on a Map appends to it.
//   - Version header: a 10-byte magic and a 6-byte version tag select the
//     decode routine. Unknown tags are a hard failure.
//
// Value framing:
//
//	+----------+---------------+---------------------+
//	| type (3) | niche/zero (5)| content (optional)  |
//	+----------+---------------+---------------------+
//
//	0b000 char    inline integer of the code point
//	0b001 string  raw UTF-8, length from the enclosing framing
//	0b010 binary  raw bytes, length from the enclosing framing
//	0b011 bool    niche bit 0, no content
//	0b100 int     inline integer (sign in the integer header)
//	0b101 store   a complete nested store
//
// Map layout:
//
//	"SOURISSTOR" 0 "MAP_01" 0 "SIZE" 0 count 0
//	key_len value_len key   (per entry; keys block)
//	value                   (per entry, same order; values block)
//
// Array layout:
//
//	"SOURISSTOR" 0 "ARR_01" 0 count
//	value_len value         (per entry)
//
// All counts and lengths use the inline integer form of package integer.
// Stores written by the earlier non-recursive format ("DADDYSTORE" 0
// "V0_1_0") are still readable; they decode into a Map.
//
// Encoding and decoding are synchronous and allocation-only. A Store is not
// safe for concurrent mutation.
package souris
