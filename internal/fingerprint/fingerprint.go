// Package fingerprint computes stable 64-bit content hashes used to key
// cached parse results and for fast identity comparisons.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Of hashes raw bytes, such as a metadata stream, to a 64-bit key.
func Of(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// OfString hashes a string the same way, for small composite keys such as a
// clock class's namespace/name/uid triple.
func OfString(s string) uint64 {
	return xxhash.Sum64String(s)
}
