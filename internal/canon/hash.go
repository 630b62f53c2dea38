package canon

import "crypto/sha256"

// encodeErrorTag is the well-known domain tag whose hash becomes the
// sentinel digest returned when encoding fails. Encode failures are not
// expected in practice (the Value tree has no cycles and bounded depth),
// but Hash must remain a total function: it never panics.
const encodeErrorTag = "swarmtorch.canon.encode_error.v0"

var sentinelDigest = sha256.Sum256([]byte(encodeErrorTag))

// Hash computes sha256(postcard(e.CanonValue())). If encoding fails for any
// reason, Hash degrades to a fixed sentinel digest rather than panicking,
// so that downstream invariants (32-byte output, total function) always
// hold.
func Hash(e Encodable) [32]byte {
	return HashValue(e.CanonValue())
}

// HashValue hashes a Value directly, without requiring an Encodable wrapper.
func HashValue(v Value) [32]byte {
	buf, err := Encode(v)
	if err != nil {
		return sentinelDigest
	}
	return sha256.Sum256(buf)
}

// SentinelDigest exposes the fixed fallback digest for tests and callers
// that need to recognize a degraded hash.
func SentinelDigest() [32]byte { return sentinelDigest }
