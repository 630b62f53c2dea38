// Package ids implements the fixed-length identifiers: TraceID, RunID,
// NodeID (16 bytes), SpanID (8 bytes), PeerID (32 bytes), and Signature
// (64 bytes). All textual forms are strict lowercase hex of exact length;
// the all-zero value is rejected on parse.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// TraceID is a 16-byte trace identifier.
type TraceID [16]byte

// RunID is a 16-byte run identifier.
type RunID [16]byte

// NodeID is a 16-byte graph-node identifier.
type NodeID [16]byte

// SpanID is an 8-byte span identifier.
type SpanID [8]byte

// PeerID is a 32-byte peer (public key) identifier.
type PeerID [32]byte

// Signature is a 64-byte Ed25519 signature.
type Signature [64]byte

// String returns the lowercase-hex textual form.
func (t TraceID) String() string { return hex.EncodeToString(t[:]) }
func (r RunID) String() string   { return hex.EncodeToString(r[:]) }
func (n NodeID) String() string  { return hex.EncodeToString(n[:]) }
func (s SpanID) String() string  { return hex.EncodeToString(s[:]) }
func (p PeerID) String() string  { return hex.EncodeToString(p[:]) }
func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// IsZero reports whether the identifier is the all-zero value.
func (t TraceID) IsZero() bool { return isZero(t[:]) }
func (r RunID) IsZero() bool   { return isZero(r[:]) }
func (n NodeID) IsZero() bool  { return isZero(n[:]) }
func (s SpanID) IsZero() bool  { return isZero(s[:]) }
func (p PeerID) IsZero() bool  { return isZero(p[:]) }

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// parseFixed decodes strict lowercase hex of exactly n bytes, rejecting
// uppercase, wrong length, and the all-zero value.
func parseFixed(s string, n int, kind string) ([]byte, error) {
	if len(s) != n*2 {
		return nil, swarmerr.Newf(swarmerr.KindValidationFailure,
			"%s: expected %d hex chars, got %d", kind, n*2, len(s))
	}
	for _, c := range s {
		if strings.ContainsRune("0123456789abcdef", c) {
			continue
		}
		return nil, swarmerr.Newf(swarmerr.KindValidationFailure,
			"%s: non-lowercase-hex character %q", kind, c)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindValidationFailure, kind+": invalid hex", err)
	}
	if isZero(b) {
		return nil, swarmerr.Newf(swarmerr.KindValidationFailure, "%s: all-zero id is invalid", kind)
	}
	return b, nil
}

// ParseTraceID parses a lowercase-hex TraceID.
func ParseTraceID(s string) (TraceID, error) {
	b, err := parseFixed(s, 16, "trace_id")
	var out TraceID
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ParseRunID parses a lowercase-hex RunID.
func ParseRunID(s string) (RunID, error) {
	b, err := parseFixed(s, 16, "run_id")
	var out RunID
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ParseNodeID parses a lowercase-hex NodeID.
func ParseNodeID(s string) (NodeID, error) {
	b, err := parseFixed(s, 16, "node_id")
	var out NodeID
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ParseSpanID parses a lowercase-hex SpanID.
func ParseSpanID(s string) (SpanID, error) {
	b, err := parseFixed(s, 8, "span_id")
	var out SpanID
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ParsePeerID parses a lowercase-hex PeerID.
func ParsePeerID(s string) (PeerID, error) {
	b, err := parseFixed(s, 32, "peer_id")
	var out PeerID
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ParseSignature parses a lowercase-hex Signature. Unlike the identifiers
// above, an all-zero signature is syntactically valid (it will simply fail
// Ed25519 verification) so it is not rejected here.
func ParseSignature(s string) (Signature, error) {
	var out Signature
	if len(s) != 128 {
		return out, swarmerr.Newf(swarmerr.KindValidationFailure,
			"signature: expected 128 hex chars, got %d", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return out, swarmerr.Newf(swarmerr.KindValidationFailure,
				"signature: non-lowercase-hex character %q", c)
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, swarmerr.Wrap(swarmerr.KindValidationFailure, "signature: invalid hex", err)
	}
	copy(out[:], b)
	return out, nil
}

// DeriveNodeID computes node_id = sha256(node_key)[0:16].
func DeriveNodeID(nodeKey string) NodeID {
	sum := sha256.Sum256([]byte(nodeKey))
	var out NodeID
	copy(out[:], sum[:16])
	return out
}

// NewRandomRunID generates a fresh random RunID for callers that have no
// externally-assigned run identifier. A uuid.UUID is exactly 16 bytes, the
// same width as RunID, so it is reused directly rather than hand-rolling a
// second random-byte source.
func NewRandomRunID() RunID {
	u := uuid.New()
	var out RunID
	copy(out[:], u[:])
	return out
}
