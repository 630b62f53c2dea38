package seams

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/swarmic/SwarmTorch/internal/graph"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// AssetInstance names one concrete asset passed into or returned from an
// OpRunner call: its key, its fingerprint, and an optional location.
type AssetInstance struct {
	AssetKey      string
	FingerprintV0 string
	URI           *string
}

// Span is the single span a runner call emits.
type Span struct {
	SpanID      ids.SpanID
	NodeID      ids.NodeID
	TsUnixNanos int64
}

// SpanEmitter receives the one span each OpRunner.Run call produces. Callers
// typically wire this to an ArtifactSink.AppendSpan adapter; this package
// has no I/O of its own.
type SpanEmitter interface {
	EmitSpan(Span)
}

// OpRunner executes one node given its resolved inputs, emitting exactly
// one span per call.
type OpRunner interface {
	Run(node graph.NodeV1, inputs []AssetInstance, emitter SpanEmitter) ([]AssetInstance, error)
}

// DeriveSpanID computes span_id = sha256(node_id_bytes || ts_nanos_BE)[0:8],
// the deterministic span identifier every reference runner call uses.
func DeriveSpanID(nodeID ids.NodeID, tsUnixNanos int64) ids.SpanID {
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], uint64(tsUnixNanos))

	combined := make([]byte, 0, len(nodeID)+len(tsBytes))
	combined = append(combined, nodeID[:]...)
	combined = append(combined, tsBytes[:]...)

	sum := sha256.Sum256(combined)
	var out ids.SpanID
	copy(out[:], sum[:8])
	return out
}

// referenceOpTypes are the only op_type values ReferenceRunner accepts, all
// metadata-only: they forward inputs to outputs unchanged.
var referenceOpTypes = map[string]struct{}{
	"passthrough": {},
	"filter_rows": {},
	"union":       {},
}

// ReferenceRunner is the minimal OpRunner implementation: a metadata-only
// forwarder for three op types, with no row-level data execution.
type ReferenceRunner struct {
	// TsUnixNanos supplies the timestamp for span-id derivation; injected so
	// the runner has no direct clock dependency.
	TsUnixNanos func() int64
}

// Run forwards inputs to outputs unchanged for a known op_type and emits one
// span, or rejects an unknown op_type without emitting anything.
func (r ReferenceRunner) Run(node graph.NodeV1, inputs []AssetInstance, emitter SpanEmitter) ([]AssetInstance, error) {
	if _, ok := referenceOpTypes[node.OpType]; !ok {
		return nil, swarmerr.Newf(swarmerr.KindValidationFailure, "unknown op_type %q", node.OpType).WithField("op_type")
	}

	ts := r.TsUnixNanos()
	span := Span{
		SpanID:      DeriveSpanID(node.DeriveID(), ts),
		NodeID:      node.DeriveID(),
		TsUnixNanos: ts,
	}
	if emitter != nil {
		emitter.EmitSpan(span)
	}

	outputs := make([]AssetInstance, len(inputs))
	copy(outputs, inputs)
	return outputs, nil
}
