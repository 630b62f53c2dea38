// Package dataops implements the only correct way to mutate a bundle's
// registry and lineage state. It composes internal/bundle for persistence
// and internal/fingerprint for the pure derivation rules, owning the
// in-memory ordered maps and the register_source /
// materialize_node_outputs transactions: validate, then mutate, then flush.
package dataops

import (
	"encoding/hex"

	"github.com/swarmic/SwarmTorch/internal/fingerprint"
	"github.com/swarmic/SwarmTorch/internal/graph"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// TrustClass is a dataset or node's declared trust tier.
type TrustClass string

const (
	Trusted   TrustClass = "trusted"
	Untrusted TrustClass = "untrusted"
)

// DatasetEntry is one registry record, keyed by AssetKey.
type DatasetEntry struct {
	AssetKey            string                        `json:"asset_key"`
	FingerprintV0       string                        `json:"fingerprint_v0"`
	SourceFingerprintV0 string                        `json:"source_fingerprint_v0"`
	SchemaHashV0        string                        `json:"schema_hash_v0"`
	RecipeHashV0        string                        `json:"recipe_hash_v0"`
	Trust               TrustClass                    `json:"trust"`
	Source              *fingerprint.SourceDescriptor `json:"source,omitempty"`
	Schema              *fingerprint.SchemaDescriptor `json:"schema,omitempty"`
	LicenseFlags        []string                      `json:"license_flags,omitempty"`
	PiiTags             []string                      `json:"pii_tags,omitempty"`
}

// LineageEdge connects one input fingerprint to one output fingerprint via
// the node that produced it. Dedup key: (InputFp, OutputFp, NodeID).
type LineageEdge struct {
	InputFingerprintV0  string `json:"input_fingerprint_v0"`
	OutputFingerprintV0 string `json:"output_fingerprint_v0"`
	NodeID              string `json:"node_id"`
	OpKind              string `json:"op_kind"`
}

func lineageKey(e LineageEdge) string {
	return e.InputFingerprintV0 + "|" + e.OutputFingerprintV0 + "|" + e.NodeID
}

// CacheDecision is the v2 materialization record's cache outcome.
type CacheDecision string

const (
	CacheHit     CacheDecision = "hit"
	CacheMiss    CacheDecision = "miss"
	CacheBypass  CacheDecision = "bypass"
	CacheUnknown CacheDecision = "unknown"
)

// RecordStatus is the v2 materialization record's terminal status.
type RecordStatus string

const (
	StatusOk      RecordStatus = "ok"
	StatusError   RecordStatus = "error"
	StatusSkipped RecordStatus = "skipped"
)

// MaterializationRecordV2 is the preferred append-only materialization
// shape, superseding v1 with an explicit cache decision and unsafe reasons.
type MaterializationRecordV2 struct {
	SchemaVersion   int      `json:"schema_version"`
	RecordSeq       uint64   `json:"record_seq"`
	TsUnixNanos     int64    `json:"ts_unix_nanos"`
	AssetKey        string   `json:"asset_key"`
	FingerprintV0   string   `json:"fingerprint_v0"`
	NodeID          string   `json:"node_id"`
	NodeDefHash     string   `json:"node_def_hash"`
	OpType          string   `json:"op_type"`
	InputKeys       []string `json:"input_keys,omitempty"`
	InputFps        []string `json:"input_fps,omitempty"`
	Rows            *int64   `json:"rows,omitempty"`
	Bytes           *int64   `json:"bytes,omitempty"`
	CacheDecision   CacheDecision `json:"cache_decision"`
	CacheReason     string   `json:"cache_reason,omitempty"`
	CacheKeyV0      string   `json:"cache_key_v0,omitempty"`
	DurationMs      *int64   `json:"duration_ms,omitempty"`
	QualityFlags    []string `json:"quality_flags,omitempty"`
	UnsafeSurface   bool     `json:"unsafe_surface"`
	UnsafeReasons   []string `json:"unsafe_reasons,omitempty"`
	Status          RecordStatus `json:"status"`
	ErrorCode       string   `json:"error_code,omitempty"`
}

const materializationSchemaVersion = 2

func hexFp(fp [32]byte) string { return hex.EncodeToString(fp[:]) }

// parseFp decodes a lowercase-hex fingerprint string as stored in the
// registry. Malformed hex is fail-closed.
func parseFp(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) != 64 {
		return out, swarmerr.Newf(swarmerr.KindValidationFailure,
			"fingerprint_v0: expected 64 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, swarmerr.Wrap(swarmerr.KindValidationFailure, "fingerprint_v0: invalid hex", err)
	}
	copy(out[:], b)
	return out, nil
}

// inputSnapshot captures one input asset's state before any registry
// mutation, so an output key re-using an input key never cross-contaminates
// the lineage edge.
type inputSnapshot struct {
	assetKey string
	fp       [32]byte
	trust    TrustClass
}

// anyUntrusted reports whether any snapshot is untrusted.
func anyUntrusted(snaps []inputSnapshot) bool {
	for _, s := range snaps {
		if s.trust == Untrusted {
			return true
		}
	}
	return false
}

// outputTrust derives an output's trust class: untrusted if any input was
// untrusted or the producing node runs outside core execution trust.
func outputTrust(anyUntrustedInput bool, nodeTrust graph.ExecutionTrust) TrustClass {
	if anyUntrustedInput || nodeTrust != graph.TrustCore {
		return Untrusted
	}
	return Trusted
}
