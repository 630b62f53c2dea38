package dataops

// MaterializationRecordV1 is the legacy append-only shape readers must
// still accept. Writers in this codebase only ever emit v2
// (internal/bundle.Bundle.AppendMaterialization with MaterializationRecordV2);
// v1 exists solely so ReportLoader can read runs produced before the v2
// upgrade.
type MaterializationRecordV1 struct {
	SchemaVersion int      `json:"schema_version"`
	TsUnixNanos   int64    `json:"ts_unix_nanos"`
	AssetKey      string   `json:"asset_key"`
	FingerprintV0 string   `json:"fingerprint_v0"`
	NodeID        string   `json:"node_id"`
	NodeDefHash   string   `json:"node_def_hash"`
	Rows          *int64   `json:"rows,omitempty"`
	Bytes         *int64   `json:"bytes,omitempty"`
	CacheHit      *bool    `json:"cache_hit,omitempty"`
	DurationMs    *int64   `json:"duration_ms,omitempty"`
	QualityFlags  []string `json:"quality_flags,omitempty"`
	UnsafeSurface bool     `json:"unsafe_surface"`
}

// PromoteToV2 implements the materialization compatibility view: a v1
// record is promoted with op_type="unknown", cache_decision derived from
// cache_hit, and unsafe_reasons=[missing_provenance] with unsafe_surface
// forced true — a v1 record never carries enough provenance detail for a
// reader to trust its own unsafe_surface bit.
func (v1 MaterializationRecordV1) PromoteToV2() MaterializationRecordV2 {
	decision := CacheUnknown
	if v1.CacheHit != nil {
		if *v1.CacheHit {
			decision = CacheHit
		} else {
			decision = CacheMiss
		}
	}
	return MaterializationRecordV2{
		SchemaVersion: materializationSchemaVersion,
		TsUnixNanos:   v1.TsUnixNanos,
		AssetKey:      v1.AssetKey,
		FingerprintV0: v1.FingerprintV0,
		NodeID:        v1.NodeID,
		NodeDefHash:   v1.NodeDefHash,
		OpType:        "unknown",
		Rows:          v1.Rows,
		Bytes:         v1.Bytes,
		CacheDecision: decision,
		DurationMs:    v1.DurationMs,
		QualityFlags:  v1.QualityFlags,
		UnsafeSurface: true,
		UnsafeReasons: []string{"missing_provenance"},
		Status:        StatusOk,
	}
}
