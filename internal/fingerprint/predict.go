package fingerprint

import "github.com/swarmic/SwarmTorch/internal/graph"

// OutputSpec names a declared output asset and its optional schema.
type OutputSpec struct {
	AssetKey string
	Schema   *SchemaDescriptor
}

// OutputFingerprint pairs an output asset key with its predicted dataset
// fingerprint.
type OutputFingerprint struct {
	AssetKey string
	Fp       [32]byte
}

// PredictOutputFingerprints is pure: for each declared output it computes
// fp = dataset_fingerprint_v0(derived_source_fingerprint_v0(asset_key),
// schema || no_schema, recipe). It never touches a registry — callers
// supply all upstream fingerprints and are responsible for matching
// outputs against the node's declared output set.
func PredictOutputFingerprints(node graph.NodeV1, outputs []OutputSpec, upstreamFps [][32]byte) []OutputFingerprint {
	recipe := RecipeHashV0(node, upstreamFps)
	out := make([]OutputFingerprint, len(outputs))
	for i, spec := range outputs {
		srcFp := DerivedSourceFingerprintV0(spec.AssetKey)
		schemaFp := SchemaHashOrDefault(spec.Schema)
		out[i] = OutputFingerprint{
			AssetKey: spec.AssetKey,
			Fp:       DatasetFingerprintV0(srcFp, schemaFp, recipe),
		}
	}
	return out
}
