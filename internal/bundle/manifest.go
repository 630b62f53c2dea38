package bundle

import "github.com/swarmic/SwarmTorch/internal/buildinfo"

// HashAlgo is the only digest algorithm manifest.json ever records.
const HashAlgo = "sha256"

// ManifestEntry records one file's path, size, and digest at finalize time.
type ManifestEntry struct {
	Path     string `json:"path"`
	SHA256   string `json:"sha256"`
	Bytes    int64  `json:"bytes"`
	Required bool   `json:"required"`
	// ObjectType, if set, informationally classifies an artifacts/ entry
	// (e.g. "transcript", "canonical-bytes", "step-proof"). It is never
	// consulted for gating — purely descriptive.
	ObjectType string `json:"object_type,omitempty"`
}

// Manifest is the persisted manifest.json: a recursive, path-sorted listing
// of every file in the bundle with its digest, plus the run it belongs to.
type Manifest struct {
	SchemaVersion int             `json:"schema_version"`
	RunID         string          `json:"run_id"`
	HashAlgo      string          `json:"hash_algo"`
	Entries       []ManifestEntry `json:"entries"`
}

// newManifest starts an empty manifest for runID at the current schema
// version.
func newManifest(runID string) Manifest {
	return Manifest{
		SchemaVersion: buildinfo.SchemaVersion,
		RunID:         runID,
		HashAlgo:      HashAlgo,
	}
}

// requiredSet indexes RequiredFiles for required-flag lookups while walking.
func requiredSet() map[string]struct{} {
	m := make(map[string]struct{})
	for _, p := range RequiredFiles() {
		m[p] = struct{}{}
	}
	return m
}

// ValidationReport is the read-side summary of validate_manifest(): every
// entry checked, with the specific mismatches found rather than a bare
// pass/fail.
type ValidationReport struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue names a single manifest disagreement: a missing file, a
// size mismatch, or a digest mismatch.
type ValidationIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
