// Package buildinfo holds the immutable module-level constants shared
// across SwarmTorch's core engines: schema versions, domain-separation
// tags, and the default bounds every engine builds on.
package buildinfo

const (
	// SchemaVersion is the current GraphV1 / dataset schema version.
	SchemaVersion = 1

	// ProjectCodeRef is filled into a node's code_ref when the caller
	// leaves it empty, identifying this runtime as the producer.
	ProjectCodeRef = "swarmtorch-core"
)

// Domain-separation tags. These are prepended verbatim to every preimage
// they govern and must never change shape without a version bump.
const (
	// EnvelopeDomainTag binds the envelope signing preimage.
	EnvelopeDomainTag = "swarmtorch.envelope.v0"

	// DerivedSourcePrefix prefixes a derived (non-root) asset's placeholder
	// source descriptor: "derived_v0:" + asset_key.
	DerivedSourcePrefix = "derived_v0:"

	// NoSchemaTag is the placeholder schema format used when a materialized
	// output declares no schema.
	NoSchemaTag = "no_schema_v0"

	// RootSourceTag is the placeholder source content type for a root
	// (non-derived) source with no recorded content type.
	RootSourceTag = "root_source_v0"
)

// Bounds and defaults.
const (
	// MaxSourceURILen is the maximum accepted length of a SourceDescriptor URI.
	MaxSourceURILen = 2048

	// MaxEtagOrVersionLen is the maximum accepted length of an etag/version string.
	MaxEtagOrVersionLen = 512

	// DefaultReplayCapacity is the default number of peers tracked by a ReplayGuard.
	DefaultReplayCapacity = 1000

	// SequenceToleranceWindow is the reorder window width used by ReplayGuard.
	SequenceToleranceWindow uint64 = 16

	// DefaultMaxClockSkewSeconds bounds envelope timestamp freshness.
	DefaultMaxClockSkewSeconds uint32 = 60

	// DefaultGradientMaxNorm is the default L2-norm bound for gradient validation.
	DefaultGradientMaxNorm = 10.0

	// DefaultGradientMaxCoordinate is the default per-coordinate bound.
	DefaultGradientMaxCoordinate = 100.0
)
