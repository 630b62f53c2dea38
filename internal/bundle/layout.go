// Package bundle implements the on-disk run directory: graph, NDJSON
// streams, dataset registry/lineage, manifest, atomic JSON writes,
// append-only NDJSON, and the recursive manifest walk/finalize/validate
// pipeline.
package bundle

import "path/filepath"

// Relative paths of every file/dir in the run-directory layout.
const (
	RunFile              = "run.json"
	GraphFile            = "graph.json"
	SpansFile            = "spans.ndjson"
	EventsFile           = "events.ndjson"
	MetricsFile          = "metrics.ndjson"
	DatasetsDir          = "datasets"
	RegistryFile         = "datasets/registry.json"
	LineageFile          = "datasets/lineage.json"
	MaterializationsFile = "datasets/materializations.ndjson"
	ArtifactsDir         = "artifacts"
	ManifestFile         = "manifest.json"
)

// RequiredFiles are the exact eight files that must appear in
// manifest.entries with required=true — manifest.json itself is
// self-excluded and is not among them.
func RequiredFiles() []string {
	return []string{
		RunFile, GraphFile, SpansFile, EventsFile, MetricsFile,
		RegistryFile, LineageFile, MaterializationsFile,
	}
}

// RunsRoot joins "runs" under root, the top-level directory every run
// lives under (runs/<run_id_hex>/).
func RunsRoot(root string) string {
	return filepath.Join(root, "runs")
}

// RunDir computes the run directory path for a given run id hex string.
func RunDir(root, runIDHex string) string {
	return filepath.Join(RunsRoot(root), runIDHex)
}
