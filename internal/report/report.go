// Package report implements a read-only reconstruction of a bundle with
// derived safety analysis, recomputed from registry state rather than
// trusted from persisted bits.
package report

import (
	"encoding/json"

	"github.com/dustin/go-humanize"

	"github.com/swarmic/SwarmTorch/internal/bundle"
	"github.com/swarmic/SwarmTorch/internal/dataops"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

// Report is the aggregate a successful Load returns: the normalized graph,
// the dataset registry and lineage, the materialization timeline, and a
// human-readable summary.
type Report struct {
	RunID         string
	Graph         *graph.GraphV1
	Registry      map[string]dataops.DatasetEntry
	Lineage       []dataops.LineageEdge
	Timeline      []TimelineRow
	Spans         []json.RawMessage
	Events        []json.RawMessage
	Metrics       []json.RawMessage
	ManifestValid bundle.ValidationReport
	Summary       Summary
}

// Summary is the human-facing digest of a loaded run, using byte-count
// formatting the way a terminal/HTML report would render it.
type Summary struct {
	NodeCount            int
	DatasetCount         int
	LineageEdgeCount     int
	MaterializationCount int
	UnsafeNodeCount      int
	TotalBytes           int64
	TotalBytesHuman      string
}

// Load opens the bundle at dir for runID, mandatorily validates its
// manifest (tamper evidence), reads and normalizes the graph, reads
// registry/lineage/NDJSON streams, and returns the aggregate. A manifest
// validation failure is fatal — Load never returns a partially-trusted
// Report.
func Load(dir, runID string) (*Report, error) {
	b := bundle.Open(dir, runID)

	validation, err := b.ValidateManifest()
	if err != nil {
		return nil, err
	}

	var rawGraph graph.GraphV1
	if err := b.ReadJSON(bundle.GraphFile, &rawGraph); err != nil {
		return nil, err
	}
	normalized := graph.Normalize(&rawGraph)

	var registry map[string]dataops.DatasetEntry
	if err := b.ReadJSON(bundle.RegistryFile, &registry); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = map[string]dataops.DatasetEntry{}
	}

	var lineage []dataops.LineageEdge
	if err := b.ReadJSON(bundle.LineageFile, &lineage); err != nil {
		return nil, err
	}

	timeline, err := loadTimeline(b, normalized, registry)
	if err != nil {
		return nil, err
	}

	spans, err := loadRawLines(b, bundle.SpansFile)
	if err != nil {
		return nil, err
	}
	events, err := loadRawLines(b, bundle.EventsFile)
	if err != nil {
		return nil, err
	}
	metrics, err := loadRawLines(b, bundle.MetricsFile)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:         runID,
		Graph:         normalized,
		Registry:      registry,
		Lineage:       lineage,
		Timeline:      timeline,
		Spans:         spans,
		Events:        events,
		Metrics:       metrics,
		ManifestValid: validation,
	}
	rep.Summary = summarize(rep)
	return rep, nil
}

func loadRawLines(b *bundle.Bundle, rel string) ([]json.RawMessage, error) {
	lines, err := b.ReadNDJSONLines(rel)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(lines))
	for _, l := range lines {
		out = append(out, json.RawMessage(l))
	}
	return out, nil
}

// IsNodeUnsafe reports the fail-closed node-safety rule: a node is unsafe
// if its execution_trust is not Core, or any declared input is missing
// from the registry, or any declared input is Untrusted.
func IsNodeUnsafe(node graph.NodeV1, registry map[string]dataops.DatasetEntry) bool {
	if node.ExecutionTrust != graph.TrustCore {
		return true
	}
	for _, ref := range node.Inputs {
		entry, ok := registry[ref.AssetKey]
		if !ok {
			return true
		}
		if entry.Trust == dataops.Untrusted {
			return true
		}
	}
	return false
}

func summarize(r *Report) Summary {
	s := Summary{
		NodeCount:            len(r.Graph.Nodes),
		DatasetCount:         len(r.Registry),
		LineageEdgeCount:     len(r.Lineage),
		MaterializationCount: len(r.Timeline),
	}
	byNodeKey := graph.ByNodeKey(r.Graph)
	for _, node := range byNodeKey {
		if IsNodeUnsafe(node, r.Registry) {
			s.UnsafeNodeCount++
		}
	}
	for _, row := range r.Timeline {
		if row.Bytes != nil {
			s.TotalBytes += *row.Bytes
		}
	}
	s.TotalBytesHuman = humanize.Bytes(uint64(maxInt64(s.TotalBytes, 0)))
	return s
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
