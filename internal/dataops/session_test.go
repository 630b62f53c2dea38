package dataops

import (
	"path/filepath"
	"testing"

	"github.com/swarmic/SwarmTorch/internal/bundle"
	"github.com/swarmic/SwarmTorch/internal/fingerprint"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

func newTestSink(t *testing.T) *bundle.ArtifactSink {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "run")
	sink, err := bundle.CreateSink(dir, "deadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sink
}

func ingestNode(key string) graph.NodeV1 {
	return graph.NodeV1{
		NodeKey:        key,
		NodeID:         graph.NodeV1{NodeKey: key}.DeriveID().String(),
		OpKind:         graph.OpKindData,
		OpType:         "ingest",
		ExecutionTrust: graph.TrustCore,
		Outputs:        []graph.AssetRef{{AssetKey: "raw"}},
	}
}

func transformNode(key string, inputKey, outputKey string, trust graph.ExecutionTrust) graph.NodeV1 {
	n := graph.NodeV1{
		NodeKey:        key,
		OpKind:         graph.OpKindData,
		OpType:         "transform",
		ExecutionTrust: trust,
		Inputs:         []graph.AssetRef{{AssetKey: inputKey}},
		Outputs:        []graph.AssetRef{{AssetKey: outputKey}},
	}
	n = graph.NormalizeNode(n)
	return n
}

func TestRegisterSource_PopulatesRegistry(t *testing.T) {
	sink := newTestSink(t)
	s, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node := ingestNode("ingest-1")
	entry, err := s.RegisterSource("raw", Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.AssetKey != "raw" || entry.Trust != Trusted {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(s.Registry()) != 1 {
		t.Fatalf("expected 1 registry entry, got %d", len(s.Registry()))
	}
}

func TestMaterializeNodeOutputs_CoreTransformStaysTrusted(t *testing.T) {
	sink := newTestSink(t)
	s, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest := ingestNode("ingest-1")
	if _, err := s.RegisterSource("raw", Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := transformNode("transform-1", "raw", "clean", graph.TrustCore)
	entries, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}}, 1000, false, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Trust != Trusted {
		t.Fatalf("expected trusted output, got %v", entries[0].Trust)
	}
	if len(s.Lineage()) != 1 {
		t.Fatalf("expected 1 lineage edge, got %d", len(s.Lineage()))
	}
}

func TestMaterializeNodeOutputs_UntrustedInputPropagates(t *testing.T) {
	sink := newTestSink(t)
	s, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest := ingestNode("ingest-1")
	if _, err := s.RegisterSource("raw", Untrusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := transformNode("transform-1", "raw", "clean", graph.TrustCore)
	entries, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}}, 1000, false, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Trust != Untrusted {
		t.Fatalf("expected untrusted propagation, got %v", entries[0].Trust)
	}
}

func TestMaterializeNodeOutputs_NonCoreExecutionMarksUnsafe(t *testing.T) {
	sink := newTestSink(t)
	s, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest := ingestNode("ingest-1")
	if _, err := s.RegisterSource("raw", Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	node := transformNode("transform-1", "raw", "clean", graph.TrustUnsafeExtension)
	entries, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}}, 1000, false, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Trust != Untrusted {
		t.Fatalf("expected untrusted output for non-core execution trust")
	}
}

func TestMaterializeNodeOutputs_RejectsDuplicateOutputKeys(t *testing.T) {
	sink := newTestSink(t)
	s, _ := NewSession(sink)
	node := transformNode("transform-1", "raw", "clean", graph.TrustCore)
	node.Outputs = append(node.Outputs, graph.AssetRef{AssetKey: "clean"})
	_, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}, {AssetKey: "clean"}}, 1000, false, 5)
	if err == nil {
		t.Fatalf("expected duplicate asset_key rejection")
	}
}

func TestMaterializeNodeOutputs_RejectsUndeclaredOutput(t *testing.T) {
	sink := newTestSink(t)
	s, _ := NewSession(sink)
	node := transformNode("transform-1", "raw", "clean", graph.TrustCore)
	_, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "not-declared"}}, 1000, false, 5)
	if err == nil {
		t.Fatalf("expected undeclared output rejection")
	}
}

func TestMaterializeNodeOutputs_RejectsMissingInput(t *testing.T) {
	sink := newTestSink(t)
	s, _ := NewSession(sink)
	node := transformNode("transform-1", "missing-input", "clean", graph.TrustCore)
	_, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}}, 1000, false, 5)
	if err == nil {
		t.Fatalf("expected missing-input rejection")
	}
}

func TestFinalize_ManifestValidatesAfterFinalize(t *testing.T) {
	sink := newTestSink(t)
	s, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest := ingestNode("ingest-1")
	if _, err := s.RegisterSource("raw", Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node := transformNode("transform-1", "raw", "clean", graph.TrustCore)
	if _, err := s.MaterializeNodeOutputs(node, []MaterializeOutput{{AssetKey: "clean"}}, 1000, false, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Finalize(); err != nil {
		t.Fatalf("unexpected error finalizing: %v", err)
	}
	if _, err := sink.ValidateManifest(); err != nil {
		t.Fatalf("expected manifest to validate after finalize: %v", err)
	}
}

func TestSession_ReopensExistingRegistry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	sink, err := bundle.CreateSink(dir, "deadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s1, err := NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ingest := ingestNode("ingest-1")
	if _, err := s1.RegisterSource("raw", Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := bundle.Open(dir, "deadbeefdeadbeefdeadbeefdeadbeef")
	sink2 := bundle.NewSink(reopened)
	s2, err := NewSession(sink2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s2.Registry()) != 1 {
		t.Fatalf("expected reopened session to see the registered source, got %d entries", len(s2.Registry()))
	}
}
