package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/swarmic/SwarmTorch/internal/bundle"
	"github.com/swarmic/SwarmTorch/internal/dataops"
	"github.com/swarmic/SwarmTorch/internal/fingerprint"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

const testRunID = "cafebabecafebabecafebabecafebabe"

func buildRun(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "run")
	sink, err := bundle.CreateSink(dir, testRunID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ingest := graph.NodeV1{NodeKey: "ingest-1", OpKind: graph.OpKindData, OpType: "ingest", ExecutionTrust: graph.TrustCore, Outputs: []graph.AssetRef{{AssetKey: "raw"}}}
	ingest = graph.NormalizeNode(ingest)
	transform := graph.NodeV1{NodeKey: "transform-1", OpKind: graph.OpKindData, OpType: "passthrough", ExecutionTrust: graph.TrustCore, Inputs: []graph.AssetRef{{AssetKey: "raw"}}, Outputs: []graph.AssetRef{{AssetKey: "clean"}}}
	transform = graph.NormalizeNode(transform)

	g := &graph.GraphV1{SchemaVersion: 1, Nodes: []graph.NodeV1{ingest, transform}}
	if _, err := sink.WriteGraph(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := dataops.NewSession(sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := session.RegisterSource("raw", dataops.Trusted, fingerprint.SourceDescriptor{URI: "s3://demo/raw.parquet"}, nil, ingest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := int64(10)
	if _, err := session.MaterializeNodeOutputs(transform, []dataops.MaterializeOutput{{AssetKey: "clean", Rows: &rows}}, 1000, false, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := session.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return dir
}

func TestLoad_ValidRunProducesReport(t *testing.T) {
	dir := buildRun(t)
	rep, err := Load(dir, testRunID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(rep.Graph.Nodes))
	}
	if len(rep.Registry) != 2 {
		t.Fatalf("expected 2 registry entries, got %d", len(rep.Registry))
	}
	if len(rep.Timeline) != 1 {
		t.Fatalf("expected 1 timeline row, got %d", len(rep.Timeline))
	}
	if !rep.ManifestValid.Valid {
		t.Fatalf("expected manifest to validate")
	}
}

func TestLoad_FailsOnTamperedFile(t *testing.T) {
	dir := buildRun(t)
	b := bundle.Open(dir, testRunID)
	if err := b.WriteJSON(bundle.RunFile, map[string]string{"run_id": "tampered"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Load(dir, testRunID); err == nil {
		t.Fatalf("expected tampered run to fail manifest validation")
	}
}

func TestIsNodeUnsafe_CoreWithTrustedInputsIsSafe(t *testing.T) {
	node := graph.NodeV1{ExecutionTrust: graph.TrustCore, Inputs: []graph.AssetRef{{AssetKey: "a"}}}
	registry := map[string]dataops.DatasetEntry{"a": {AssetKey: "a", Trust: dataops.Trusted}}
	if IsNodeUnsafe(node, registry) {
		t.Fatalf("expected core node with trusted inputs to be safe")
	}
}

func TestIsNodeUnsafe_NonCoreIsUnsafe(t *testing.T) {
	node := graph.NodeV1{ExecutionTrust: graph.TrustSandboxedExtension}
	if !IsNodeUnsafe(node, map[string]dataops.DatasetEntry{}) {
		t.Fatalf("expected non-core node to be unsafe")
	}
}

func TestIsNodeUnsafe_MissingInputFailsClosed(t *testing.T) {
	node := graph.NodeV1{ExecutionTrust: graph.TrustCore, Inputs: []graph.AssetRef{{AssetKey: "missing"}}}
	if !IsNodeUnsafe(node, map[string]dataops.DatasetEntry{}) {
		t.Fatalf("expected missing input to fail closed as unsafe")
	}
}

func TestIsNodeUnsafe_UntrustedInputIsUnsafe(t *testing.T) {
	node := graph.NodeV1{ExecutionTrust: graph.TrustCore, Inputs: []graph.AssetRef{{AssetKey: "a"}}}
	registry := map[string]dataops.DatasetEntry{"a": {AssetKey: "a", Trust: dataops.Untrusted}}
	if !IsNodeUnsafe(node, registry) {
		t.Fatalf("expected untrusted input to mark node unsafe")
	}
}

func TestLoad_TimelineDetailIncludesNodeIdentity(t *testing.T) {
	dir := buildRun(t)
	rep, err := Load(dir, testRunID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := rep.Timeline[0]
	if row.Record.NodeID == "" || row.Record.NodeDefHash == "" ||
		!strings.Contains(row.Detail, "node_id="+row.Record.NodeID) ||
		!strings.Contains(row.Detail, "node_def_hash="+row.Record.NodeDefHash) {
		t.Fatalf("expected timeline detail to carry node_id/node_def_hash, got %q", row.Detail)
	}
	if row.Unsafe {
		t.Fatalf("expected core transform over trusted input to be safe")
	}
}

func TestLoad_V1CompatibilityPromotion(t *testing.T) {
	dir := buildRun(t)
	b := bundle.Open(dir, testRunID)
	v1 := dataops.MaterializationRecordV1{
		SchemaVersion: 1,
		TsUnixNanos:   2000,
		AssetKey:      "legacy",
		FingerprintV0: "0000000000000000000000000000000000000000000000000000000000000001",
		NodeID:        "deadbeefdeadbeef",
		NodeDefHash:   "deadbeefdeadbeef",
		UnsafeSurface: false,
	}
	if err := b.AppendMaterialization(v1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.FinalizeManifest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rep, err := Load(dir, testRunID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Timeline) != 2 {
		t.Fatalf("expected 2 timeline rows after appending a legacy record, got %d", len(rep.Timeline))
	}
	legacy := rep.Timeline[1]
	if legacy.Record.OpType != "unknown" {
		t.Fatalf("expected promoted v1 record to carry op_type=unknown, got %q", legacy.Record.OpType)
	}
	if !legacy.Record.UnsafeSurface {
		t.Fatalf("expected promoted v1 record to force unsafe_surface=true")
	}
	if !legacy.Unsafe {
		t.Fatalf("expected promoted v1 record to be unsafe (its node is absent from the graph)")
	}
}
