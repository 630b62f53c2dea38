package graph

import (
	"testing"

	"github.com/swarmic/SwarmTorch/internal/canon"
)

func sampleNode(assetKey string) NodeV1 {
	p := canon.NewObject()
	p.Set("mode", canon.Str("strict"))
	return NodeV1{
		NodeKey:        "ingest-" + assetKey,
		OpKind:         OpKindData,
		OpType:         "ingest",
		Inputs:         nil,
		Outputs:        []AssetRef{{AssetKey: assetKey}},
		Params:         canon.Obj(p),
		ExecutionTrust: TrustCore,
	}
}

func TestNormalizeNode_DerivesIDAndHash(t *testing.T) {
	n := sampleNode("dataset://ns/raw")
	got := NormalizeNode(n)
	if got.NodeID == "" || len(got.NodeID) != 32 {
		t.Fatalf("expected 32-hex-char node_id, got %q", got.NodeID)
	}
	if got.NodeDefHash == "" || len(got.NodeDefHash) != 64 {
		t.Fatalf("expected 64-hex-char node_def_hash, got %q", got.NodeDefHash)
	}
}

func TestNormalizeNode_Deterministic(t *testing.T) {
	n := sampleNode("dataset://ns/raw")
	a := NormalizeNode(n)
	b := NormalizeNode(n)
	if a.NodeID != b.NodeID || a.NodeDefHash != b.NodeDefHash {
		t.Fatalf("expected deterministic normalization")
	}
}

func TestNormalizeNode_ParamsChangeSensitivity(t *testing.T) {
	n1 := sampleNode("dataset://ns/raw")
	n2 := sampleNode("dataset://ns/raw")
	p2 := canon.NewObject()
	p2.Set("mode", canon.Str("lenient"))
	n2.Params = canon.Obj(p2)

	h1 := NormalizeNode(n1).NodeDefHash
	h2 := NormalizeNode(n2).NodeDefHash
	if h1 == h2 {
		t.Fatalf("expected different params to change node_def_hash")
	}
}

func TestNormalize_Graph(t *testing.T) {
	g := NewGraph("run-1")
	g.Nodes = append(g.Nodes, sampleNode("dataset://ns/a"), sampleNode("dataset://ns/b"))
	out := Normalize(g)
	if len(out.Nodes) != 2 {
		t.Fatalf("expected 2 nodes")
	}
	for _, n := range out.Nodes {
		if n.NodeID == "" || n.NodeDefHash == "" {
			t.Fatalf("expected every node normalized")
		}
	}
	// Input graph must not be mutated.
	if g.Nodes[0].NodeID != "" {
		t.Fatalf("Normalize must not mutate its input")
	}
}

func TestNodeValidate(t *testing.T) {
	n := sampleNode("x")
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := n
	bad.OpKind = "bogus"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for invalid op_kind")
	}
}
