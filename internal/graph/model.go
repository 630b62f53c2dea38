// Package graph implements the typed DAG model: NodeV1, edges, op kinds,
// execution trust classes, node-id derivation, and the canonical
// node-definition hash that every fingerprint rule builds on.
package graph

import (
	"encoding/hex"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/canon"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// OpKind is the wire op-kind enum (snake_case on the wire).
type OpKind string

const (
	OpKindData       OpKind = "data"
	OpKindTrain      OpKind = "train"
	OpKindComms      OpKind = "comms"
	OpKindGovernance OpKind = "governance"
	OpKindSystem     OpKind = "system"
)

func (k OpKind) Valid() bool {
	switch k {
	case OpKindData, OpKindTrain, OpKindComms, OpKindGovernance, OpKindSystem:
		return true
	}
	return false
}

// ExecutionTrust is the node's declared execution trust class.
type ExecutionTrust string

const (
	TrustCore                ExecutionTrust = "core"
	TrustSandboxedExtension  ExecutionTrust = "sandboxed_extension"
	TrustUnsafeExtension     ExecutionTrust = "unsafe_extension"
)

func (t ExecutionTrust) Valid() bool {
	switch t {
	case TrustCore, TrustSandboxedExtension, TrustUnsafeExtension:
		return true
	}
	return false
}

// AssetRef names a single asset by its content-addressed key.
type AssetRef struct {
	AssetKey string `json:"asset_key"`
}

// NodeV1 is one operation in the run graph.
type NodeV1 struct {
	NodeKey          string         `json:"node_key"`
	NodeID           string         `json:"node_id,omitempty"`
	OpKind           OpKind         `json:"op_kind"`
	OpType           string         `json:"op_type"`
	Inputs           []AssetRef     `json:"inputs"`
	Outputs          []AssetRef     `json:"outputs"`
	Params           canon.Value    `json:"params"`
	CodeRef          string         `json:"code_ref,omitempty"`
	ExecutionTrust   ExecutionTrust `json:"execution_trust"`
	UnsafeSurface    *bool          `json:"unsafe_surface,omitempty"`
	NodeDefHash      string         `json:"node_def_hash,omitempty"`
}

// Edge connects two nodes by node_key.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphV1 is the typed DAG persisted as graph.json.
type GraphV1 struct {
	SchemaVersion int     `json:"schema_version"`
	GraphID       string  `json:"graph_id,omitempty"`
	Nodes         []NodeV1 `json:"nodes"`
	Edges         []Edge   `json:"edges"`
}

// NewGraph creates an empty GraphV1 at the current schema version.
func NewGraph(graphID string) *GraphV1 {
	return &GraphV1{SchemaVersion: buildinfo.SchemaVersion, GraphID: graphID}
}

// CanonValue implements canon.Encodable for node-definition hashing. The
// field order is fixed: schema_version, op_kind, op_type, code_ref, inputs,
// outputs, params — this exact order is the node_def_hash definition.
func (n NodeV1) CanonValue() canon.Value {
	o := canon.NewObject()
	o.Set("schema_version", canon.I64(int64(buildinfo.SchemaVersion)))
	o.Set("op_kind", canon.Str(string(n.OpKind)))
	o.Set("op_type", canon.Str(n.OpType))
	if n.CodeRef == "" {
		o.Set("code_ref", canon.Null())
	} else {
		o.Set("code_ref", canon.Str(n.CodeRef))
	}
	o.Set("inputs", assetRefsToCanon(n.Inputs))
	o.Set("outputs", assetRefsToCanon(n.Outputs))
	o.Set("params", n.Params)
	return canon.Obj(o)
}

func assetRefsToCanon(refs []AssetRef) canon.Value {
	items := make([]canon.Value, len(refs))
	for i, r := range refs {
		items[i] = canon.Str(r.AssetKey)
	}
	return canon.ArrSlice(items)
}

// DefHash computes node_def_hash = sha256(postcard(canonical node struct)).
func (n NodeV1) DefHash() [32]byte {
	return canon.Hash(n)
}

// DefHashHex returns the lowercase-hex node_def_hash.
func (n NodeV1) DefHashHex() string {
	h := n.DefHash()
	return hex.EncodeToString(h[:])
}

// DeriveID computes node_id = sha256(node_key)[0:16].
func (n NodeV1) DeriveID() ids.NodeID {
	return ids.DeriveNodeID(n.NodeKey)
}

// InputKeys returns the declared input asset keys in order.
func (n NodeV1) InputKeys() []string {
	out := make([]string, len(n.Inputs))
	for i, r := range n.Inputs {
		out[i] = r.AssetKey
	}
	return out
}

// OutputKeys returns the declared output asset keys in order.
func (n NodeV1) OutputKeys() []string {
	out := make([]string, len(n.Outputs))
	for i, r := range n.Outputs {
		out[i] = r.AssetKey
	}
	return out
}

// HasOutputKey reports whether asset_key is among the node's declared outputs.
func (n NodeV1) HasOutputKey(assetKey string) bool {
	for _, r := range n.Outputs {
		if r.AssetKey == assetKey {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants a NodeV1 must satisfy before
// normalization: non-empty node_key/op_type, valid op_kind/execution_trust.
func (n NodeV1) Validate() error {
	if n.NodeKey == "" {
		return swarmerr.New(swarmerr.KindValidationFailure, "node_key must not be empty")
	}
	if n.OpType == "" {
		return swarmerr.New(swarmerr.KindValidationFailure, "op_type must not be empty")
	}
	if !n.OpKind.Valid() {
		return swarmerr.Newf(swarmerr.KindValidationFailure, "invalid op_kind %q", n.OpKind)
	}
	if !n.ExecutionTrust.Valid() {
		return swarmerr.Newf(swarmerr.KindValidationFailure, "invalid execution_trust %q", n.ExecutionTrust)
	}
	return nil
}
