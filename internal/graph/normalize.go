package graph

// NormalizeNode derives node_id and node_def_hash for a single node,
// returning the updated copy. It never mutates the caller's value.
func NormalizeNode(n NodeV1) NodeV1 {
	n.NodeID = n.DeriveID().String()
	n.NodeDefHash = n.DefHashHex()
	return n
}

// Normalize fills derived ids and hashes for every node in the graph,
// returning a new GraphV1 (the input is never mutated).
func Normalize(g *GraphV1) *GraphV1 {
	out := &GraphV1{
		SchemaVersion: g.SchemaVersion,
		GraphID:       g.GraphID,
		Edges:         append([]Edge(nil), g.Edges...),
	}
	out.Nodes = make([]NodeV1, len(g.Nodes))
	for i, n := range g.Nodes {
		out.Nodes[i] = NormalizeNode(n)
	}
	return out
}

// FillDefaultCodeRef sets code_ref on every node missing one, to
// defaultRef. Used by the bundle layer before normalization: fill missing
// code_ref with the project's own identifier, normalize all nodes, then
// atomically rewrite graph.json.
func FillDefaultCodeRef(g *GraphV1, defaultRef string) {
	for i := range g.Nodes {
		if g.Nodes[i].CodeRef == "" {
			g.Nodes[i].CodeRef = defaultRef
		}
	}
}

// ByNodeKey indexes a graph's nodes by node_key for lookup.
func ByNodeKey(g *GraphV1) map[string]NodeV1 {
	m := make(map[string]NodeV1, len(g.Nodes))
	for _, n := range g.Nodes {
		m[n.NodeKey] = n
	}
	return m
}
