package fingerprint

import (
	"github.com/swarmic/SwarmTorch/internal/canon"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

// upstreamFpsCanon renders an ordered list of 32-byte fingerprints as a
// canon array of lowercase-hex strings, preserving caller-supplied order.
func upstreamFpsCanon(upstreamFps [][32]byte) canon.Value {
	items := make([]canon.Value, len(upstreamFps))
	for i, fp := range upstreamFps {
		items[i] = canon.Str(hexOf(fp))
	}
	return canon.ArrSlice(items)
}

func hexOf(fp [32]byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range fp {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}

// RecipeHashV0 computes sha256(postcard({node_def_hash_v1(node),
// upstream_fps})) — upstream_fps is an ordered list supplied by the
// caller, never re-derived here.
func RecipeHashV0(node graph.NodeV1, upstreamFps [][32]byte) [32]byte {
	o := canon.NewObject()
	o.Set("node_def_hash", canon.Str(node.DefHashHex()))
	o.Set("upstream_fps", upstreamFpsCanon(upstreamFps))
	return canon.HashValue(canon.Obj(o))
}
