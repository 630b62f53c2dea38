package fingerprint

import (
	"strings"

	"github.com/swarmic/SwarmTorch/internal/canon"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

// CacheKeyV0 computes sha256(postcard({node_def_hash, upstream_fps,
// profile_lower})).
func CacheKeyV0(node graph.NodeV1, upstreamFps [][32]byte, executionProfile string) [32]byte {
	o := canon.NewObject()
	o.Set("node_def_hash", canon.Str(node.DefHashHex()))
	o.Set("upstream_fps", upstreamFpsCanon(upstreamFps))
	o.Set("execution_profile", canon.Str(strings.ToLower(strings.TrimSpace(executionProfile))))
	return canon.HashValue(canon.Obj(o))
}
