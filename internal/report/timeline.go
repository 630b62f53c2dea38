package report

import (
	"encoding/json"
	"fmt"

	"github.com/swarmic/SwarmTorch/internal/bundle"
	"github.com/swarmic/SwarmTorch/internal/dataops"
	"github.com/swarmic/SwarmTorch/internal/graph"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// TimelineRow is one materialization event ready for display: the v2
// record plus a detail line and a freshly-recomputed unsafe verdict.
type TimelineRow struct {
	Record dataops.MaterializationRecordV2
	Detail string
	Unsafe bool
	Bytes  *int64
}

// recordProbe sniffs whether a raw materialization line is v1 or v2: v2
// records always carry record_seq, v1 records never do.
type recordProbe struct {
	RecordSeq *uint64 `json:"record_seq"`
}

func loadTimeline(b *bundle.Bundle, g *graph.GraphV1, registry map[string]dataops.DatasetEntry) ([]TimelineRow, error) {
	lines, err := b.ReadNDJSONLines(bundle.MaterializationsFile)
	if err != nil {
		return nil, err
	}
	nodesByID := indexByNodeID(g)

	rows := make([]TimelineRow, 0, len(lines))
	for i, line := range lines {
		var probe recordProbe
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			return nil, swarmerr.Wrap(swarmerr.KindIoFailure, fmt.Sprintf("parse materialization line %d", i), err)
		}

		var v2 dataops.MaterializationRecordV2
		if probe.RecordSeq != nil {
			if err := json.Unmarshal([]byte(line), &v2); err != nil {
				return nil, swarmerr.Wrap(swarmerr.KindIoFailure, fmt.Sprintf("parse v2 materialization line %d", i), err)
			}
		} else {
			var v1 dataops.MaterializationRecordV1
			if err := json.Unmarshal([]byte(line), &v1); err != nil {
				return nil, swarmerr.Wrap(swarmerr.KindIoFailure, fmt.Sprintf("parse v1 materialization line %d", i), err)
			}
			v2 = v1.PromoteToV2()
		}

		rows = append(rows, TimelineRow{
			Record: v2,
			Detail: timelineDetail(v2),
			Unsafe: timelineUnsafe(v2, nodesByID, registry),
			Bytes:  v2.Bytes,
		})
	}
	return rows, nil
}

func indexByNodeID(g *graph.GraphV1) map[string]graph.NodeV1 {
	m := make(map[string]graph.NodeV1, len(g.Nodes))
	for _, n := range g.Nodes {
		m[n.NodeID] = n
	}
	return m
}

// timelineDetail renders the detail text for one timeline row: always
// includes node_id and node_def_hash so a reader can trace a row back to
// the node that produced it.
func timelineDetail(r dataops.MaterializationRecordV2) string {
	return fmt.Sprintf("asset=%s node_id=%s node_def_hash=%s op_type=%s",
		r.AssetKey, r.NodeID, r.NodeDefHash, r.OpType)
}

// timelineUnsafe computes the row's unsafe verdict by looking up the
// producing node in the graph and registry, never by trusting the record's
// own unsafe_surface bit.
func timelineUnsafe(r dataops.MaterializationRecordV2, nodesByID map[string]graph.NodeV1, registry map[string]dataops.DatasetEntry) bool {
	node, ok := nodesByID[r.NodeID]
	if !ok {
		// The producing node is missing from the graph entirely: fail
		// closed, the same posture IsNodeUnsafe takes for a missing input.
		return true
	}
	return IsNodeUnsafe(node, registry)
}
