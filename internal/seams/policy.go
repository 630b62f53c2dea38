// Package seams implements the execution seams: the ExecutionPolicy
// pre-execution guard and the OpRunner boundary a scheduler plugs into.
// Neither trait specifies a scheduler; they only name the interfaces a
// scheduler must honor.
package seams

import (
	"github.com/swarmic/SwarmTorch/internal/dataops"
	"github.com/swarmic/SwarmTorch/internal/graph"
)

// Decision is an ExecutionPolicy's verdict for one node.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision          { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Registry is the minimal read-only view of a DataOps registry an
// ExecutionPolicy may consult. *dataops.Session does not implement it
// directly; wrap its Registry() snapshot with NewMapRegistry.
type Registry interface {
	Lookup(assetKey string) (dataops.DatasetEntry, bool)
}

// MapRegistry adapts a plain map snapshot (e.g. from Session.Registry()) to
// the Registry interface.
type MapRegistry map[string]dataops.DatasetEntry

func (m MapRegistry) Lookup(assetKey string) (dataops.DatasetEntry, bool) {
	e, ok := m[assetKey]
	return e, ok
}

// NewMapRegistry builds a MapRegistry from a slice of entries, as returned
// by dataops.Session.Registry().
func NewMapRegistry(entries []dataops.DatasetEntry) MapRegistry {
	m := make(MapRegistry, len(entries))
	for _, e := range entries {
		m[e.AssetKey] = e
	}
	return m
}

// ExecutionPolicy decides whether a node may run, as a pre-execution guard.
// DataOps performs the complementary post-hoc unsafe-surface marking; a deny
// here never mutates registry or lineage state.
type ExecutionPolicy interface {
	Allow(node graph.NodeV1, registry Registry) Decision
}

// CoreOnly denies any node whose execution_trust is not Core.
type CoreOnly struct{}

func (CoreOnly) Allow(node graph.NodeV1, _ Registry) Decision {
	if node.ExecutionTrust != graph.TrustCore {
		return deny("node requires Core trust, execution_trust is not core")
	}
	return allow()
}

// Permissive allows every node regardless of execution trust.
type Permissive struct{}

func (Permissive) Allow(graph.NodeV1, Registry) Decision { return allow() }
