// Package replay implements a bounded per-peer LRU of sequence-window
// state, with saturating arithmetic and a state-free timestamp freshness
// check. No persistence — restart resets the guard; replay state is
// explicitly in-memory only.
package replay

import (
	"container/list"
	"sync"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// Verdict is the outcome of presenting a (peer, sequence) pair.
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictReplay   Verdict = "replay"
	VerdictTooOld   Verdict = "too_old"
)

// peerState is the per-peer sequence window: the highest sequence accepted
// so far, and the set of recently-accepted sequences still inside the
// reorder window (so an exact repeat within the window is caught even
// though it is not the single highest value).
type peerState struct {
	lastSequence    uint64
	recentSequences map[uint64]struct{}
}

// Guard is a bounded, per-peer LRU replay cache. It is not safe for
// concurrent use without its internal lock — which it already holds
// around every operation, so external callers may share one Guard across
// goroutines directly, or give each verifier its own guard; the lock is
// internal either way.
type Guard struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	elems    map[ids.PeerID]*list.Element
	states   map[ids.PeerID]*peerState
}

// New creates a Guard with the given bounded capacity. Zero or negative
// capacity is a configuration error.
func New(capacity int) (*Guard, error) {
	if capacity <= 0 {
		return nil, swarmerr.New(swarmerr.KindValidationFailure, "replay: capacity must be positive")
	}
	return &Guard{
		capacity: capacity,
		order:    list.New(),
		elems:    make(map[ids.PeerID]*list.Element),
		states:   make(map[ids.PeerID]*peerState),
	}, nil
}

// NewDefault creates a Guard at the default capacity (1000 peers).
func NewDefault() (*Guard, error) {
	return New(buildinfo.DefaultReplayCapacity)
}

// CheckTimestamp reports whether ts is within maxClockSkew seconds of now,
// using absolute difference. It never mutates guard state — callers invoke
// it as an independent, repeatable pre-check.
func CheckTimestamp(now, ts, maxClockSkew uint32) error {
	var diff uint32
	if now >= ts {
		diff = now - ts
	} else {
		diff = ts - now
	}
	if diff > maxClockSkew {
		return swarmerr.Newf(swarmerr.KindReplayExpired,
			"timestamp %d outside +/-%ds of now=%d", ts, maxClockSkew, now)
	}
	return nil
}

// Check presents (peer, seq) to the guard. On VerdictAccepted the guard's
// per-peer state is mutated (sequence recorded, window pruned, LRU
// touched); on VerdictReplay/VerdictTooOld nothing is mutated — the
// per-peer sequence state only advances on acceptance.
func (g *Guard) Check(peer ids.PeerID, seq uint64) (Verdict, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, firstSeen := g.states[peer]
	if !firstSeen {
		st = &peerState{recentSequences: make(map[uint64]struct{})}
	}

	if _, seen := st.recentSequences[seq]; seen {
		return VerdictReplay, swarmerr.Newf(swarmerr.KindReplayDuplicate,
			"sequence %d already seen for peer", seq)
	}

	if firstSeen && saturatingAddLessThan(seq, buildinfo.SequenceToleranceWindow, st.lastSequence) {
		return VerdictTooOld, swarmerr.Newf(swarmerr.KindReplayTooOld,
			"sequence %d is outside reorder window of last_seen=%d", seq, st.lastSequence)
	}

	st.recentSequences[seq] = struct{}{}
	if seq > st.lastSequence {
		st.lastSequence = seq
	}
	pruneWindow(st)

	g.touch(peer, st)
	return VerdictAccepted, nil
}

// saturatingAddLessThan reports seq+tolerance < lastSequence using
// saturating arithmetic, so sequences near the uint64 maximum never wrap
// around and panic or misbehave.
func saturatingAddLessThan(seq, tolerance, lastSequence uint64) bool {
	sum := seq + tolerance
	if sum < seq {
		// overflow: saturate to the maximum representable value, which is
		// never less than lastSequence.
		return false
	}
	return sum < lastSequence
}

// pruneWindow drops every recorded sequence <= last_sequence - TOLERANCE,
// using saturating subtraction so an early last_sequence never underflows.
func pruneWindow(st *peerState) {
	var floor uint64
	if st.lastSequence > buildinfo.SequenceToleranceWindow {
		floor = st.lastSequence - buildinfo.SequenceToleranceWindow
	}
	for seq := range st.recentSequences {
		if seq <= floor {
			delete(st.recentSequences, seq)
		}
	}
}

// touch records st as peer's current state and marks peer most-recently
// used, evicting the least-recently-used peer if the guard is now over
// capacity. A legitimately-forgotten peer replaying shortly after eviction
// is a known, accepted tradeoff of bounding memory use.
func (g *Guard) touch(peer ids.PeerID, st *peerState) {
	g.states[peer] = st
	if elem, ok := g.elems[peer]; ok {
		g.order.MoveToFront(elem)
		return
	}
	elem := g.order.PushFront(peer)
	g.elems[peer] = elem
	if g.order.Len() > g.capacity {
		g.evictOldest()
	}
}

func (g *Guard) evictOldest() {
	back := g.order.Back()
	if back == nil {
		return
	}
	g.order.Remove(back)
	evicted := back.Value.(ids.PeerID)
	delete(g.elems, evicted)
	delete(g.states, evicted)
}

// Len returns the number of peers currently tracked.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}

// Capacity returns the guard's configured bound.
func (g *Guard) Capacity() int { return g.capacity }
