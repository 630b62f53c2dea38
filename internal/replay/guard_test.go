package replay

import (
	"testing"

	"github.com/swarmic/SwarmTorch/internal/ids"
)

func peerOf(b byte) ids.PeerID {
	var p ids.PeerID
	p[0] = b
	p[1] = 1
	return p
}

func TestGuard_ZeroCapacityRejected(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero capacity")
	}
	if _, err := New(-1); err == nil {
		t.Fatalf("expected error for negative capacity")
	}
}

func TestGuard_FirstSeenAccepted(t *testing.T) {
	g, _ := New(10)
	v, err := g.Check(peerOf(1), 1)
	if err != nil || v != VerdictAccepted {
		t.Fatalf("expected accept for first-seen peer, got %v/%v", v, err)
	}
}

func TestGuard_WindowScenario(t *testing.T) {
	g, _ := New(10)
	p := peerOf(1)
	for _, seq := range []uint64{20, 15, 10, 5} {
		v, err := g.Check(p, seq)
		if err != nil || v != VerdictAccepted {
			t.Fatalf("expected accept for seq=%d, got %v/%v", seq, v, err)
		}
	}
	v, err := g.Check(p, 3)
	if v != VerdictTooOld {
		t.Fatalf("expected TooOld for seq=3, got %v/%v", v, err)
	}
}

func TestGuard_ReplayIdempotence(t *testing.T) {
	g, _ := New(10)
	p := peerOf(1)
	if v, _ := g.Check(p, 10); v != VerdictAccepted {
		t.Fatalf("expected first accept")
	}
	if v, _ := g.Check(p, 10); v != VerdictReplay {
		t.Fatalf("expected replay on re-presenting seq=10")
	}
}

func TestGuard_TwoPeersSameSequence(t *testing.T) {
	g, _ := New(10)
	a, b := peerOf(1), peerOf(2)
	if v, _ := g.Check(a, 10); v != VerdictAccepted {
		t.Fatalf("expected accept for peer A")
	}
	if v, _ := g.Check(b, 10); v != VerdictAccepted {
		t.Fatalf("expected accept for peer B using same sequence")
	}
	if v, _ := g.Check(a, 10); v != VerdictReplay {
		t.Fatalf("expected replay for peer A repeating seq=10")
	}
}

func TestGuard_NoPanicNearMaxUint64(t *testing.T) {
	g, _ := New(10)
	p := peerOf(1)
	const max = ^uint64(0)
	if v, err := g.Check(p, max); err != nil || v != VerdictAccepted {
		t.Fatalf("expected accept near u64 max, got %v/%v", v, err)
	}
	if v, _ := g.Check(p, max); v != VerdictReplay {
		t.Fatalf("expected replay for repeat of max")
	}
	// The point of this case is that checking a sequence adjacent to
	// u64::MAX must return some defined verdict without panicking on
	// overflow in the saturating arithmetic.
	v, err := g.Check(p, max-1)
	switch v {
	case VerdictAccepted, VerdictReplay, VerdictTooOld:
	default:
		t.Fatalf("unexpected verdict %v/%v", v, err)
	}
}

func TestGuard_EvictionBoundsCapacity(t *testing.T) {
	g, _ := New(2)
	g.Check(peerOf(1), 1)
	g.Check(peerOf(2), 1)
	g.Check(peerOf(3), 1) // evicts peer 1 (LRU)
	if g.Len() != 2 {
		t.Fatalf("expected capacity bound of 2, got %d", g.Len())
	}
}

func TestCheckTimestamp_WithinSkew(t *testing.T) {
	if err := CheckTimestamp(1000, 950, 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckTimestamp_OutsideSkew(t *testing.T) {
	if err := CheckTimestamp(1000, 800, 60); err == nil {
		t.Fatalf("expected error for stale timestamp")
	}
	if err := CheckTimestamp(800, 1000, 60); err == nil {
		t.Fatalf("expected error for future timestamp")
	}
}

func TestCheckTimestamp_NeverMutates(t *testing.T) {
	// CheckTimestamp takes no guard and has no state to mutate; this test
	// documents that contract by calling it repeatedly with no side effect
	// on behavior.
	for i := 0; i < 5; i++ {
		if err := CheckTimestamp(100, 100, 0); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}
}
