package wire

import (
	"crypto/rand"
	"testing"

	"github.com/swarmic/SwarmTorch/internal/auth"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/replay"
)

func fixedClock(t uint32) func() uint32 {
	return func() uint32 { return t }
}

func newSignedEnvelope(t *testing.T) (Envelope, ids.PeerID) {
	t.Helper()
	peer, priv, err := auth.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := Envelope{
		Version:     CurrentVersion,
		MessageType: MessageTypeHeartbeat,
		Sender:      peer,
		Sequence:    1,
		Timestamp:   1000,
		Payload:     []byte("test"),
	}
	signed, err := Sign(e, priv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return signed, peer
}

func TestVerify_ValidEnvelopeAccepted(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000))
	if err := v.Verify(e); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestVerify_TamperedFieldsFail(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(e *Envelope)
	}{
		{"payload", func(e *Envelope) { e.Payload = []byte("tampered") }},
		{"sequence", func(e *Envelope) { e.Sequence = 2 }},
		{"timestamp", func(e *Envelope) { e.Timestamp = 2000 }},
		{"message_type", func(e *Envelope) { e.MessageType = MessageTypeError }},
		{"sender", func(e *Envelope) { e.Sender = ids.PeerID{0x1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newSignedEnvelope(t)
			tc.mutate(&e)
			guard, _ := replay.New(10)
			v := NewVerifier(guard, fixedClock(1000))
			if err := v.Verify(e); err == nil {
				t.Fatalf("expected verification failure after tampering %s", tc.name)
			}
			if guard.Len() != 0 {
				t.Fatalf("replay cache must stay empty after a verification failure, got %d", guard.Len())
			}
		})
	}
}

func TestVerify_UnsupportedVersionFails(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	e.Version = Version{Major: 9, Minor: 9}
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000))
	if err := v.Verify(e); err == nil {
		t.Fatalf("expected version failure")
	}
}

func TestVerify_StaleTimestampRejectedBeforeSignature(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	var stages []string
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000+1000)) // far outside default skew
	v.OnStageResult = func(stage string, err error) {
		stages = append(stages, stage)
	}
	if err := v.Verify(e); err == nil {
		t.Fatalf("expected timestamp failure")
	}
	if len(stages) != 2 || stages[0] != "version" || stages[1] != "timestamp" {
		t.Fatalf("expected fail-fast after timestamp stage, got %v", stages)
	}
}

func TestVerify_MissingSignatureRejected(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	e.Signature = nil
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000))
	if err := v.Verify(e); err == nil {
		t.Fatalf("expected missing-signature failure")
	}
}

func TestVerify_ReplayRejectedOnSecondPresentation(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000))
	if err := v.Verify(e); err != nil {
		t.Fatalf("expected first verification to succeed: %v", err)
	}
	if err := v.Verify(e); err == nil {
		t.Fatalf("expected replay rejection on second presentation")
	}
}

func TestVerify_HashedSenderFailsAtSignatureStage(t *testing.T) {
	e, _ := newSignedEnvelope(t)
	var stages []string
	e.Sender = ids.PeerID{0xde, 0xad}
	guard, _ := replay.New(10)
	v := NewVerifier(guard, fixedClock(1000))
	v.OnStageResult = func(stage string, err error) { stages = append(stages, stage) }
	if err := v.Verify(e); err == nil {
		t.Fatalf("expected signature failure for hashed sender")
	}
	if stages[len(stages)-1] != "signature" {
		t.Fatalf("expected failure to surface at signature stage, got %v", stages)
	}
}
