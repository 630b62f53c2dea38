// Package wire implements MessageEnvelope: the versioned wire frame plus
// its staged verification pipeline (version -> timestamp -> signature ->
// replay-state mutation). It composes internal/auth (the cryptographic
// codec) and internal/replay (the per-peer sequence guard) but owns none
// of their internals.
package wire

import (
	"crypto/ed25519"

	"github.com/swarmic/SwarmTorch/internal/auth"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/replay"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// MessageType enumerates the single-byte wire tag.
type MessageType byte

const (
	MessageTypeGradientUpdate   MessageType = 0x01
	MessageTypeModelCheckpoint  MessageType = 0x02
	MessageTypeConsensusVote    MessageType = 0x03
	MessageTypeHeartbeat        MessageType = 0x04
	MessageTypePeerDiscovery    MessageType = 0x05
	MessageTypeTopologyChange   MessageType = 0x06
	MessageTypeAggregationResult MessageType = 0x07
	MessageTypeRoundStart       MessageType = 0x08
	MessageTypeRoundComplete    MessageType = 0x09
	MessageTypeError            MessageType = 0xFF
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeGradientUpdate, MessageTypeModelCheckpoint, MessageTypeConsensusVote,
		MessageTypeHeartbeat, MessageTypePeerDiscovery, MessageTypeTopologyChange,
		MessageTypeAggregationResult, MessageTypeRoundStart, MessageTypeRoundComplete,
		MessageTypeError:
		return true
	}
	return false
}

// Version is the envelope's (major, minor) wire version.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the only version this codebase emits and accepts.
var CurrentVersion = Version{Major: 0, Minor: 1}

// Envelope is the MessageEnvelope: a versioned wire frame carrying a
// signed payload bound to the canonical preimage in internal/auth.
type Envelope struct {
	Version     Version
	MessageType MessageType
	Sender      ids.PeerID
	Sequence    uint64
	Timestamp   uint32 // unix seconds; passing milliseconds yields Expired.
	Payload     []byte
	Signature   *ids.Signature
}

func (e Envelope) preimageFields() auth.PreimageFields {
	return auth.PreimageFields{
		VersionMajor: e.Version.Major,
		VersionMinor: e.Version.Minor,
		Sender:       e.Sender,
		Sequence:     e.Sequence,
		Timestamp:    e.Timestamp,
		MessageType:  byte(e.MessageType),
		Payload:      e.Payload,
	}
}

// Sign produces a signed copy of e using priv. The returned Envelope's
// Signature is always non-nil.
func Sign(e Envelope, priv ed25519.PrivateKey) (Envelope, error) {
	sig, err := auth.Sign(priv, e.preimageFields())
	if err != nil {
		return Envelope{}, err
	}
	out := e
	out.Signature = &sig
	return out, nil
}

// Config bounds the Verifier's behavior: the max clock skew. The replay
// guard to mutate on success is the Verifier's Guard field.
type Config struct {
	MaxClockSkewSeconds uint32
}

// DefaultConfig returns the default max clock skew (60s).
func DefaultConfig() Config {
	return Config{MaxClockSkewSeconds: 60}
}

// Verifier authenticates inbound envelopes in a strict fail-fast order:
// version -> timestamp -> signature -> replay. CurrentTimeSecs is
// injected so cancellation/clock control stays the caller's
// responsibility — there is no time.Now() in this package.
type Verifier struct {
	Config          Config
	Guard           *replay.Guard
	CurrentTimeSecs func() uint32

	// OnStageResult, if set, is called after every stage with its name and
	// outcome (nil on success), purely observational — it never changes
	// the verification result.
	OnStageResult func(stage string, err error)
}

// NewVerifier constructs a Verifier with the given guard and a fixed
// current-time function.
func NewVerifier(guard *replay.Guard, currentTimeSecs func() uint32) *Verifier {
	return &Verifier{Config: DefaultConfig(), Guard: guard, CurrentTimeSecs: currentTimeSecs}
}

// Verify runs the four-stage pipeline against e. Stage 2 (timestamp) never
// mutates state even on failure; stage 4 (replay) is the only stage that
// mutates, and only runs after signature verification succeeds.
func (v *Verifier) Verify(e Envelope) error {
	if err := v.stage("version", v.checkVersion(e)); err != nil {
		return err
	}
	if err := v.stage("timestamp", v.checkTimestamp(e)); err != nil {
		return err
	}
	if err := v.stage("signature", v.checkSignature(e)); err != nil {
		return err
	}
	verdict, err := v.stageReplay(e)
	v.emit("replay", err)
	if err != nil {
		return err
	}
	_ = verdict
	return nil
}

func (v *Verifier) stage(name string, err error) error {
	v.emit(name, err)
	return err
}

func (v *Verifier) emit(stage string, err error) {
	if v.OnStageResult != nil {
		v.OnStageResult(stage, err)
	}
}

func (v *Verifier) checkVersion(e Envelope) error {
	if e.Version != CurrentVersion {
		return swarmerr.Newf(swarmerr.KindVerificationFailed,
			"unsupported envelope version %d.%d", e.Version.Major, e.Version.Minor)
	}
	if !e.MessageType.Valid() {
		return swarmerr.Newf(swarmerr.KindVerificationFailed, "unknown message_type %#x", byte(e.MessageType))
	}
	return nil
}

func (v *Verifier) checkTimestamp(e Envelope) error {
	now := v.CurrentTimeSecs()
	return replay.CheckTimestamp(now, e.Timestamp, v.Config.MaxClockSkewSeconds)
}

func (v *Verifier) checkSignature(e Envelope) error {
	if e.Signature == nil {
		return swarmerr.New(swarmerr.KindVerificationFailed, "envelope missing signature")
	}
	return auth.Verify(e.preimageFields(), *e.Signature)
}

func (v *Verifier) stageReplay(e Envelope) (replay.Verdict, error) {
	return v.Guard.Check(e.Sender, e.Sequence)
}
