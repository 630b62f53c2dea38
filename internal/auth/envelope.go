// Package auth implements Ed25519 sign/verify over the canonical envelope
// signing preimage, with domain separation. It knows nothing about replay
// state or wire framing — those live in internal/replay and internal/wire
// respectively — it is a pure cryptographic codec keyed by the fixed
// preimage layout below.
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/ids"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// PreimageFields names every field that enters the signing preimage, in
// this fixed order:
//
//	DS_TAG || version.major || version.minor || sender(32) ||
//	sequence(u64 LE) || timestamp(u32 LE) || message_type(u8) || sha256(payload)
type PreimageFields struct {
	VersionMajor uint8
	VersionMinor uint8
	Sender       ids.PeerID
	Sequence     uint64
	Timestamp    uint32
	MessageType  byte
	Payload      []byte
}

// BuildPreimage constructs the exact byte sequence that gets SHA-256'd and
// then Ed25519-signed. It is exported so internal/wire and tests can
// reconstruct it independently of Sign/Verify.
func BuildPreimage(f PreimageFields) []byte {
	buf := make([]byte, 0, len(buildinfo.EnvelopeDomainTag)+1+1+32+8+4+1+32)
	buf = append(buf, buildinfo.EnvelopeDomainTag...)
	buf = append(buf, f.VersionMajor, f.VersionMinor)
	buf = append(buf, f.Sender[:]...)

	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], f.Sequence)
	buf = append(buf, seq[:]...)

	var ts [4]byte
	binary.LittleEndian.PutUint32(ts[:], f.Timestamp)
	buf = append(buf, ts[:]...)

	buf = append(buf, f.MessageType)

	payloadHash := sha256.Sum256(f.Payload)
	buf = append(buf, payloadHash[:]...)
	return buf
}

// digest is the value Ed25519 is actually run over: sha256(preimage).
func digest(f PreimageFields) [32]byte {
	return sha256.Sum256(BuildPreimage(f))
}

// Sign produces a detached Ed25519 signature over sha256(preimage) for the
// given private key and fields. Signing is deterministic: the same key and
// the same canonical fields always produce the same signature bytes.
func Sign(priv ed25519.PrivateKey, f PreimageFields) (ids.Signature, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return ids.Signature{}, swarmerr.New(swarmerr.KindVerificationFailed,
			"auth: private key has wrong size")
	}
	d := digest(f)
	sig := ed25519.Sign(priv, d[:])
	var out ids.Signature
	copy(out[:], sig)
	return out, nil
}

// Verify checks sig against the reconstructed preimage for sender's public
// key. sender must be the raw 32-byte Ed25519 public key, never a hash or
// derived identifier — mixing the two fails verification by construction,
// because the wrong bytes produce a different Ed25519 result. Verify uses
// Go's standard-library ed25519.Verify, which already rejects non-canonical
// (malleable) signature encodings.
func Verify(f PreimageFields, sig ids.Signature) error {
	if f.Sender.IsZero() {
		return swarmerr.New(swarmerr.KindVerificationFailed, "auth: sender public key is all-zero")
	}
	d := digest(f)
	if !ed25519.Verify(f.Sender[:], d[:], sig[:]) {
		return swarmerr.New(swarmerr.KindVerificationFailed, "auth: signature verification failed")
	}
	return nil
}

// GenerateKeyPair creates a fresh Ed25519 keypair, returning the PeerID
// form of the public key alongside the raw private key.
func GenerateKeyPair(randSource ed25519Reader) (ids.PeerID, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(randSource)
	if err != nil {
		return ids.PeerID{}, nil, swarmerr.Wrap(swarmerr.KindVerificationFailed, "auth: key generation failed", err)
	}
	var peer ids.PeerID
	copy(peer[:], pub)
	return peer, priv, nil
}

// ed25519Reader is the minimal io.Reader surface GenerateKeyPair needs,
// named locally so callers can pass crypto/rand.Reader without this
// package importing the io package just for one parameter type.
type ed25519Reader interface {
	Read(p []byte) (n int, err error)
}
