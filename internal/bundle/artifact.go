package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// ObjectType informationally classifies a content-addressed object stored
// under artifacts/.
type ObjectType string

const (
	ObjectTypeTranscript     ObjectType = "transcript"
	ObjectTypeCanonicalBytes ObjectType = "canonical-bytes"
	ObjectTypeStepProof      ObjectType = "step-proof"
)

// ArtifactRef names one content-addressed object under artifacts/ by its
// SHA-256 key, with an optional classification tag.
type ArtifactRef struct {
	Key        string
	ObjectType ObjectType
	Bytes      int64
}

func (r ArtifactRef) relPath() string {
	return filepath.ToSlash(filepath.Join(ArtifactsDir, r.Key))
}

const artifactTypesFile = ArtifactsDir + "/_object_types.json"

// PutArtifact writes data under artifacts/<sha256hex> if not already
// present (content-addressing makes the write idempotent), records its
// ObjectType in the informational type index, and returns its ArtifactRef.
func (b *Bundle) PutArtifact(data []byte, objType ObjectType) (ArtifactRef, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	ref := ArtifactRef{Key: key, ObjectType: objType, Bytes: int64(len(data))}

	dst := b.path(ref.relPath())
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := b.atomicWrite(ref.relPath(), data); err != nil {
			return ArtifactRef{}, err
		}
	} else if err != nil {
		return ArtifactRef{}, swarmerr.Wrap(swarmerr.KindIoFailure, "stat artifact", err)
	}

	if objType != "" {
		if err := b.setArtifactType(ref.relPath(), objType); err != nil {
			return ArtifactRef{}, err
		}
	}
	return ref, nil
}

// GetArtifact reads back the content-addressed object named by ref.
func (b *Bundle) GetArtifact(ref ArtifactRef) ([]byte, error) {
	data, err := os.ReadFile(b.path(ref.relPath()))
	if err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindIoFailure, "read artifact "+ref.Key, err)
	}
	return data, nil
}

func (b *Bundle) loadArtifactTypes() (map[string]ObjectType, error) {
	var index map[string]ObjectType
	if err := b.ReadJSON(artifactTypesFile, &index); err != nil {
		if os.IsNotExist(unwrapIoErr(err)) {
			return map[string]ObjectType{}, nil
		}
		return nil, err
	}
	if index == nil {
		index = map[string]ObjectType{}
	}
	return index, nil
}

func (b *Bundle) setArtifactType(relPath string, objType ObjectType) error {
	index, err := b.loadArtifactTypes()
	if err != nil {
		return err
	}
	index[relPath] = objType
	return b.atomicWriteJSON(artifactTypesFile, index)
}

// unwrapIoErr extracts the underlying error from a swarmerr-wrapped IO
// failure, for os.IsNotExist checks against ReadJSON's return value.
func unwrapIoErr(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return err
}
