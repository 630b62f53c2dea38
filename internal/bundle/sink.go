package bundle

import (
	"sync"

	"github.com/swarmic/SwarmTorch/internal/graph"
)

// ArtifactSink is the only type external producers see: it wraps a Bundle
// with a single-writer mutex around every mutating operation (graph write,
// NDJSON append, snapshot write, manifest finalize/validate). Multi-process
// writers to the same run directory remain undefined behavior; this only
// serializes goroutines within one process.
type ArtifactSink struct {
	mu     sync.Mutex
	bundle *Bundle
}

// NewSink wraps an already-created or opened Bundle.
func NewSink(b *Bundle) *ArtifactSink {
	return &ArtifactSink{bundle: b}
}

// CreateSink creates a fresh bundle at dir for runID and wraps it.
func CreateSink(dir, runID string) (*ArtifactSink, error) {
	b, err := Create(dir, runID)
	if err != nil {
		return nil, err
	}
	return NewSink(b), nil
}

func (s *ArtifactSink) WriteGraph(g *graph.GraphV1) (*graph.GraphV1, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.WriteGraph(g)
}

func (s *ArtifactSink) AppendSpan(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.AppendSpan(v)
}

func (s *ArtifactSink) AppendEvent(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.AppendEvent(v)
}

func (s *ArtifactSink) AppendMetric(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.AppendMetric(v)
}

func (s *ArtifactSink) AppendMaterialization(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.AppendMaterialization(v)
}

func (s *ArtifactSink) WriteJSON(rel string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.WriteJSON(rel, v)
}

func (s *ArtifactSink) ReadJSON(rel string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.ReadJSON(rel, v)
}

func (s *ArtifactSink) ReadNDJSONLines(rel string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.ReadNDJSONLines(rel)
}

func (s *ArtifactSink) FinalizeManifest() (Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.FinalizeManifest()
}

func (s *ArtifactSink) ValidateManifest() (ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.ValidateManifest()
}

// Dir returns the underlying bundle's directory path.
func (s *ArtifactSink) Dir() string { return s.bundle.Dir }

// RunID returns the underlying bundle's run id.
func (s *ArtifactSink) RunID() string { return s.bundle.RunID }
