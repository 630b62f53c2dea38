package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/graph"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// hashChunkSize is the streaming read buffer used while hashing files into
// the manifest.
const hashChunkSize = 8 * 1024

// Bundle is the run directory at Dir, laid out per the eight required
// files plus artifacts/ and manifest.json. It is not safe for concurrent
// use on its own — ArtifactSink supplies the single-writer lock this
// requires.
type Bundle struct {
	Dir   string
	RunID string
}

// Create materializes a fresh bundle at dir for runID, refusing to overwrite
// a pre-existing directory. It writes empty/default content into the eight
// required files plus artifacts/, then finalizes an initial manifest so the
// bundle validates immediately.
func Create(dir, runID string) (*Bundle, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, swarmerr.Newf(swarmerr.KindValidationFailure, "bundle directory already exists: %s", dir)
	} else if !os.IsNotExist(err) {
		return nil, swarmerr.Wrap(swarmerr.KindIoFailure, "stat bundle directory", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, DatasetsDir), 0o755); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindIoFailure, "create datasets directory", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ArtifactsDir), 0o755); err != nil {
		return nil, swarmerr.Wrap(swarmerr.KindIoFailure, "create artifacts directory", err)
	}

	b := &Bundle{Dir: dir, RunID: runID}

	emptyGraph := graph.NewGraph("")
	if err := b.atomicWriteJSON(GraphFile, emptyGraph); err != nil {
		return nil, err
	}
	if err := b.atomicWriteJSON(RunFile, map[string]string{"run_id": runID}); err != nil {
		return nil, err
	}
	if err := b.atomicWriteJSON(RegistryFile, map[string]any{}); err != nil {
		return nil, err
	}
	if err := b.atomicWriteJSON(LineageFile, []any{}); err != nil {
		return nil, err
	}
	for _, f := range []string{SpansFile, EventsFile, MetricsFile, MaterializationsFile} {
		if err := b.touchEmpty(f); err != nil {
			return nil, err
		}
	}

	if _, err := b.FinalizeManifest(); err != nil {
		return nil, err
	}
	return b, nil
}

// Open attaches to an existing bundle directory without touching it.
func Open(dir, runID string) *Bundle {
	return &Bundle{Dir: dir, RunID: runID}
}

func (b *Bundle) path(rel string) string {
	return filepath.Join(b.Dir, filepath.FromSlash(rel))
}

// atomicWriteJSON pretty-prints v, writes it to "<name>.tmp", flushes,
// best-effort syncs, then renames over the destination.
func (b *Bundle) atomicWriteJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "marshal "+rel, err)
	}
	data = append(data, '\n')
	return b.atomicWrite(rel, data)
}

func (b *Bundle) atomicWrite(rel string, data []byte) error {
	dst := b.path(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "create parent directory for "+rel, err)
	}
	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "create "+tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return swarmerr.Wrap(swarmerr.KindIoFailure, "write "+tmp, err)
	}
	if err := f.Sync(); err != nil {
		// best-effort: some filesystems/sandboxes reject fsync; the rename
		// below still provides atomicity of content.
		_ = err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return swarmerr.Wrap(swarmerr.KindIoFailure, "close "+tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return swarmerr.Wrap(swarmerr.KindIoFailure, "rename "+tmp+" over "+dst, err)
	}
	return nil
}

// touchEmpty atomically writes rel as a zero-length file, replacing any
// existing content.
func (b *Bundle) touchEmpty(rel string) error {
	return b.atomicWrite(rel, []byte{})
}

// appendNDJSON opens rel in append mode, writes line+"\n", and flushes.
func (b *Bundle) appendNDJSON(rel string, line []byte) error {
	dst := b.path(rel)
	f, err := os.OpenFile(dst, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "open "+rel+" for append", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "append to "+rel, err)
	}
	return f.Sync()
}

// AppendSpan appends a minified JSON record to spans.ndjson.
func (b *Bundle) AppendSpan(v any) error { return b.appendRecord(SpansFile, v) }

// AppendEvent appends a minified JSON record to events.ndjson.
func (b *Bundle) AppendEvent(v any) error { return b.appendRecord(EventsFile, v) }

// AppendMetric appends a minified JSON record to metrics.ndjson.
func (b *Bundle) AppendMetric(v any) error { return b.appendRecord(MetricsFile, v) }

// AppendMaterialization appends a minified JSON record to
// datasets/materializations.ndjson.
func (b *Bundle) AppendMaterialization(v any) error {
	return b.appendRecord(MaterializationsFile, v)
}

func (b *Bundle) appendRecord(rel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "marshal record for "+rel, err)
	}
	return b.appendNDJSON(rel, data)
}

// WriteGraph clones g, fills any missing code_ref with the project's own
// identifier, normalizes every node (deriving node_id and node_def_hash),
// then atomically rewrites graph.json. The caller's g is never mutated.
func (b *Bundle) WriteGraph(g *graph.GraphV1) (*graph.GraphV1, error) {
	clone := &graph.GraphV1{
		SchemaVersion: g.SchemaVersion,
		GraphID:       g.GraphID,
		Nodes:         append([]graph.NodeV1(nil), g.Nodes...),
		Edges:         append([]graph.Edge(nil), g.Edges...),
	}
	graph.FillDefaultCodeRef(clone, buildinfo.ProjectCodeRef)
	normalized := graph.Normalize(clone)
	if err := b.atomicWriteJSON(GraphFile, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// ReadRegistry and ReadLineage are left to internal/dataops, which owns the
// typed registry/lineage shapes; Bundle only knows how to read/write raw
// JSON at those paths.
func (b *Bundle) ReadJSON(rel string, v any) error {
	data, err := os.ReadFile(b.path(rel))
	if err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "read "+rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return swarmerr.Wrap(swarmerr.KindIoFailure, "unmarshal "+rel, err)
	}
	return nil
}

// WriteJSON atomically rewrites rel with v, pretty-printed with a trailing
// newline. Used by internal/dataops for registry.json/lineage.json snapshot
// flushes.
func (b *Bundle) WriteJSON(rel string, v any) error {
	return b.atomicWriteJSON(rel, v)
}

// ReadNDJSONLines returns every non-empty line of rel in insertion order.
func (b *Bundle) ReadNDJSONLines(rel string) ([]string, error) {
	data, err := os.ReadFile(b.path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, swarmerr.Wrap(swarmerr.KindIoFailure, "read "+rel, err)
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// FinalizeManifest walks the bundle recursively, excluding manifest.json and
// any *.tmp file, sorts entries by path, hashes each file streaming in 8 KiB
// chunks, and atomically writes the resulting manifest.
func (b *Bundle) FinalizeManifest() (Manifest, error) {
	var entries []ManifestEntry
	required := requiredSet()
	objectTypes, err := b.loadArtifactTypes()
	if err != nil {
		return Manifest{}, err
	}

	walkErr := filepath.Walk(b.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestFile || strings.HasSuffix(rel, ".tmp") {
			return nil
		}
		digest, size, err := hashFile(path)
		if err != nil {
			return err
		}
		_, req := required[rel]
		entries = append(entries, ManifestEntry{
			Path:       rel,
			SHA256:     digest,
			Bytes:      size,
			Required:   req,
			ObjectType: string(objectTypes[rel]),
		})
		return nil
	})
	if walkErr != nil {
		return Manifest{}, swarmerr.Wrap(swarmerr.KindIoFailure, "walk bundle directory", walkErr)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	m := newManifest(b.RunID)
	m.Entries = entries
	if err := b.atomicWriteJSON(ManifestFile, m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, swarmerr.Wrap(swarmerr.KindIoFailure, "open "+path+" for hashing", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	var total int64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", 0, swarmerr.Wrap(swarmerr.KindIoFailure, "read "+path, readErr)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// ValidateManifest reloads manifest.json, checks schema_version, run_id,
// hash_algo, then re-hashes every entry on disk and compares presence, size,
// and digest. A header mismatch returns at once; otherwise every entry is
// checked. Any mismatch is fatal: the returned KindManifestMismatch error
// names the first one, while the returned ValidationReport lists every
// mismatch found, for the read side's diagnostic use.
func (b *Bundle) ValidateManifest() (ValidationReport, error) {
	var m Manifest
	if err := b.ReadJSON(ManifestFile, &m); err != nil {
		return ValidationReport{}, err
	}
	if m.SchemaVersion != buildinfo.SchemaVersion {
		return b.invalidManifest(swarmerr.Newf(swarmerr.KindManifestMismatch,
			"manifest schema_version %d does not match %d", m.SchemaVersion, buildinfo.SchemaVersion))
	}
	if m.RunID != b.RunID {
		return b.invalidManifest(swarmerr.Newf(swarmerr.KindManifestMismatch,
			"manifest run_id %q does not match bundle run_id %q", m.RunID, b.RunID))
	}
	if m.HashAlgo != HashAlgo {
		return b.invalidManifest(swarmerr.Newf(swarmerr.KindManifestMismatch,
			"manifest hash_algo %q is not %q", m.HashAlgo, HashAlgo))
	}

	report := ValidationReport{Valid: true}
	for _, e := range m.Entries {
		full := b.path(e.Path)
		digest, size, err := hashFile(full)
		if err != nil {
			report.Valid = false
			report.Errors = append(report.Errors, ValidationIssue{Path: e.Path, Reason: "missing"})
			continue
		}
		if size != e.Bytes {
			report.Valid = false
			report.Errors = append(report.Errors, ValidationIssue{Path: e.Path, Reason: "size mismatch"})
			continue
		}
		if digest != e.SHA256 {
			report.Valid = false
			report.Errors = append(report.Errors, ValidationIssue{Path: e.Path, Reason: "sha256 mismatch"})
		}
	}
	if !report.Valid {
		first := report.Errors[0]
		return report, swarmerr.Newf(swarmerr.KindManifestMismatch, "%s: %s", first.Path, first.Reason)
	}
	return report, nil
}

func (b *Bundle) invalidManifest(err *swarmerr.Error) (ValidationReport, error) {
	return ValidationReport{Valid: false, Errors: []ValidationIssue{{Path: ManifestFile, Reason: err.Msg}}}, err
}
