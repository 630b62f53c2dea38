package dataops

import (
	"sort"

	"github.com/swarmic/SwarmTorch/internal/bundle"
	"github.com/swarmic/SwarmTorch/internal/fingerprint"
	"github.com/swarmic/SwarmTorch/internal/graph"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// Session is the single authoritative writer into a bundle's registry and
// lineage state. It owns in-memory ordered maps for both and flushes full
// snapshots to the wrapped sink after every mutation.
type Session struct {
	sink *bundle.ArtifactSink

	registryOrder []string
	registry      map[string]DatasetEntry

	lineageOrder []string
	lineage      map[string]LineageEdge

	nextRecordSeq uint64
}

// NewSession loads (or initializes) a session over sink, reading any
// pre-existing registry.json/lineage.json snapshots.
func NewSession(sink *bundle.ArtifactSink) (*Session, error) {
	s := &Session{
		sink:     sink,
		registry: make(map[string]DatasetEntry),
		lineage:  make(map[string]LineageEdge),
	}

	var reg map[string]DatasetEntry
	if err := sink.ReadJSON(bundle.RegistryFile, &reg); err != nil {
		return nil, err
	}
	for k, v := range reg {
		s.registry[k] = v
		s.registryOrder = append(s.registryOrder, k)
	}
	sort.Strings(s.registryOrder)

	var edges []LineageEdge
	if err := sink.ReadJSON(bundle.LineageFile, &edges); err != nil {
		return nil, err
	}
	for _, e := range edges {
		k := lineageKey(e)
		if _, ok := s.lineage[k]; ok {
			continue
		}
		s.lineage[k] = e
		s.lineageOrder = append(s.lineageOrder, k)
	}

	lines, err := sink.ReadNDJSONLines(bundle.MaterializationsFile)
	if err != nil {
		return nil, err
	}
	s.nextRecordSeq = uint64(len(lines))

	return s, nil
}

// RegisterSource computes the four fingerprints for a root source and
// inserts/overwrites its registry entry, then flushes the registry
// snapshot.
func (s *Session) RegisterSource(assetKey string, trust TrustClass, src fingerprint.SourceDescriptor, schema *fingerprint.SchemaDescriptor, ingestNode graph.NodeV1) (DatasetEntry, error) {
	srcFp, err := fingerprint.SourceFingerprintV0(src)
	if err != nil {
		return DatasetEntry{}, err
	}
	schemaFp := fingerprint.SchemaHashOrDefault(schema)
	recipeFp := fingerprint.RecipeHashV0(ingestNode, nil)
	datasetFp := fingerprint.DatasetFingerprintV0(srcFp, schemaFp, recipeFp)

	entry := DatasetEntry{
		AssetKey:            assetKey,
		FingerprintV0:       hexFp(datasetFp),
		SourceFingerprintV0: hexFp(srcFp),
		SchemaHashV0:        hexFp(schemaFp),
		RecipeHashV0:        hexFp(recipeFp),
		Trust:               trust,
		Source:              &src,
		Schema:              schema,
	}
	s.upsertRegistry(entry)
	return entry, s.flushRegistry()
}

func (s *Session) upsertRegistry(e DatasetEntry) {
	if _, exists := s.registry[e.AssetKey]; !exists {
		s.registryOrder = append(s.registryOrder, e.AssetKey)
	}
	s.registry[e.AssetKey] = e
}

func (s *Session) flushRegistry() error {
	ordered := make(map[string]DatasetEntry, len(s.registry))
	for _, k := range s.registryOrder {
		ordered[k] = s.registry[k]
	}
	return s.sink.WriteJSON(bundle.RegistryFile, ordered)
}

func (s *Session) flushLineage() error {
	edges := make([]LineageEdge, 0, len(s.lineageOrder))
	for _, k := range s.lineageOrder {
		edges = append(edges, s.lineage[k])
	}
	return s.sink.WriteJSON(bundle.LineageFile, edges)
}

func (s *Session) upsertLineage(e LineageEdge) {
	k := lineageKey(e)
	if _, exists := s.lineage[k]; exists {
		return
	}
	s.lineage[k] = e
	s.lineageOrder = append(s.lineageOrder, k)
}

// MaterializeOutput names one output asset a node execution produced, with
// an optional declared schema.
type MaterializeOutput struct {
	AssetKey string
	Schema   *fingerprint.SchemaDescriptor
	Rows     *int64
	Bytes    *int64
}

// MaterializeNodeOutputs is the critical transaction. It validates in the
// documented order, snapshots input fingerprints before any mutation,
// derives output fingerprints via the pure fingerprint rules, propagates
// trust, appends a v2 materialization record per output, upserts lineage
// edges, and flushes both snapshots.
func (s *Session) MaterializeNodeOutputs(node graph.NodeV1, outputs []MaterializeOutput, tsUnixNanos int64, cacheHit bool, durationMs int64) ([]DatasetEntry, error) {
	if err := rejectDuplicateAssetKeys(outputs); err != nil {
		return nil, err
	}
	if err := rejectUndeclaredOutputs(node, outputs); err != nil {
		return nil, err
	}

	snapshots, err := s.snapshotInputs(node)
	if err != nil {
		return nil, err
	}

	untrustedInput := anyUntrusted(snapshots)
	trust := outputTrust(untrustedInput, node.ExecutionTrust)
	unsafe := trust == Untrusted

	upstreamFps := make([][32]byte, len(snapshots))
	for i, sn := range snapshots {
		upstreamFps[i] = sn.fp
	}
	recipeFp := fingerprint.RecipeHashV0(node, upstreamFps)

	inputKeys := make([]string, len(snapshots))
	inputFps := make([]string, len(snapshots))
	for i, sn := range snapshots {
		inputKeys[i] = sn.assetKey
		inputFps[i] = hexFp(sn.fp)
	}

	cacheDecision := CacheMiss
	if cacheHit {
		cacheDecision = CacheHit
	}

	entries := make([]DatasetEntry, 0, len(outputs))
	for _, out := range outputs {
		srcFp := fingerprint.DerivedSourceFingerprintV0(out.AssetKey)
		schemaFp := fingerprint.SchemaHashOrDefault(out.Schema)
		datasetFp := fingerprint.DatasetFingerprintV0(srcFp, schemaFp, recipeFp)

		entry := DatasetEntry{
			AssetKey:            out.AssetKey,
			FingerprintV0:       hexFp(datasetFp),
			SourceFingerprintV0: hexFp(srcFp),
			SchemaHashV0:        hexFp(schemaFp),
			RecipeHashV0:        hexFp(recipeFp),
			Trust:               trust,
			Schema:              out.Schema,
		}
		s.upsertRegistry(entry)
		entries = append(entries, entry)

		for _, sn := range snapshots {
			s.upsertLineage(LineageEdge{
				InputFingerprintV0:  hexFp(sn.fp),
				OutputFingerprintV0: entry.FingerprintV0,
				NodeID:              node.NodeID,
				OpKind:              string(node.OpKind),
			})
		}

		record := MaterializationRecordV2{
			SchemaVersion: materializationSchemaVersion,
			RecordSeq:     s.nextRecordSeq,
			TsUnixNanos:   tsUnixNanos,
			AssetKey:      out.AssetKey,
			FingerprintV0: entry.FingerprintV0,
			NodeID:        node.NodeID,
			NodeDefHash:   node.NodeDefHash,
			OpType:        node.OpType,
			InputKeys:     inputKeys,
			InputFps:      inputFps,
			Rows:          out.Rows,
			Bytes:         out.Bytes,
			CacheDecision: cacheDecision,
			DurationMs:    &durationMs,
			UnsafeSurface: unsafe,
			Status:        StatusOk,
		}
		if unsafe {
			record.UnsafeReasons = []string{"untrusted_input_or_non_core_execution"}
		}
		s.nextRecordSeq++

		if err := s.sink.AppendMaterialization(record); err != nil {
			return nil, err
		}
	}

	if err := s.flushRegistry(); err != nil {
		return nil, err
	}
	if err := s.flushLineage(); err != nil {
		return nil, err
	}
	return entries, nil
}

func rejectDuplicateAssetKeys(outputs []MaterializeOutput) error {
	seen := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		if _, dup := seen[o.AssetKey]; dup {
			return swarmerr.Newf(swarmerr.KindValidationFailure,
				"duplicate output asset_key %q", o.AssetKey).WithField(o.AssetKey)
		}
		seen[o.AssetKey] = struct{}{}
	}
	return nil
}

func rejectUndeclaredOutputs(node graph.NodeV1, outputs []MaterializeOutput) error {
	for _, o := range outputs {
		if !node.HasOutputKey(o.AssetKey) {
			return swarmerr.Newf(swarmerr.KindValidationFailure,
				"output asset_key %q not declared in node.outputs", o.AssetKey).WithField(o.AssetKey)
		}
	}
	return nil
}

// snapshotInputs resolves and snapshots every declared input's current
// fingerprint and trust class before any registry mutation. Lookup
// failure and malformed fingerprint hex are both fail-closed.
func (s *Session) snapshotInputs(node graph.NodeV1) ([]inputSnapshot, error) {
	out := make([]inputSnapshot, 0, len(node.Inputs))
	for _, ref := range node.Inputs {
		entry, ok := s.registry[ref.AssetKey]
		if !ok {
			return nil, swarmerr.Newf(swarmerr.KindValidationFailure,
				"input asset_key %q not found in registry", ref.AssetKey).WithField(ref.AssetKey)
		}
		fp, err := parseFp(entry.FingerprintV0)
		if err != nil {
			return nil, err
		}
		out = append(out, inputSnapshot{assetKey: ref.AssetKey, fp: fp, trust: entry.Trust})
	}
	return out, nil
}

// Finalize flushes both snapshots and recomputes the manifest. Between
// materializations manifest.json is intentionally stale; readers that rely
// on manifest validation must wait for Finalize.
func (s *Session) Finalize() (bundle.Manifest, error) {
	if err := s.flushRegistry(); err != nil {
		return bundle.Manifest{}, err
	}
	if err := s.flushLineage(); err != nil {
		return bundle.Manifest{}, err
	}
	return s.sink.FinalizeManifest()
}

// Registry returns a snapshot of the current in-memory registry, ordered by
// first insertion; entries loaded from an existing registry.json come
// first, in asset_key order.
func (s *Session) Registry() []DatasetEntry {
	out := make([]DatasetEntry, 0, len(s.registryOrder))
	for _, k := range s.registryOrder {
		out = append(out, s.registry[k])
	}
	return out
}

// Lineage returns a snapshot of the current in-memory lineage edges, ordered
// by first insertion.
func (s *Session) Lineage() []LineageEdge {
	out := make([]LineageEdge, 0, len(s.lineageOrder))
	for _, k := range s.lineageOrder {
		out = append(out, s.lineage[k])
	}
	return out
}
