package fingerprint

import (
	"strings"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/canon"
)

// SchemaDescriptor describes a dataset's schema. Canonical must already be
// a stable representation — fingerprint never re-canonicalizes it.
type SchemaDescriptor struct {
	Format    string
	Canonical canon.Value
}

func (s SchemaDescriptor) canonValue() canon.Value {
	o := canon.NewObject()
	o.Set("format", canon.Str(strings.ToLower(strings.TrimSpace(s.Format))))
	o.Set("canonical", s.Canonical)
	return canon.Obj(o)
}

// SchemaHashV0 computes sha256(postcard({format, canonical})).
func SchemaHashV0(schema SchemaDescriptor) [32]byte {
	return canon.HashValue(schema.canonValue())
}

// noSchema is the placeholder schema used when a materialization declares
// no schema for an output.
var noSchema = SchemaDescriptor{Format: buildinfo.NoSchemaTag, Canonical: canon.Null()}

// NoSchemaHashV0 returns the fixed hash of the "no_schema_v0" placeholder.
func NoSchemaHashV0() [32]byte {
	return SchemaHashV0(noSchema)
}

// SchemaHashOrDefault hashes schema if non-nil, otherwise the no-schema
// placeholder — the common "schema || no_schema" fallback used wherever
// an output's schema is optional.
func SchemaHashOrDefault(schema *SchemaDescriptor) [32]byte {
	if schema == nil {
		return NoSchemaHashV0()
	}
	return SchemaHashV0(*schema)
}
