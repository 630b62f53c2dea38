package fingerprint

import "github.com/swarmic/SwarmTorch/internal/canon"

// DatasetFingerprintV0 computes sha256(postcard({src_fp, schema_fp,
// recipe_fp})) — the top-level content-addressing fingerprint for a
// dataset entry.
func DatasetFingerprintV0(srcFp, schemaFp, recipeFp [32]byte) [32]byte {
	o := canon.NewObject()
	o.Set("src_fp", canon.Str(hexOf(srcFp)))
	o.Set("schema_fp", canon.Str(hexOf(schemaFp)))
	o.Set("recipe_fp", canon.Str(hexOf(recipeFp)))
	return canon.HashValue(canon.Obj(o))
}
