// Package fingerprint implements the pure fingerprint rules: source,
// schema, recipe, and dataset fingerprints, predicted output
// fingerprints, and the cache key. Every function here is pure — no
// registry lookups, no I/O, no mutation.
package fingerprint

import (
	"net/url"
	"strings"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/canon"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// AuthModeKind is the wire auth-mode marker.
type AuthModeKind string

const (
	AuthNone        AuthModeKind = "none"
	AuthBearerToken AuthModeKind = "bearer_token"
	AuthBasic       AuthModeKind = "basic"
	AuthMtls        AuthModeKind = "mtls"
	AuthCustom      AuthModeKind = "custom"
)

// AuthMode describes a source's authentication mode. The Custom variant
// carries an arbitrary string tag; secrets must never be stored here —
// only a mode marker, never credentials.
type AuthMode struct {
	Kind   AuthModeKind
	Custom string
}

// String renders the canonical auth_mode_string used in fingerprinting.
func (a AuthMode) String() string {
	if a.Kind == AuthCustom {
		return "custom:" + a.Custom
	}
	return string(a.Kind)
}

func NewAuthNone() AuthMode        { return AuthMode{Kind: AuthNone} }
func NewAuthBearerToken() AuthMode { return AuthMode{Kind: AuthBearerToken} }
func NewAuthBasic() AuthMode       { return AuthMode{Kind: AuthBasic} }
func NewAuthMtls() AuthMode        { return AuthMode{Kind: AuthMtls} }
func NewAuthCustom(tag string) AuthMode {
	return AuthMode{Kind: AuthCustom, Custom: tag}
}

// SourceDescriptor describes the provenance of a dataset asset.
type SourceDescriptor struct {
	URI           string
	ContentType   string
	AuthMode      AuthMode
	EtagOrVersion string
}

// RedactURI replaces any userinfo in uri with "<redacted>": "user[:pass]@host"
// becomes "<redacted>@host". Different userinfo must yield equal
// fingerprints — this is what makes that invariant hold.
func RedactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	u.User = nil
	return strings.Replace(u.String(), "//", "//<redacted>@", 1)
}

// normalize trims, lowercases protocol-ish strings, redacts URI userinfo,
// enforces max lengths, and defaults an empty content type to the
// root-source placeholder tag.
func normalize(src SourceDescriptor) (SourceDescriptor, error) {
	out := src
	out.URI = RedactURI(strings.TrimSpace(src.URI))
	if len(out.URI) > buildinfo.MaxSourceURILen {
		return out, swarmerr.Newf(swarmerr.KindValidationFailure,
			"source uri exceeds max length %d", buildinfo.MaxSourceURILen)
	}
	out.ContentType = strings.ToLower(strings.TrimSpace(src.ContentType))
	if out.ContentType == "" {
		out.ContentType = buildinfo.RootSourceTag
	}
	out.EtagOrVersion = strings.TrimSpace(src.EtagOrVersion)
	if len(out.EtagOrVersion) > buildinfo.MaxEtagOrVersionLen {
		return out, swarmerr.Newf(swarmerr.KindValidationFailure,
			"etag/version exceeds max length %d", buildinfo.MaxEtagOrVersionLen)
	}
	return out, nil
}

func (s SourceDescriptor) canonValue() canon.Value {
	o := canon.NewObject()
	o.Set("uri", canon.Str(s.URI))
	o.Set("content_type", canon.Str(s.ContentType))
	o.Set("auth_mode", canon.Str(s.AuthMode.String()))
	o.Set("etag_or_version", canon.Str(s.EtagOrVersion))
	return canon.Obj(o)
}

// SourceFingerprintV0 computes sha256(postcard({uri, content_type,
// auth_mode_string, etag_or_version})) after the redact+normalize
// pipeline. Different userinfo yields equal fingerprints; everything
// else about the URI is significant.
func SourceFingerprintV0(src SourceDescriptor) ([32]byte, error) {
	normd, err := normalize(src)
	if err != nil {
		return [32]byte{}, err
	}
	return canon.HashValue(normd.canonValue()), nil
}

// DerivedSourceFingerprintV0 computes the placeholder source fingerprint
// for a node-produced (non-root) asset, using the "derived_v0:" +
// asset_key domain tag as its URI. asset_key salts the result so that
// multiple outputs of one node never collide.
func DerivedSourceFingerprintV0(assetKey string) [32]byte {
	desc := SourceDescriptor{
		URI:      buildinfo.DerivedSourcePrefix + assetKey,
		AuthMode: NewAuthNone(),
	}
	fp, err := SourceFingerprintV0(desc)
	if err != nil {
		// Construction above can never exceed the length bounds for any
		// reasonable asset_key; if it somehow does, canon's sentinel
		// digest still keeps this a total function downstream.
		return canon.SentinelDigest()
	}
	return fp
}
