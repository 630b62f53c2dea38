// Package swarmerr provides the closed error taxonomy used across every
// SwarmTorch core engine. Every error that crosses a package boundary is
// a *Error carrying one of the Kinds below — no layer logs-and-swallows,
// and every error surfaces to the caller.
package swarmerr

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of observable failure conditions.
type Kind string

const (
	// KindValidationFailure covers contract violations: missing input
	// asset, undeclared output, duplicate key, oversize URI, malformed hex.
	KindValidationFailure Kind = "VALIDATION_FAILURE"

	// KindVerificationFailed covers cryptographic/integrity failures:
	// wrong signature, invalid public key, unsupported version.
	KindVerificationFailed Kind = "VERIFICATION_FAILED"

	// KindReplayExpired is a stale/future timestamp outside clock skew.
	KindReplayExpired Kind = "REPLAY_EXPIRED"

	// KindReplayDuplicate is a previously-seen sequence number.
	KindReplayDuplicate Kind = "REPLAY_DUPLICATE"

	// KindReplayTooOld is a sequence number outside the reorder window.
	KindReplayTooOld Kind = "REPLAY_TOO_OLD"

	// KindInsufficientUpdates is raised when an aggregator receives fewer
	// vectors than its Byzantine tolerance requires.
	KindInsufficientUpdates Kind = "INSUFFICIENT_UPDATES"

	// KindInvalidGradient covers NaN/Inf/coordinate/L2 bound violations.
	KindInvalidGradient Kind = "INVALID_GRADIENT"

	// KindIoFailure surfaces an underlying filesystem error verbatim.
	KindIoFailure Kind = "IO_FAILURE"

	// KindManifestMismatch is a size or digest disagreement with manifest.json.
	KindManifestMismatch Kind = "MANIFEST_MISMATCH"
)

// AllKinds returns every defined Kind, for documentation generation by an
// external reporting layer.
func AllKinds() []Kind {
	return []Kind{
		KindValidationFailure,
		KindVerificationFailed,
		KindReplayExpired,
		KindReplayDuplicate,
		KindReplayTooOld,
		KindInsufficientUpdates,
		KindInvalidGradient,
		KindIoFailure,
		KindManifestMismatch,
	}
}

// Retryable reports whether a Kind suggests that re-presenting the same
// operation might succeed. Only used for caller guidance; never consulted
// internally.
func (k Kind) Retryable() bool {
	switch k {
	case KindIoFailure:
		return true
	default:
		return false
	}
}

// Error is the concrete error type returned by every SwarmTorch core package.
type Error struct {
	Kind Kind
	Msg  string
	// Field, if non-empty, names the offending field/path for diagnostics.
	Field string
	// Index is set for per-coordinate gradient violations; -1 if unused.
	Index int
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Index >= 0 {
		base = fmt.Sprintf("%s (index=%d)", base, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is comparisons against a Kind-tagged sentinel created
// with New(kind, "").
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// New creates a bare *Error of the given Kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Index: -1}
}

// Newf creates a bare *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Index: -1}
}

// Wrap creates an *Error of the given Kind that wraps an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err, Index: -1}
}

// WithField sets the diagnostic field name and returns the receiver.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithIndex sets the diagnostic coordinate index and returns the receiver.
func (e *Error) WithIndex(i int) *Error {
	e.Index = i
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
