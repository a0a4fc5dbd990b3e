package license

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindConfig: the verifier has no usable public key.
	KindConfig Kind = "Config"
	// KindIO: the license file could not be read.
	KindIO Kind = "IO"
	// KindFormat: malformed JSON, schema violation or bad field value.
	KindFormat Kind = "Format"
	// KindCrypto: missing, malformed or non-matching signature.
	KindCrypto Kind = "Crypto"
	KindInternal Kind = "Internal"
)

// Stable rule identifiers.
const (
	RuleVerifierUnset    = "LIC-CFG-001"
	RulePublicKeySize    = "LIC-CFG-002"
	RuleRead             = "LIC-IO-001"
	RuleParse            = "LIC-FMT-001"
	RuleNotObject        = "LIC-FMT-002"
	RuleSchema           = "LIC-FMT-101"
	RuleSubjectEmpty     = "LIC-FMT-102"
	RuleIssuedAt         = "LIC-FMT-103"
	RuleExpiresAt        = "LIC-FMT-104"
	RuleTimestampForm    = "LIC-FMT-105"
	RuleUnknownField     = "LIC-FMT-106"
	RuleCanonicalize     = "LIC-FMT-201"
	RuleSignatureMissing = "LIC-CRYPTO-101"
	RuleSignatureType    = "LIC-CRYPTO-102"
	RuleSignatureBase64  = "LIC-CRYPTO-103"
	RuleSignatureSize    = "LIC-CRYPTO-201"
	RuleSignatureInvalid = "LIC-CRYPTO-301"
	RuleNilRule          = "LIC-INTERNAL-001"
)

// Error is the package's structured error type.
//
// RuleID names the violated check. Message is intended for humans; do not
// match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
