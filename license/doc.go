// Package license verifies Ed25519-signed license documents.
//
// A license file is a JSON object with subject, issued_at, optional
// expires_at, optional features and a base64 signature. The signature covers
// the canonical form (package canonical) of the object with the signature
// member removed. Verification fails closed: every failure returns a nil
// *License and a structured *Error whose Kind and RuleID are stable.
package license
