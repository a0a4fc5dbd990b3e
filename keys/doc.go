// Package keys manages the Ed25519 keys license issuers sign with.
//
// Stable:
//   - Pure helpers for seed expansion, public key encoding and fingerprints.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). This is a local issuer
//     convenience and is not part of the license file contract.
package keys
