// Package canonical implements the deterministic JSON byte form that license
// signatures are computed over.
//
// Serialize is the single canonicalization choke point: object keys are
// sorted byte-wise at every depth, output is compact, strings use minimal
// JSON escaping and floats use the ECMAScript number form (RFC 8785).
// Logically equal documents always produce identical bytes.
package canonical
