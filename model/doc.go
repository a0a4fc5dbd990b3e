// Package model defines stable boundary types for CLI and API layers.
//
// License identity (canonical payload bytes and their CID) is unaffected by
// any projection. These structs are the only types intended for direct
// JSON/YAML serialization by consumers.
package model
