// Package compliance selects how strictly license documents are checked.
package compliance

import (
	"fmt"
	"strings"
)

// Mode selects how aggressively the verifier rejects ambiguity.
//
// Permissive accepts any ISO-8601 timestamp form and ignores unknown fields.
// Strict requires canonical millisecond UTC timestamps and rejects fields the
// license format does not define.
type Mode int

const (
	Permissive Mode = iota
	Strict
)

func (m Mode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "permissive" or "strict" (case-insensitive) to a Mode. The
// empty string selects Permissive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown compliance mode %q", s)
	}
}
