package manager

import "fmt"

// State is the license manager's view of the installed license.
type State int

const (
	// NotConfigured: no usable verification key is configured.
	NotConfigured State = iota
	// NoLicense: a key is configured but no license file was found.
	NoLicense
	// Invalid: the license file exists but failed verification.
	Invalid
	// Expired: the license verified but its expiry has passed.
	Expired
	// Valid: the license verified and has not expired.
	Valid
)

var stateNames = map[State]string{
	NotConfigured: "not_configured",
	NoLicense:     "no_license",
	Invalid:       "invalid",
	Expired:       "expired",
	Valid:         "valid",
}

var stateLabels = map[State]string{
	NotConfigured: "Not Configured",
	NoLicense:     "No License File",
	Invalid:       "Invalid",
	Expired:       "Expired",
	Valid:         "Valid",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Label is the human-readable state name shown to users.
func (s State) Label() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// MarshalText renders the state as its String form.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return NotConfigured, fmt.Errorf("unknown license state %q", name)
}
