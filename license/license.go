package license

import "time"

// License is a verified license. Values are immutable once built and safe
// for concurrent reads.
type License struct {
	subject   string
	features  []string
	issuedAt  time.Time
	expiresAt *time.Time
	id        string
}

// New builds a License. expiresAt nil means the license never expires.
func New(subject string, features []string, issuedAt time.Time, expiresAt *time.Time) *License {
	l := &License{
		subject:  subject,
		features: append([]string(nil), features...),
		issuedAt: issuedAt.UTC(),
	}
	if expiresAt != nil {
		exp := expiresAt.UTC()
		l.expiresAt = &exp
	}
	return l
}

func (l *License) Subject() string { return l.subject }

// Features returns a copy of the granted feature names in document order.
func (l *License) Features() []string {
	return append([]string(nil), l.features...)
}

func (l *License) IssuedAt() time.Time { return l.issuedAt }

// ExpiresAt returns the expiry and true, or the zero time and false for a
// perpetual license.
func (l *License) ExpiresAt() (time.Time, bool) {
	if l.expiresAt == nil {
		return time.Time{}, false
	}
	return *l.expiresAt, true
}

// ID is the content identifier of the signed canonical payload. Empty for
// licenses built with New.
func (l *License) ID() string { return l.id }

// HasFeature reports exact, case-sensitive membership.
func (l *License) HasFeature(name string) bool {
	for _, f := range l.features {
		if f == name {
			return true
		}
	}
	return false
}

// Expired reports whether now is strictly after the expiry. A license
// without expiry never expires.
func (l *License) Expired(now time.Time) bool {
	if l.expiresAt == nil {
		return false
	}
	return now.After(*l.expiresAt)
}

// IsValid reports whether the license is unexpired and grants at least one
// feature.
func (l *License) IsValid(now time.Time) bool {
	return !l.Expired(now) && len(l.features) > 0
}
