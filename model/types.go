package model

import (
	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/license"
)

// Status is the user-facing projection of the license manager state.
//
// Timestamps use the canonical form (YYYY-MM-DDTHH:MM:SS.sssZ). ExpiresAt is
// empty for a perpetual license. License fields are empty unless the state
// carries a license (valid or expired).
type Status struct {
	State     string   `json:"state" yaml:"state"`
	Label     string   `json:"label" yaml:"label"`
	Path      string   `json:"path,omitempty" yaml:"path,omitempty"`
	Subject   string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Features  []string `json:"features,omitempty" yaml:"features,omitempty"`
	IssuedAt  string   `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	ExpiresAt string   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	LicenseID string   `json:"licenseID,omitempty" yaml:"licenseID,omitempty"`
}

// LicenseInfo is the projection of a single verified license.
type LicenseInfo struct {
	Subject   string   `json:"subject" yaml:"subject"`
	Features  []string `json:"features" yaml:"features"`
	IssuedAt  string   `json:"issuedAt" yaml:"issuedAt"`
	ExpiresAt string   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	LicenseID string   `json:"licenseID,omitempty" yaml:"licenseID,omitempty"`
}

// VerifyResult reports the outcome of verifying one license file.
type VerifyResult struct {
	Path    string       `json:"path" yaml:"path"`
	OK      bool         `json:"ok" yaml:"ok"`
	Expired bool         `json:"expired,omitempty" yaml:"expired,omitempty"`
	License *LicenseInfo `json:"license,omitempty" yaml:"license,omitempty"`
	Error   *CodedError  `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewLicenseInfo projects lic. It returns nil for a nil license.
func NewLicenseInfo(lic *license.License) *LicenseInfo {
	if lic == nil {
		return nil
	}
	info := &LicenseInfo{
		Subject:   lic.Subject(),
		Features:  lic.Features(),
		IssuedAt:  canonical.FormatTimestamp(lic.IssuedAt()),
		LicenseID: lic.ID(),
	}
	if exp, ok := lic.ExpiresAt(); ok {
		info.ExpiresAt = canonical.FormatTimestamp(exp)
	}
	return info
}

// WithLicense returns s with the license fields filled from lic.
func (s Status) WithLicense(lic *license.License) Status {
	info := NewLicenseInfo(lic)
	if info == nil {
		return s
	}
	s.Subject = info.Subject
	s.Features = info.Features
	s.IssuedAt = info.IssuedAt
	s.ExpiresAt = info.ExpiresAt
	s.LicenseID = info.LicenseID
	return s
}
