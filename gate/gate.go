// Package gate turns license state into allow/deny decisions for features.
package gate

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"phoenixstudio.dev/licensing/manager"
)

// ErrFeatureNotLicensed is wrapped by Require when a feature is denied.
var ErrFeatureNotLicensed = errors.New("feature not licensed")

// Checker is the subset of *manager.Manager a Gate needs.
type Checker interface {
	CurrentState() manager.State
	HasFeature(feature string) bool
}

// Decision is the outcome of one feature check.
type Decision struct {
	Feature string
	Allowed bool
	State   manager.State
	// Reason explains a denial; empty when allowed.
	Reason string
}

// Gate answers feature checks against a Checker.
//
// When licensing is not configured every feature is allowed, so builds
// without a verification key keep working. WithStrict disables that.
type Gate struct {
	checker Checker
	strict  bool
	log     logrus.FieldLogger
}

type Option func(*Gate)

// WithStrict denies every feature while licensing is not configured.
func WithStrict() Option {
	return func(g *Gate) { g.strict = true }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Gate) { g.log = l }
}

func New(checker Checker, opts ...Option) *Gate {
	g := &Gate{checker: checker, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides whether feature may be used now.
func (g *Gate) Check(feature string) Decision {
	state := g.checker.CurrentState()
	d := Decision{Feature: feature, State: state}
	if state == manager.NotConfigured && !g.strict {
		d.Allowed = true
		return d
	}
	if g.checker.HasFeature(feature) {
		d.Allowed = true
		return d
	}
	d.Reason = denialReason(feature, state)
	g.log.WithFields(logrus.Fields{
		"feature": feature,
		"state":   state.String(),
	}).Info("Feature denied by license")
	return d
}

// Allowed is Check(feature).Allowed.
func (g *Gate) Allowed(feature string) bool {
	return g.Check(feature).Allowed
}

// Require returns nil when feature is allowed, else an error wrapping
// ErrFeatureNotLicensed.
func (g *Gate) Require(feature string) error {
	d := g.Check(feature)
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFeatureNotLicensed, d.Reason)
}

func denialReason(feature string, state manager.State) string {
	reason := fmt.Sprintf("this feature requires a valid license with the '%s' feature", feature)
	switch state {
	case manager.Expired:
		reason += " (License expired)"
	case manager.Invalid:
		reason += " (License invalid)"
	case manager.NoLicense:
		reason += " (No license file)"
	case manager.NotConfigured:
		reason += " (Licensing not configured)"
	}
	return reason
}
