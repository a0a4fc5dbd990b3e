package license

import (
	"errors"

	"phoenixstudio.dev/licensing/config"
)

// FromEnvironment builds a verifier from PHOENIX_LICENSE_PUBLIC_KEY. It
// returns false when the variable is unset, undecodable or the wrong size.
func FromEnvironment(opts ...Option) (*Verifier, bool) {
	cfg, err := config.Load()
	if err != nil {
		log := newVerifier(nil, opts...).log.WithError(err)
		if !errors.Is(err, config.ErrDefaulted) {
			log.Warn("Failed to load license configuration")
			return nil, false
		}
		log.Warn("Ignoring invalid license configuration values")
	}
	return FromConfig(cfg, opts...)
}

// FromConfig is FromEnvironment for an already loaded configuration. The
// configured compliance mode applies unless opts override it.
func FromConfig(cfg config.Config, opts ...Option) (*Verifier, bool) {
	opts = append([]Option{WithMode(cfg.ComplianceMode())}, opts...)
	v := newVerifier(nil, opts...)
	if cfg.PublicKey == "" {
		v.log.Debug("No license public key configured")
		return nil, false
	}
	key, err := DecodePublicKey(cfg.PublicKey)
	if err != nil {
		v.log.WithError(err).WithField("env", config.EnvPublicKey).Warn("Ignoring license public key")
		return nil, false
	}
	v.publicKey = key
	return v, true
}
