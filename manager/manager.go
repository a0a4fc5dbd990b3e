// Package manager tracks the installed license and exposes a single,
// consistently published license state to the rest of the application.
package manager

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"phoenixstudio.dev/licensing/compliance"
	"phoenixstudio.dev/licensing/config"
	"phoenixstudio.dev/licensing/license"
	"phoenixstudio.dev/licensing/model"
)

// Observer is notified after each actual state change, in transition order.
// Observers run on the goroutine that called Initialize or Refresh and must
// not call either of them.
type Observer interface {
	LicenseStateChanged(from, to State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(from, to State)

func (f ObserverFunc) LicenseStateChanged(from, to State) { f(from, to) }

// snapshot is published as a unit so readers never see a state paired with
// another state's license.
type snapshot struct {
	state   State
	license *license.License
	path    string
}

// Manager owns the license lifecycle. Construct one per application with New
// and pass it to the components that need license decisions.
type Manager struct {
	mu       sync.Mutex // serializes Initialize, Refresh and Subscribe
	current  atomic.Pointer[snapshot]
	verifier *license.Verifier

	log        logrus.FieldLogger
	fs         afero.Fs
	now        func() time.Time
	loadConfig func() (config.Config, error)
	mode       *compliance.Mode
	observers  []Observer
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithConfigLoader replaces config.Load, which reads the environment.
func WithConfigLoader(load func() (config.Config, error)) Option {
	return func(m *Manager) { m.loadConfig = load }
}

// WithConfig uses a fixed configuration instead of the environment.
func WithConfig(cfg config.Config) Option {
	return WithConfigLoader(func() (config.Config, error) { return cfg, nil })
}

// WithMode overrides the configured compliance mode.
func WithMode(mode compliance.Mode) Option {
	return func(m *Manager) { m.mode = &mode }
}

func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// New returns a manager in the NotConfigured state. Call Initialize to load
// the license.
func New(opts ...Option) *Manager {
	m := &Manager{
		log:        logrus.StandardLogger(),
		fs:         afero.NewOsFs(),
		now:        time.Now,
		loadConfig: config.Load,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("component", "license-manager")
	m.current.Store(&snapshot{state: NotConfigured})
	return m
}

// Subscribe adds an observer after construction.
func (m *Manager) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Initialize reads the configuration, builds the verifier and loads the
// license. It may be called again to pick up configuration changes.
func (m *Manager) Initialize() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.loadConfig()
	switch {
	case err == nil:
	case errors.Is(err, config.ErrDefaulted):
		m.log.WithError(err).Warn("Ignoring invalid license configuration values")
	default:
		// The key cannot be known, so licensing fails closed.
		m.log.WithError(err).Error("Failed to load license configuration")
		m.verifier = nil
		return m.publish(Invalid, nil, "")
	}

	opts := []license.Option{license.WithFs(m.fs), license.WithLogger(m.log)}
	if m.mode != nil {
		opts = append(opts, license.WithMode(*m.mode))
	}
	v, ok := license.FromConfig(cfg, opts...)
	if !ok {
		m.log.Infof("%s not set - licensing not configured", config.EnvPublicKey)
		m.verifier = nil
		return m.publish(NotConfigured, nil, "")
	}
	m.verifier = v

	path, err := cfg.ResolveLicensePath()
	if err != nil {
		m.log.WithError(err).Warn("Cannot determine license path")
		return m.publish(NoLicense, nil, "")
	}
	m.log.WithField("path", path).Info("Initializing license manager")
	return m.load(path)
}

// Refresh reloads the license file from the current path. Without a
// verifier it keeps the current state.
func (m *Manager) Refresh() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.verifier == nil {
		return m.current.Load().state
	}
	return m.load(m.current.Load().path)
}

func (m *Manager) load(path string) State {
	log := m.log.WithField("path", path)
	if path == "" {
		return m.publish(NoLicense, nil, path)
	}
	if exists, err := afero.Exists(m.fs, path); err == nil && !exists {
		log.Info("License file not found")
		return m.publish(NoLicense, nil, path)
	}

	lic, err := m.verifier.LoadAndVerify(path)
	if err != nil {
		if license.IsKind(err, license.KindIO) {
			return m.publish(NoLicense, nil, path)
		}
		log.WithError(err).Warn("License verification failed")
		return m.publish(Invalid, nil, path)
	}

	if lic.Expired(m.now()) {
		log.WithField("subject", lic.Subject()).Warn("License expired")
		return m.publish(Expired, lic, path)
	}
	log.WithFields(logrus.Fields{
		"subject":  lic.Subject(),
		"features": lic.Features(),
	}).Info("License loaded successfully")
	return m.publish(Valid, lic, path)
}

// publish swaps in the new snapshot and notifies observers when the state
// changed. Callers hold m.mu.
func (m *Manager) publish(state State, lic *license.License, path string) State {
	prev := m.current.Swap(&snapshot{state: state, license: lic, path: path})
	if prev.state == state {
		return state
	}
	m.log.WithFields(logrus.Fields{
		"from": prev.state.String(),
		"to":   state.String(),
	}).Info("License state changed")
	for _, o := range m.observers {
		o.LicenseStateChanged(prev.state, state)
	}
	return state
}

// CurrentState returns the most recently published state.
func (m *Manager) CurrentState() State {
	return m.current.Load().state
}

// CurrentLicense returns the cached license in the Valid and Expired states.
func (m *Manager) CurrentLicense() (*license.License, bool) {
	s := m.current.Load()
	if (s.state == Valid || s.state == Expired) && s.license != nil {
		return s.license, true
	}
	return nil, false
}

// HasFeature reports whether a Valid license grants feature. It is false in
// every other state, including Expired.
func (m *Manager) HasFeature(feature string) bool {
	s := m.current.Load()
	if s.state != Valid || s.license == nil {
		return false
	}
	return s.license.HasFeature(feature)
}

// LicensePath returns the license file path in use, or "" when licensing is
// not configured.
func (m *Manager) LicensePath() string {
	return m.current.Load().path
}

// Status projects the current state for display.
func (m *Manager) Status() model.Status {
	s := m.current.Load()
	st := model.Status{
		State: s.state.String(),
		Label: s.state.Label(),
		Path:  s.path,
	}
	if s.state == Valid || s.state == Expired {
		st = st.WithLicense(s.license)
	}
	return st
}
