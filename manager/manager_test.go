package manager

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/compliance"
	"phoenixstudio.dev/licensing/config"
	"phoenixstudio.dev/licensing/license"
	"phoenixstudio.dev/licensing/license/licensetest"
)

const licensePath = "/etc/phoenix/license.json"

var (
	issuedAt  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiresAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	beforeExp = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	afterExp  = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
)

type transition struct{ from, to State }

type recorder struct {
	mu   sync.Mutex
	seen []transition
}

func (r *recorder) LicenseStateChanged(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, transition{from, to})
}

func (r *recorder) transitions() []transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition(nil), r.seen...)
}

type fixture struct {
	fs   afero.Fs
	pub  string
	priv []byte
	now  time.Time
	rec  *recorder
	hook *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub, priv := licensetest.Keypair(t, 1)
	return &fixture{
		fs:   afero.NewMemMapFs(),
		pub:  licensetest.PublicKeyBase64(pub),
		priv: priv,
		now:  beforeExp,
		rec:  &recorder{},
	}
}

func (f *fixture) manager(cfg config.Config, opts ...Option) *Manager {
	logger, hook := test.NewNullLogger()
	f.hook = hook
	base := []Option{
		WithFs(f.fs),
		WithLogger(logger),
		WithClock(func() time.Time { return f.now }),
		WithConfig(cfg),
		WithObserver(f.rec),
	}
	return New(append(base, opts...)...)
}

func (f *fixture) configured() config.Config {
	return config.Config{PublicKey: f.pub, LicensePath: licensePath}
}

func (f *fixture) writeLicense(t *testing.T, features []string, exp *time.Time) {
	t.Helper()
	data := licensetest.Signed(t, f.priv, license.Claims{
		Subject:   "Acme Optics",
		Features:  features,
		IssuedAt:  issuedAt,
		ExpiresAt: exp,
	})
	licensetest.WriteFile(t, f.fs, licensePath, data)
}

func TestNewStartsNotConfigured(t *testing.T) {
	m := New(WithConfig(config.Config{}), WithFs(afero.NewMemMapFs()))
	assert.Equal(t, NotConfigured, m.CurrentState())
	_, ok := m.CurrentLicense()
	assert.False(t, ok)
	assert.False(t, m.HasFeature("raytrace"))
}

func TestInitializeWithoutKey(t *testing.T) {
	f := newFixture(t)
	m := f.manager(config.Config{})

	assert.Equal(t, NotConfigured, m.Initialize())
	assert.Empty(t, f.rec.transitions(), "no change, no notification")
	assert.Empty(t, m.LicensePath())
	assert.Equal(t, NotConfigured, m.Refresh())
	require.NotNil(t, f.hook.LastEntry())
}

func TestInitializeWithUndecodableKey(t *testing.T) {
	f := newFixture(t)
	m := f.manager(config.Config{PublicKey: "not-base64!"})
	assert.Equal(t, NotConfigured, m.Initialize())
}

func TestInitializeUnloadableConfigFailsClosed(t *testing.T) {
	f := newFixture(t)
	m := f.manager(config.Config{}, WithConfigLoader(func() (config.Config, error) {
		return config.Config{}, errors.New("bad env")
	}))
	assert.Equal(t, Invalid, m.Initialize())
	assert.Equal(t, Invalid, m.Refresh())
	assert.False(t, m.HasFeature("raytrace"))
	assert.Equal(t, []transition{{NotConfigured, Invalid}}, f.rec.transitions())
}

func TestInvalidOptionalSettingsKeepKeyDecision(t *testing.T) {
	cases := []struct {
		name  string
		env   map[string]string
		other bool
		want  State
	}{
		{name: "bad log level", env: map[string]string{"PHOENIX_LOG_LEVEL": "verbose"}, want: Valid},
		{name: "bad log format", env: map[string]string{"PHOENIX_LOG_FORMAT": "xml"}, want: Valid},
		{name: "bad mode", env: map[string]string{"PHOENIX_LICENSE_MODE": "lenient"}, want: Valid},
		{name: "upper case mode", env: map[string]string{"PHOENIX_LICENSE_MODE": "STRICT"}, want: Valid},
		{name: "bad log level other key", env: map[string]string{"PHOENIX_LOG_LEVEL": "verbose"}, other: true, want: Invalid},
		{name: "upper case mode other key", env: map[string]string{"PHOENIX_LICENSE_MODE": "STRICT"}, other: true, want: Invalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.other {
				_, f.priv = licensetest.Keypair(t, 2)
			}
			f.writeLicense(t, []string{"raytrace"}, nil)
			t.Setenv(config.EnvPublicKey, f.pub)
			t.Setenv(config.EnvLicensePath, licensePath)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			logger, _ := test.NewNullLogger()
			m := New(WithFs(f.fs), WithLogger(logger))
			assert.Equal(t, tc.want, m.Initialize())
			assert.Equal(t, tc.want == Valid, m.HasFeature("raytrace"))
		})
	}
}

func TestInitializeNoLicenseFile(t *testing.T) {
	f := newFixture(t)
	m := f.manager(f.configured())

	assert.Equal(t, NoLicense, m.Initialize())
	assert.Equal(t, licensePath, m.LicensePath())
	assert.Equal(t, []transition{{NotConfigured, NoLicense}}, f.rec.transitions())
	_, ok := m.CurrentLicense()
	assert.False(t, ok)
	assert.False(t, m.HasFeature("raytrace"))
}

func TestInitializeValidLicense(t *testing.T) {
	f := newFixture(t)
	exp := expiresAt
	f.writeLicense(t, []string{"raytrace", "export"}, &exp)
	m := f.manager(f.configured())

	assert.Equal(t, Valid, m.Initialize())
	assert.True(t, m.HasFeature("raytrace"))
	assert.True(t, m.HasFeature("export"))
	assert.False(t, m.HasFeature("nonexistent"))

	lic, ok := m.CurrentLicense()
	require.True(t, ok)
	assert.Equal(t, "Acme Optics", lic.Subject())

	st := m.Status()
	assert.Equal(t, "valid", st.State)
	assert.Equal(t, "Valid", st.Label)
	assert.Equal(t, licensePath, st.Path)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", st.IssuedAt)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", st.ExpiresAt)
	assert.NotEmpty(t, st.LicenseID)
}

func TestInitializeExpiredLicense(t *testing.T) {
	f := newFixture(t)
	f.now = afterExp
	exp := expiresAt
	f.writeLicense(t, []string{"raytrace"}, &exp)
	m := f.manager(f.configured())

	assert.Equal(t, Expired, m.Initialize())
	assert.False(t, m.HasFeature("raytrace"), "expired licenses grant nothing")
	lic, ok := m.CurrentLicense()
	require.True(t, ok, "expired license stays available for display")
	assert.Equal(t, "Acme Optics", lic.Subject())
	assert.Equal(t, "Expired", m.Status().Label)
}

func TestInitializeInvalidLicense(t *testing.T) {
	f := newFixture(t)
	licensetest.WriteFile(t, f.fs, licensePath, []byte(`{"subject":"Acme","issued_at":"2025-01-01","signature":"AAAA"}`))
	m := f.manager(f.configured())

	assert.Equal(t, Invalid, m.Initialize())
	_, ok := m.CurrentLicense()
	assert.False(t, ok)
	assert.False(t, m.HasFeature("raytrace"))
	st := m.Status()
	assert.Equal(t, "invalid", st.State)
	assert.Empty(t, st.Subject)
}

func TestLicenseSignedByOtherKeyIsInvalid(t *testing.T) {
	f := newFixture(t)
	_, other := licensetest.Keypair(t, 2)
	licensetest.WriteFile(t, f.fs, licensePath, licensetest.Signed(t, other, license.Claims{
		Subject: "Acme", Features: []string{"raytrace"}, IssuedAt: issuedAt,
	}))
	m := f.manager(f.configured())
	assert.Equal(t, Invalid, m.Initialize())
}

func TestRefreshTransitions(t *testing.T) {
	f := newFixture(t)
	m := f.manager(f.configured())
	require.Equal(t, NoLicense, m.Initialize())

	exp := expiresAt
	f.writeLicense(t, []string{"raytrace"}, &exp)
	assert.Equal(t, Valid, m.Refresh())
	assert.Equal(t, Valid, m.Refresh())

	f.now = afterExp
	assert.Equal(t, Expired, m.Refresh())

	licensetest.WriteFile(t, f.fs, licensePath, []byte("garbage"))
	assert.Equal(t, Invalid, m.Refresh())

	require.NoError(t, f.fs.Remove(licensePath))
	assert.Equal(t, NoLicense, m.Refresh())

	assert.Equal(t, []transition{
		{NotConfigured, NoLicense},
		{NoLicense, Valid},
		{Valid, Expired},
		{Expired, Invalid},
		{Invalid, NoLicense},
	}, f.rec.transitions())
}

func TestReinitializeWithoutKeyClearsLicense(t *testing.T) {
	f := newFixture(t)
	f.writeLicense(t, []string{"raytrace"}, nil)
	cfg := f.configured()
	m := f.manager(config.Config{}, WithConfigLoader(func() (config.Config, error) { return cfg, nil }))
	require.Equal(t, Valid, m.Initialize())

	cfg = config.Config{}
	assert.Equal(t, NotConfigured, m.Initialize())
	_, ok := m.CurrentLicense()
	assert.False(t, ok)
	assert.Equal(t, NotConfigured, m.Refresh())
}

func TestValidLicenseWithoutFeatures(t *testing.T) {
	f := newFixture(t)
	f.writeLicense(t, nil, nil)
	m := f.manager(f.configured())

	assert.Equal(t, Valid, m.Initialize())
	assert.False(t, m.HasFeature("raytrace"))
	lic, ok := m.CurrentLicense()
	require.True(t, ok)
	assert.False(t, lic.IsValid(f.now))
}

func TestStrictModeOverride(t *testing.T) {
	f := newFixture(t)
	doc := canonical.Object{
		"subject":   canonical.String("Acme"),
		"issued_at": canonical.String("2025-01-01T00:00:00Z"),
		"features":  canonical.Array{canonical.String("raytrace")},
	}
	licensetest.WriteFile(t, f.fs, licensePath, licensetest.SignedObject(t, f.priv, doc))

	assert.Equal(t, Valid, f.manager(f.configured()).Initialize())
	assert.Equal(t, Invalid, f.manager(f.configured(), WithMode(compliance.Strict)).Initialize())

	cfg := f.configured()
	cfg.Mode = "strict"
	assert.Equal(t, Invalid, f.manager(cfg).Initialize())
}

func TestDefaultLicensePath(t *testing.T) {
	f := newFixture(t)
	m := f.manager(config.Config{PublicKey: f.pub})

	assert.Equal(t, NoLicense, m.Initialize())
	path := m.LicensePath()
	assert.Equal(t, config.LicenseFileName, filepath.Base(path))
	assert.Equal(t, config.AppDir, filepath.Base(filepath.Dir(path)))

	f.writeLicenseAt(t, path)
	assert.Equal(t, Valid, m.Refresh())
}

func (f *fixture) writeLicenseAt(t *testing.T, path string) {
	t.Helper()
	data := licensetest.Signed(t, f.priv, license.Claims{Subject: "Acme", Features: []string{"raytrace"}, IssuedAt: issuedAt})
	licensetest.WriteFile(t, f.fs, path, data)
}

func TestInitializeFromEnvironment(t *testing.T) {
	f := newFixture(t)
	f.writeLicense(t, []string{"raytrace"}, nil)
	t.Setenv(config.EnvPublicKey, f.pub)
	t.Setenv(config.EnvLicensePath, licensePath)

	logger, _ := test.NewNullLogger()
	m := New(WithFs(f.fs), WithLogger(logger))
	assert.Equal(t, Valid, m.Initialize())
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	m := f.manager(f.configured())
	var got []State
	m.Subscribe(ObserverFunc(func(_, to State) { got = append(got, to) }))

	m.Initialize()
	f.writeLicense(t, []string{"raytrace"}, nil)
	m.Refresh()
	assert.Equal(t, []State{NoLicense, Valid}, got)
}

func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	f := newFixture(t)
	f.writeLicense(t, []string{"raytrace"}, nil)
	m := f.manager(f.configured())
	require.Equal(t, Valid, m.Initialize())

	valid, err := afero.ReadFile(f.fs, licensePath)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st := m.Status()
				switch st.State {
				case "valid":
					if st.Subject != "Acme Optics" {
						t.Errorf("valid status without license: %+v", st)
						return
					}
				case "invalid":
					if st.Subject != "" {
						t.Errorf("invalid status with license: %+v", st)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			licensetest.WriteFile(t, f.fs, licensePath, []byte("{}"))
		} else {
			licensetest.WriteFile(t, f.fs, licensePath, valid)
		}
		m.Refresh()
	}
	close(stop)
	wg.Wait()
}
