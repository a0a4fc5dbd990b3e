// Package config loads licensing configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	homedir "github.com/mitchellh/go-homedir"

	"phoenixstudio.dev/licensing/compliance"
)

// Prefix is prepended to every environment variable name.
const Prefix = "PHOENIX"

const (
	// EnvPublicKey holds the base64 Ed25519 license verification key.
	EnvPublicKey = Prefix + "_LICENSE_PUBLIC_KEY"
	// EnvLicensePath overrides the default license file location.
	EnvLicensePath = Prefix + "_LICENSE_PATH"
)

// AppDir and LicenseFileName locate the default license file inside the
// user's configuration directory.
const (
	AppDir          = "Phoenix"
	LicenseFileName = "license.json"
)

// Config is the complete licensing configuration.
type Config struct {
	PublicKey   string `envconfig:"LICENSE_PUBLIC_KEY"`
	LicensePath string `envconfig:"LICENSE_PATH" validate:"omitempty,max=4096"`
	Mode        string `envconfig:"LICENSE_MODE" default:"permissive" validate:"omitempty,oneof=permissive strict"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"omitempty,oneof=text json"`
}

// Defaults for the optional settings.
const (
	DefaultMode      = "permissive"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ErrDefaulted marks a Load error after which the returned Config is still
// usable: invalid optional values were replaced by their defaults. The
// public key and license path are never altered.
var ErrDefaulted = errors.New("invalid values replaced by defaults")

var validate = validator.New()

// Load reads PHOENIX_* variables from the environment and validates them.
// Enumerated values are matched case-insensitively.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		cfg.resetInvalid(err)
		return cfg, fmt.Errorf("%w: %w", ErrDefaulted, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.PublicKey = strings.TrimSpace(c.PublicKey)
	c.LicensePath = strings.TrimSpace(c.LicensePath)
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// resetInvalid restores the defaults of the optional fields err names.
func (c *Config) resetInvalid(err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Mode":
			c.Mode = DefaultMode
		case "LogLevel":
			c.LogLevel = DefaultLogLevel
		case "LogFormat":
			c.LogFormat = DefaultLogFormat
		}
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ComplianceMode returns the configured verification strictness.
func (c Config) ComplianceMode() compliance.Mode {
	m, err := compliance.ParseMode(c.Mode)
	if err != nil {
		return compliance.Permissive
	}
	return m
}

// ResolveLicensePath returns the override path when set, else the default.
func (c Config) ResolveLicensePath() (string, error) {
	if c.LicensePath != "" {
		return c.LicensePath, nil
	}
	return DefaultLicensePath()
}

// DefaultLicensePath is <user config dir>/Phoenix/license.json. When the
// platform config dir is unknown, ~/.config is used.
func DefaultLicensePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := homedir.Dir()
		if herr != nil {
			return "", fmt.Errorf("locate config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppDir, LicenseFileName), nil
}
