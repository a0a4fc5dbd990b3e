// Package logging builds the logrus logger used by the licensing components.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"phoenixstudio.dev/licensing/config"
)

// New returns a logger writing to w with the level and format from cfg.
// Unknown or empty levels fall back to info.
func New(cfg config.Config, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.New()
	logger.SetOutput(w)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger log.FieldLogger, name string) *log.Entry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return logger.WithField("component", name)
}
