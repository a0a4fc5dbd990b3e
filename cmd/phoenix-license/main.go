package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"phoenixstudio.dev/licensing/config"
	"phoenixstudio.dev/licensing/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// env carries the process dependencies so commands can run against an
// in-memory filesystem and fixed clock in tests.
type env struct {
	out        io.Writer
	errOut     io.Writer
	fs         afero.Fs
	rand       io.Reader
	now        func() time.Time
	keyDir     string
	loadConfig func() (config.Config, error)
}

func defaultEnv(out, errOut io.Writer) *env {
	return &env{
		out:        out,
		errOut:     errOut,
		fs:         afero.NewOsFs(),
		rand:       rand.Reader,
		now:        time.Now,
		loadConfig: config.Load,
	}
}

// usageError marks bad invocations, which exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// exitCodeError carries a non-zero status whose details were already printed.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func run(args []string, out io.Writer, errOut io.Writer) int {
	return runEnv(defaultEnv(out, errOut), args)
}

func runEnv(e *env, args []string) int {
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(e.out)
	root.SetErr(e.errOut)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit exitCodeError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(e.errOut, "error: %v\n", err)
	var usage usageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phoenix-license",
		Short: "Issue, inspect and verify Phoenix license files",

		// Errors are printed by runEnv with the matching exit status.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	rootCmd.PersistentFlags().StringVar(&e.keyDir, "key-dir", "",
		"Directory holding signing keys (default ~/.phoenix/keys)")
	rootCmd.AddCommand(
		newKeyCmd(e),
		newSignCmd(e),
		newVerifyCmd(e),
		newStatusCmd(e),
		newCanonicalizeCmd(e),
	)
	return rootCmd
}

// config loads the configuration. Invalid optional values fall back to their
// defaults with a warning so they cannot disable verification.
func (e *env) config() (config.Config, error) {
	cfg, err := e.loadConfig()
	if err != nil && errors.Is(err, config.ErrDefaulted) {
		fmt.Fprintf(e.errOut, "warning: %v\n", err)
		return cfg, nil
	}
	return cfg, err
}

// logger builds the command logger from configuration, writing to stderr.
func (e *env) logger(cfg config.Config) logrus.FieldLogger {
	return logging.New(cfg, e.errOut)
}
