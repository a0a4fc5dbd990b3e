package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/keys"
	"phoenixstudio.dev/licensing/license"
)

type signOptions struct {
	keyName   string
	keyFile   string
	seedHex   string
	subject   string
	features  []string
	issuedAt  string
	expiresAt string
	expiresIn time.Duration
	outPath   string
}

func newSignCmd(e *env) *cobra.Command {
	var opts signOptions
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Issue a signed license file",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSign(e, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.keyName, "key", "", "Sign with a stored key by name (from 'phoenix-license key init')")
	f.StringVar(&opts.keyFile, "key-file", "", "Path to a seed file (hex)")
	f.StringVar(&opts.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	f.StringVar(&opts.subject, "subject", "", "Licensee name")
	f.StringArrayVar(&opts.features, "feature", nil, "Granted feature (repeatable)")
	f.StringVar(&opts.issuedAt, "issued-at", "", "Issue time, ISO-8601 (default now)")
	f.StringVar(&opts.expiresAt, "expires-at", "", "Expiry time, ISO-8601")
	f.DurationVar(&opts.expiresIn, "expires-in", 0, "Expiry relative to the issue time, e.g. 8760h")
	f.StringVarP(&opts.outPath, "out", "o", "", "Write the license here instead of stdout")
	return cmd
}

func runSign(e *env, opts signOptions) error {
	if opts.subject == "" {
		return usagef("missing --subject")
	}
	if opts.expiresAt != "" && opts.expiresIn != 0 {
		return usagef("--expires-at and --expires-in are mutually exclusive")
	}
	if opts.keyName == "" && opts.keyFile == "" && opts.seedHex == "" {
		return usagef("one of --key, --key-file or --seed-hex is required")
	}

	claims := license.Claims{
		Subject:  opts.subject,
		Features: opts.features,
		IssuedAt: e.now(),
	}
	if opts.issuedAt != "" {
		t, err := canonical.ParseTimestamp(opts.issuedAt)
		if err != nil {
			return usagef("invalid --issued-at: %v", err)
		}
		claims.IssuedAt = t
	}
	switch {
	case opts.expiresAt != "":
		t, err := canonical.ParseTimestamp(opts.expiresAt)
		if err != nil {
			return usagef("invalid --expires-at: %v", err)
		}
		claims.ExpiresAt = &t
	case opts.expiresIn > 0:
		t := claims.IssuedAt.Add(opts.expiresIn)
		claims.ExpiresAt = &t
	case opts.expiresIn < 0:
		return usagef("--expires-in must be positive")
	}

	ks, err := e.keyStore()
	if err != nil {
		return err
	}
	seed, err := ks.LoadSeed(opts.seedHex, opts.keyName, opts.keyFile)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	priv, err := keys.PrivateKeyFromSeed(seed)
	if err != nil {
		return err
	}
	data, err := license.Sign(claims, priv)
	if err != nil {
		return fmt.Errorf("sign license: %w", err)
	}
	data = append(data, '\n')

	if opts.outPath == "" {
		_, err = e.out.Write(data)
		return err
	}
	if err := e.fs.MkdirAll(filepath.Dir(opts.outPath), 0o755); err != nil {
		return fmt.Errorf("write license: %w", err)
	}
	if err := afero.WriteFile(e.fs, opts.outPath, data, 0o644); err != nil {
		return fmt.Errorf("write license: %w", err)
	}
	fmt.Fprintf(e.errOut, "Wrote license for %q to %s\n", opts.subject, opts.outPath)
	return nil
}
