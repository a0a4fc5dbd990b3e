package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"phoenixstudio.dev/licensing/compliance"
	"phoenixstudio.dev/licensing/config"
	"phoenixstudio.dev/licensing/license"
	"phoenixstudio.dev/licensing/model"
)

type verifyOptions struct {
	publicKey string
	mode      string
	output    string
}

func newVerifyCmd(e *env) *cobra.Command {
	var opts verifyOptions
	cmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Verify one or more license files",
		Long: "Verify license files against an Ed25519 public key. The key defaults to " +
			config.EnvPublicKey + ". Exits 1 if any file is invalid or expired.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("verify requires at least one FILE")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return runVerify(e, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.publicKey, "public-key", "", "Base64 Ed25519 public key (default $"+config.EnvPublicKey+")")
	f.StringVar(&opts.mode, "mode", "", "Compliance mode: permissive or strict (default from config)")
	f.StringVar(&opts.output, "output", string(outputText), "Output format: text, json or yaml")
	return cmd
}

func runVerify(e *env, opts verifyOptions, paths []string) error {
	format, err := parseOutputFormat(opts.output)
	if err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if opts.publicKey != "" {
		cfg.PublicKey = strings.TrimSpace(opts.publicKey)
	}
	if cfg.PublicKey == "" {
		return usagef("no public key: pass --public-key or set %s", config.EnvPublicKey)
	}
	log := e.logger(cfg)

	vopts := []license.Option{license.WithFs(e.fs), license.WithLogger(log)}
	if opts.mode != "" {
		mode, err := compliance.ParseMode(opts.mode)
		if err != nil {
			return usagef("invalid --mode: %v", err)
		}
		vopts = append(vopts, license.WithMode(mode))
	}
	key, err := license.DecodePublicKey(cfg.PublicKey)
	if err != nil {
		return usagef("invalid public key: %v", err)
	}
	v := license.NewVerifier(key, vopts...)

	results := verifyFiles(v, paths, e.now(), log)
	if format == outputText {
		writeVerifyText(e.out, results)
	} else if err := writeStructured(e.out, format, results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.OK {
			return exitCodeError{code: 1}
		}
	}
	return nil
}

// verifyFiles checks every path concurrently. Results keep the order of
// paths.
func verifyFiles(v *license.Verifier, paths []string, now time.Time, log logrus.FieldLogger) []model.VerifyResult {
	results := make([]model.VerifyResult, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			results[i] = verifyFile(v, path, now)
			return nil
		})
	}
	_ = g.Wait()
	log.WithField("files", len(paths)).Debug("Verification finished")
	return results
}

func verifyFile(v *license.Verifier, path string, now time.Time) model.VerifyResult {
	res := model.VerifyResult{Path: path}
	lic, err := v.LoadAndVerify(path)
	if err != nil {
		res.Error = model.FromError(err)
		return res
	}
	res.License = model.NewLicenseInfo(lic)
	res.Expired = lic.Expired(now)
	res.OK = !res.Expired
	return res
}

func writeVerifyText(w io.Writer, results []model.VerifyResult) {
	for _, r := range results {
		switch {
		case r.Error != nil:
			fmt.Fprintf(w, "%s: INVALID %s\n", r.Path, r.Error)
		case r.Expired:
			fmt.Fprintf(w, "%s: EXPIRED subject=%q expires_at=%s\n", r.Path, r.License.Subject, r.License.ExpiresAt)
		default:
			fmt.Fprintf(w, "%s: OK subject=%q features=%s expires_at=%s id=%s\n",
				r.Path, r.License.Subject, strings.Join(r.License.Features, ","),
				expiryText(r.License.ExpiresAt), r.License.LicenseID)
		}
	}
}

func expiryText(expiresAt string) string {
	if expiresAt == "" {
		return "Never"
	}
	return expiresAt
}
