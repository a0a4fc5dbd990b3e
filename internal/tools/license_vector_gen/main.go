// Command license_vector_gen maintains the canonicalization conformance
// vectors and prints a signed license for cross-implementation checks.
//
//	license_vector_gen -license         print the signed conformance license
//	license_vector_gen -dir D           rewrite D/*.canonical from D/*.json
//	license_vector_gen -dir D -check     fail if any D/*.canonical is stale
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/keys"
	"phoenixstudio.dev/licensing/license"
)

const conformanceSeedByte = 0xA1

func main() {
	dir := flag.String("dir", "", "Vector directory holding *.json inputs")
	check := flag.Bool("check", false, "Report stale vectors instead of rewriting them")
	printLicense := flag.Bool("license", false, "Print the signed conformance license")
	flag.Parse()

	if *printLicense {
		if err := writeConformanceLicense(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}
	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}
	stale, err := regenerate(afero.NewOsFs(), *dir, !*check)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	for _, name := range stale {
		fmt.Println(name)
	}
	if *check && len(stale) > 0 {
		os.Exit(1)
	}
}

// regenerate canonicalizes every *.json vector in dir and returns the names
// whose .canonical file differs. With write set, stale files are rewritten.
func regenerate(fs afero.Fs, dir string, write bool) ([]string, error) {
	inputs, err := afero.Glob(fs, filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no vectors in %s", dir)
	}
	var stale []string
	for _, in := range inputs {
		src, err := afero.ReadFile(fs, in)
		if err != nil {
			return nil, err
		}
		v, err := canonical.Decode(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
		want, err := canonical.Serialize(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
		out := strings.TrimSuffix(in, ".json") + ".canonical"
		have, err := afero.ReadFile(fs, out)
		if err == nil && bytes.Equal(have, want) {
			continue
		}
		stale = append(stale, filepath.Base(out))
		if write {
			if err := afero.WriteFile(fs, out, want, 0o644); err != nil {
				return nil, err
			}
		}
	}
	return stale, nil
}

func conformanceClaims() license.Claims {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return license.Claims{
		Subject:   "Conformance Vector",
		Features:  []string{"export", "raytrace"},
		IssuedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt: &expires,
	}
}

func writeConformanceLicense(w io.Writer) error {
	seed := bytes.Repeat([]byte{conformanceSeedByte}, 32)
	priv, err := keys.PrivateKeyFromSeed(seed)
	if err != nil {
		return err
	}
	pub, err := keys.PublicKeyFromSeed(seed)
	if err != nil {
		return err
	}
	pubB64, err := keys.PublicKeyBase64(pub)
	if err != nil {
		return err
	}
	data, err := license.Sign(conformanceClaims(), priv)
	if err != nil {
		return err
	}
	lic, err := license.NewVerifier(pub).Verify(data)
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}

	fmt.Fprintf(w, "PUBLIC_KEY=%s\n", pubB64)
	fmt.Fprintf(w, "ID=%s\n", lic.ID())
	fmt.Fprintf(w, "---BEGIN---\n%s\n---END---\n", data)
	return nil
}
