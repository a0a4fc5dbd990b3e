package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phoenixstudio.dev/licensing/config"
	"phoenixstudio.dev/licensing/keys"
)

func newKeyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage license signing keys",
	}
	cmd.AddCommand(newKeyInitCmd(e), newKeyListCmd(e), newKeyExportCmd(e))
	return cmd
}

func (e *env) keyStore() (*keys.KeyStore, error) {
	ks, err := keys.CreateKeyStore(e.keyDir, e.fs)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	return ks, nil
}

func newKeyInitCmd(e *env) *cobra.Command {
	var name, seedHex string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a signing key and print its public key",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if name == "" {
				return usagef("missing --name")
			}
			if err := keys.CheckKeyName(name); err != nil {
				return usagef("invalid --name: %v", err)
			}
			var seed []byte
			var err error
			if seedHex != "" {
				if seed, err = keys.ParseSeedHex(seedHex); err != nil {
					return usagef("invalid --seed-hex: %v", err)
				}
			} else if seed, err = keys.GenerateSeed(e.rand); err != nil {
				return err
			}

			ks, err := e.keyStore()
			if err != nil {
				return err
			}
			pub, path, err := ks.Initialize(name, seed, force)
			if err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			fmt.Fprintf(e.out, "Created signing key %q\n", name)
			fmt.Fprintf(e.out, "Stored at: %s\n", path)
			fmt.Fprintf(e.out, "%s=%s\n", config.EnvPublicKey, pub)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name (file under the key directory)")
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible keys)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing key file")
	return cmd
}

func newKeyListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored signing keys",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ks, err := e.keyStore()
			if err != nil {
				return err
			}
			entries, err := ks.List()
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(e.out, "(no keys)")
				return nil
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFINGERPRINT\tPUBLIC KEY")
			for _, entry := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.Fingerprint, entry.PublicKey)
			}
			return tw.Flush()
		},
	}
}

func newKeyExportCmd(e *env) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the base64 public key of a stored key",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if name == "" {
				return usagef("missing --name")
			}
			ks, err := e.keyStore()
			if err != nil {
				return err
			}
			pub, err := ks.Export(name)
			if err != nil {
				return fmt.Errorf("export key: %w", err)
			}
			fmt.Fprintln(e.out, pub)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Key name")
	return cmd
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) != 0 {
		return usagef("unexpected arguments: %v", args)
	}
	return nil
}
