package main

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"phoenixstudio.dev/licensing/canonical"
	"phoenixstudio.dev/licensing/cidutil"
	"phoenixstudio.dev/licensing/license"
)

func newCanonicalizeCmd(e *env) *cobra.Command {
	var payloadOnly, printID bool
	cmd := &cobra.Command{
		Use:   "canonicalize FILE",
		Short: "Print the canonical JSON form of a document",
		Long: "Print the canonical JSON form of FILE without a trailing newline. " +
			"With --payload the signature field is removed first, giving the exact bytes a license signature covers.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("canonicalize requires exactly one FILE")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := afero.ReadFile(e.fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			v, err := canonical.Decode(data)
			if err != nil {
				return err
			}
			if payloadOnly {
				obj, ok := v.(canonical.Object)
				if !ok {
					return errors.New("--payload requires a JSON object document")
				}
				obj = obj.Clone()
				delete(obj, license.FieldSignature)
				v = obj
			}
			out, err := canonical.Serialize(v)
			if err != nil {
				return err
			}
			if printID {
				id, err := cidutil.ContentID(out)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, id)
				return nil
			}
			_, err = e.out.Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&payloadOnly, "payload", false, "Drop the signature field before canonicalizing")
	cmd.Flags().BoolVar(&printID, "id", false, "Print the content identifier of the canonical bytes instead")
	return cmd
}
