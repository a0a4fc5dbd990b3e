package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"phoenixstudio.dev/licensing/manager"
	"phoenixstudio.dev/licensing/model"
)

func newStatusCmd(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the license state the application would see",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			m := manager.New(
				manager.WithConfig(cfg),
				manager.WithFs(e.fs),
				manager.WithClock(e.now),
				manager.WithLogger(e.logger(cfg)),
			)
			m.Initialize()
			st := m.Status()
			if format == outputText {
				writeStatusText(e.out, st)
				return nil
			}
			return writeStructured(e.out, format, st)
		},
	}
	cmd.Flags().StringVar(&output, "output", string(outputText), "Output format: text, json or yaml")
	return cmd
}

func writeStatusText(w io.Writer, st model.Status) {
	fmt.Fprintf(w, "State:    %s\n", st.Label)
	if st.Path != "" {
		fmt.Fprintf(w, "Path:     %s\n", st.Path)
	}
	if st.Subject == "" {
		return
	}
	fmt.Fprintf(w, "Subject:  %s\n", st.Subject)
	fmt.Fprintf(w, "Features: %s\n", strings.Join(st.Features, ", "))
	fmt.Fprintf(w, "Issued:   %s\n", st.IssuedAt)
	fmt.Fprintf(w, "Expires:  %s\n", expiryText(st.ExpiresAt))
	if st.LicenseID != "" {
		fmt.Fprintf(w, "ID:       %s\n", st.LicenseID)
	}
}
