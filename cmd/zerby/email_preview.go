package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
)

// emailPreviewCmd renders every template with sample data. It needs no
// environment, so templates can be checked without a database.
func emailPreviewCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "email-preview",
		Short: "Render the email templates with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})

			client, err := email.NewClient(&config.Config{}, &log)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			for _, tmpl := range email.Templates {
				body, err := client.Render(tmpl, email.PreviewData[tmpl])
				if err != nil {
					return err
				}

				path := filepath.Join(outDir, tmpl.File())
				if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "email-preview", "Directory to write the rendered HTML into")

	return cmd
}
