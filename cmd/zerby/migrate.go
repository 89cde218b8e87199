package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sebastianleon1-sys/Zerby2/internal/database"
)

// resetConfirmation must be typed verbatim before reset-db drops anything.
const resetConfirmation = "RESET"

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, loggerService, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			return database.Migrate(commandContext(cmd), log, cfg)
		},
	}
}

func resetDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every table and recreate the schema (all data is lost)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, loggerService, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			ok, err := confirmReset(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Database.Name)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted, nothing was changed.")
				return nil
			}

			if err := database.Reset(commandContext(cmd), log, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset.")
			return nil
		},
	}
}

// confirmReset prompts on out and reads one line from in.
func confirmReset(in io.Reader, out io.Writer, dbName string) (bool, error) {
	fmt.Fprintf(out, "This drops every table in %q. Type %s to continue: ", dbName, resetConfirmation)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == resetConfirmation, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
