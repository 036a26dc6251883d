package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockql/blockql/pkg/sqlparse"
)

// newExecCmd implements the script-runner contract: split the file on ';',
// dispatch each statement in order, print one status line per statement,
// and stop at the first failure.
func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <database> <file>",
		Short: "run a semicolon-separated script of statements against a database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbName, path := args[0], args[1]
			engine, err := newEngine()
			if err != nil {
				return err
			}
			if err := engine.UseDatabase(dbName); err != nil {
				return fmt.Errorf("blockql: opening database %s: %w", dbName, err)
			}
			defer engine.Close()

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("blockql: reading %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			for _, raw := range strings.Split(string(data), ";") {
				text := strings.TrimSpace(raw)
				if text == "" {
					continue
				}
				stmt, err := sqlparse.Parse(text)
				if err != nil {
					fmt.Fprintf(out, "ERROR: %v\n", err)
					return err
				}
				status, rows := sqlparse.Dispatch(engine, stmt)
				if status.Kind.String() == "no_error" {
					if rows != nil {
						fmt.Fprintf(out, "OK (%d rows)\n", len(rows))
					} else {
						fmt.Fprintf(out, "OK (%d affected)\n", status.Value)
					}
					continue
				}
				fmt.Fprintf(out, "%s\n", status.Kind)
				return status
			}
			return nil
		},
	}
}
