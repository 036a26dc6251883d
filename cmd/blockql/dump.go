package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDumpCmd implements the DUMP DATABASE contract: print one line per
// in-use block.
func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <database>",
		Short: "print every in-use block's header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			if err := engine.UseDatabase(args[0]); err != nil {
				return fmt.Errorf("blockql: opening database %s: %w", args[0], err)
			}
			defer engine.Close()

			db, err := engine.Current()
			if err != nil {
				return err
			}
			lines, err := db.Dump()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			return nil
		},
	}
}
