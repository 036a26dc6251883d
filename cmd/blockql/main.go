// Command blockql is a thin driver over the engine: it implements only the
// script-runner and dump/version contracts. The interactive REPL, a table
// formatter with column-width negotiation, and the folder/timer/about-team
// views are explicitly out of scope and are not provided here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockql/blockql/pkg/database"
	"github.com/blockql/blockql/pkg/engineconfig"
)

var (
	storageDir string
	configPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blockql",
		Short:         "blockql is a disk-backed relational engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "directory database files live in (overrides config)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional TOML configuration file")

	root.AddCommand(newExecCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newEngine() (*database.Engine, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("blockql: loading config: %w", err)
	}
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	return database.NewEngine(cfg), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the engine version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), engineconfig.Version)
			return nil
		},
	}
}
