package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/flm/internal/storage/sqlite"
)

var liftUpCmd = &cobra.Command{
	Use:   "lift-up",
	Short: "Create the database file, schema, and bootstrap rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		path := filepath.Join(cfg.WorkingDirectory, cfg.FilterListType+".db")

		cm, err := sqlite.NewConnectionManager(path)
		if err != nil {
			return err
		}
		defer func() { _ = cm.Close() }()

		if err := cm.LiftUpDatabase(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("lifted up %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(liftUpCmd)
}
