package main

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/flm/internal/flmhttp"
	"github.com/steveyegge/flm/internal/index"
	"github.com/steveyegge/flm/internal/storage/sqlite"
	"github.com/steveyegge/flm/internal/storage/sqlop"
)

var pullMetadataCmd = &cobra.Command{
	Use:   "pull-metadata",
	Short: "Fetch and reconcile the upstream filter registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		client := flmhttp.NewDefaultClient(time.Duration(cfg.RequestTimeoutMS) * time.Millisecond)
		processor := index.NewIndexesProcessor(client)

		idx, err := processor.SyncMetadata(cmd.Context(), cfg.MetadataURL, cfg.MetadataLocalesURL, cfg.Locale)
		if err != nil {
			return err
		}

		path := filepath.Join(cfg.WorkingDirectory, cfg.FilterListType+".db")
		cm, err := sqlite.NewConnectionManager(path)
		if err != nil {
			return err
		}
		defer func() { _ = cm.Close() }()
		if cfg.AutoLiftUpDatabase {
			if err := cm.LiftUpDatabase(cmd.Context()); err != nil {
				return err
			}
		}

		var plan index.Plan
		err = cm.Execute(cmd.Context(), func(tx *sql.Tx) error {
			persisted, lerr := sqlop.ListFilters(cmd.Context(), tx)
			if lerr != nil {
				return lerr
			}
			plan = index.Reconcile(idx, persisted)
			return index.Apply(cmd.Context(), tx, plan)
		})
		if err != nil {
			return err
		}

		fmt.Printf("reconciled %d overwrites, %d demotions, %d deletions, %d new filters\n",
			len(plan.Overwrites), len(plan.Demotions), len(plan.Deletions), len(plan.NewFilters))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullMetadataCmd)
}
