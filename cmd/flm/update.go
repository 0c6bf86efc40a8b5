package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/flm/internal/flmhttp"
	"github.com/steveyegge/flm/internal/scheduler"
	"github.com/steveyegge/flm/internal/storage/sqlite"
)

var (
	updateAll              bool
	updateIgnoreExpiration bool
	updateIgnoreStatus     bool
	updateLooseTimeoutSec  int
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one Update Scheduler pass over the persisted filter set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
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

		client := flmhttp.NewDefaultClient(time.Duration(cfg.RequestTimeoutMS) * time.Millisecond)
		s, err := scheduler.New(cm, client, cfg, newLogger())
		if err != nil {
			return err
		}

		mode := scheduler.ModeEligible
		if updateAll {
			mode = scheduler.ModeAll
		}
		req := scheduler.Request{
			Mode:             mode,
			IgnoreExpiration: updateIgnoreExpiration,
			IgnoreStatus:     updateIgnoreStatus,
			LooseTimeout:     time.Duration(updateLooseTimeoutSec) * time.Second,
		}

		result, err := s.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Printf("updated %d filters, %d remaining, %d errors\n",
			len(result.UpdatedFilters), result.RemainingFiltersCount, len(result.FiltersErrors))
		for _, fe := range result.FiltersErrors {
			fmt.Printf("  filter %d: %s\n", fe.FilterID, fe.Message)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "consider every filter, not just enabled ones")
	updateCmd.Flags().BoolVar(&updateIgnoreExpiration, "ignore-expiration", false, "force a full redownload regardless of expiry")
	updateCmd.Flags().BoolVar(&updateIgnoreStatus, "ignore-status", false, "update disabled filters too")
	updateCmd.Flags().IntVar(&updateLooseTimeoutSec, "loose-timeout", 0, "stop after this many seconds (0 = no budget)")
	rootCmd.AddCommand(updateCmd)
}
