package main

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/flm/internal/compiler"
	"github.com/steveyegge/flm/internal/flmhttp"
	"github.com/steveyegge/flm/internal/idgen"
	"github.com/steveyegge/flm/internal/metadata"
	"github.com/steveyegge/flm/internal/storage/sqlite"
	"github.com/steveyegge/flm/internal/storage/sqlop"
	"github.com/steveyegge/flm/internal/types"
)

var installTitle string

var installCmd = &cobra.Command{
	Use:   "install <download-url>",
	Short: "Mint a new custom filter from a download URL and compile it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		downloadURL := args[0]
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
		provider := compiler.HTTPProvider{Ctx: cmd.Context(), Client: client}
		comp := compiler.New(provider, cfg.CompilerConditionalConstants)
		out, err := comp.Compile(downloadURL)
		if err != nil {
			return err
		}

		title := installTitle
		if title == "" {
			title = out.Metadata[metadata.PropTitle]
		}

		var newID types.FilterId
		err = cm.Execute(cmd.Context(), func(tx *sql.Tx) error {
			meta, merr := sqlop.GetMetadata(cmd.Context(), tx)
			if merr != nil {
				return merr
			}
			alloc := idgen.New(types.FilterId(meta.LastCustomID))
			var aerr error
			newID, aerr = alloc.Allocate()
			if aerr != nil {
				return aerr
			}

			f := types.Filter{
				FilterID:    newID,
				GroupID:     types.CustomFiltersGroupID,
				Title:       title,
				DownloadURL: downloadURL,
				IsEnabled:   true,
				IsCustom:    true,
			}
			if err := sqlop.InsertFilter(cmd.Context(), tx, f); err != nil {
				return err
			}
			if err := sqlop.UpsertRulesList(cmd.Context(), tx, types.RulesList{
				FilterID: newID, Text: out.Body, RulesCount: out.RulesCount, HasDirectives: out.HasDirectives,
			}); err != nil {
				return err
			}
			if err := sqlop.ReplaceFilterIncludes(cmd.Context(), tx, newID, out.Includes); err != nil {
				return err
			}
			return sqlop.SetLastCustomID(cmd.Context(), tx, int32(alloc.Last()))
		})
		if err != nil {
			return err
		}

		fmt.Printf("installed custom filter %d (%d rules)\n", newID, out.RulesCount)
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installTitle, "title", "", "override the filter's detected title")
	rootCmd.AddCommand(installCmd)
}
