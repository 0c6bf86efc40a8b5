// Command flm is a thin cobra wrapper over the core library: it wires
// configuration, storage, and the scheduler together for scripted and
// interactive use, the same way cmd/bd wires the source project's
// internal packages without itself carrying domain logic.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/flm/internal/config"
)

var (
	configPath string
	jsonOutput bool

	rootCtx  context.Context
	stopCtx  context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "flm",
	Short: "flm - filter list manager core",
	Long:  "Manage AdGuard-style filter list subscriptions: pull the registry, schedule updates, and compile rule sets.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, stopCtx = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		cmd.SetContext(rootCtx)
		return config.Initialize(configPath)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopCtx != nil {
			stopCtx()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to flm.toml (defaults to ./flm.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "accepted but not read: every subcommand prints plain text")
}

func loadConfig() config.Configuration {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flm: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
