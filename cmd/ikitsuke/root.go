package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ikitsuke/internal/config"
	"github.com/HendryAvila/ikitsuke/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ikitsuke",
	Short: "Shared memory notes pinned to real places",
	Long: `ikitsuke keeps append-only notes anchored to coordinates.
Notes can be read and written only from within the gate radius
(gate_radius_km), unless the recommendation assistant picked them for you.

Settings come from ikitsuke.yaml (in . or ~/.ikitsuke), a .env file,
IKITSUKE_* environment variables and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		l, err := logging.New(os.Stderr, loaded.LogLevel, verbose)
		if err != nil {
			return err
		}
		slog.SetDefault(l)
		cfg, logger = loaded, l
		logger.Debug("config loaded", "data_dir", cfg.DataDir, "storage", cfg.Storage.Backend)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ikitsuke.yaml or ~/.ikitsuke/ikitsuke.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the sqlite and file backends")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: sqlite, file, memory, redis or mongo")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
}
