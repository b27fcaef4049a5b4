// Package cli implements the orb command line: serving objects and calling
// them through the naming service.
package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/orb/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "orb",
	Short: "orb remote object server and client",
	Long: `orb serves objects through named object adapters over gRPC and calls them
by name, telling retryable faults from fatal ones.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
	Run: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads cfgPath. A missing default config file falls back to
// built-in defaults; an explicitly named one must exist.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return cfg, err
}

// setupLogging initializes the default logger from flags and config.
func setupLogging(cfg *config.AppConfig) {
	stylelog.InitDefault(&tint.Options{
		Level:      cfg.Logging.SlogLevel(isDebug),
		TimeFormat: time.RFC3339,
	})
}

func mustLoadConfig(cmd *cobra.Command) *config.AppConfig {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)
	return cfg
}
