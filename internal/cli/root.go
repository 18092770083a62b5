package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"charyscan/internal/config"
	"charyscan/internal/logging"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "charyscan",
	Short: "Discover and curate charitable posts on the chain",
	Long: "charyscan queries the configured blockchain nodes for posts with\n" +
		"charitable tags, scores them for charitable intent through an\n" +
		"external model, and manages the resulting curated list.",
	SilenceUsage: true,
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (defaults to $CHARYSCAN_CONFIG)")
}

func setup() (config.Config, *slog.Logger) {
	cfg := config.Load(cfgPath)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger
}
