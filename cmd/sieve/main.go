package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/sieve/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sieve",
	Short: "Adaptive web content extraction",
	Long: `Sieve extracts labeled content sections from web pages. It starts with a
plain HTTP fetch and escalates through light, full and hard browser tiers
until the page yields enough content.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		initLogger(cfg.Log)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, extractCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// the extract command can write results to stdout.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
