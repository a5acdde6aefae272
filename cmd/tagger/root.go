package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"text-tagger/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	output  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tagger",
	Short: "Self-improving document tagger",
	Long: `tagger extracts keyword tags from a folder of documents, scores each tag
against the text it came from, and learns per-tag weights that shape the
next round of tagging.

Commands:
  run        One full cycle: generate, feedback, learn
  generate   Write tags.json using the current weights
  feedback   Score tags.json and write feedback.json
  learn      Derive tag_weights.json from feedback.json
  schedule   Run cycles on the configured schedule
  stats      Show run history and learned weights`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./config.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table)")
}

func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	switch output {
	case "json", "table":
	default:
		return fmt.Errorf("invalid output format %q: must be json or table", output)
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c

	level := c.LogLevel
	if verbose {
		level = "debug"
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), level))
	slog.Debug("config loaded", "documents_dir", cfg.DocumentsDir, "output_dir", cfg.OutputDir, "schedule", cfg.Schedule)
	return nil
}

// newLogger returns a JSON logger at the named level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}
