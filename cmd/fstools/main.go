package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ning0612/fstools/internal/config"
	"github.com/Ning0612/fstools/internal/logger"
	"github.com/Ning0612/fstools/internal/progress"
	"github.com/Ning0612/fstools/internal/service"
)

var (
	// Set by the release build
	version = "dev"
	commit  = "none"

	// Global flags
	cfgFile      string
	logLevel     string
	logFormat    string
	logFile      string
	showProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "fstools",
	Short: "List, search, split and mirror files",
	Long: `fstools is a small filesystem toolkit. It lists and searches directory
trees, splits large files into numbered parts and joins them back, and
mirrors one directory into another, copying only files that are missing
or newer.

Named sync jobs can be declared in a config file and re-run on an interval
with the watch command. Every split, join and sync is recorded in a local
history database.`,
	Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./config.yaml, ~/.config/fstools/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotated file")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "print transfer progress to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cfg is loaded once by setup for every command
var cfg *config.Config

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Init(cfg.LoggerConfig()); err != nil && !errors.Is(err, logger.ErrAlreadyInitialized) {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.Get().Debug("Configuration loaded", "state_dir", cfg.StateDir, "log_file", cfg.Log.File, "jobs", len(cfg.Jobs))
	return nil
}

// loadConfig reads the config file and applies the logging flags on top
func loadConfig() (*config.Config, error) {
	c, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if logLevel != "" {
		if _, err := logger.ParseLevel(logLevel); err != nil {
			return nil, err
		}
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		if _, err := logger.ParseFormat(logFormat); err != nil {
			return nil, err
		}
		c.Log.Format = logFormat
	}
	if logFile != "" {
		c.Log.File = config.ExpandPath(logFile)
	}
	return c, nil
}

// newToolkit builds the toolkit for one command, wiring the progress flag
func newToolkit() (*service.Toolkit, error) {
	tk, err := service.NewToolkit(cfg, nil)
	if err != nil {
		return nil, err
	}
	if showProgress {
		tk.SetProgressReporter(progress.NewTerminalReporter(os.Stderr, 30))
	}
	return tk, nil
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
