package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-cog-metrics/internal/config"
	"github.com/pable/go-cog-metrics/internal/importer"
	"github.com/pable/go-cog-metrics/internal/logging"
	"github.com/pable/go-cog-metrics/internal/storage"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *importer.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "cogmetrics",
	Short: "Basketball cognitive metrics tool",
	Long:  "Import tagged basketball game files and compute team and player cognitive scores.",

	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Metrics are flushed even when the command fails.
func Execute() {
	err := rootCmd.Execute()
	if ferr := flushMetrics(); ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default from config, ~/.cogmetrics/metrics.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (falls back to $COGMETRICS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// setup layers config, flags, logging and metrics before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	cfg = c
	dbPath = c.DBPath

	log = logging.New(c.LogLevel, c.LogFormat)
	registry = prometheus.NewRegistry()
	metrics = importer.NewMetrics(registry)
	log.WithFields(logrus.Fields{"db": dbPath, "command": cmd.Name()}).Debug("configured")
	return nil
}

func flushMetrics() error {
	if cfg == nil || cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	log.WithField("file", cfg.MetricsFile).Debug("metrics written")
	return nil
}

// openStore opens the configured database, creating its directory if needed.
func openStore() (*storage.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// newImporter builds an importer from the loaded config.
func newImporter(db *storage.DB, notify func(importer.Notification)) *importer.Importer {
	return importer.New(db, importer.Options{
		Schema:  cfg.Schema(),
		Aliases: cfg.Aliases(),
		Markers: cfg.Markers(),
		Logger:  log,
		Metrics: metrics,
		Notify:  notify,
	})
}
