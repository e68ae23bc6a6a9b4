// Package config defines the tool's configuration and how it is layered from
// defaults, an optional YAML file, and COGMETRICS_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. COGMETRICS_DB_PATH.
const EnvPrefix = "COGMETRICS_"

// Config contains process configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// GroupingColumn names the column that assigns rows to team or player.
	GroupingColumn string `koanf:"grouping_column"`

	// TeamAliases are grouping values that mark team-level rows. The team
	// parsed from the filename is always added at import time.
	TeamAliases []string `koanf:"team_aliases"`

	PositiveMarkers []string `koanf:"positive_markers"`
	NegativeMarkers []string `koanf:"negative_markers"`

	// MetricsFile, when set, receives Prometheus metrics in textfile format
	// after each CLI run.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config with defaults.
func New() *Config {
	m := model.DefaultMarkers()
	return &Config{
		DBPath:          filepath.Join(userHome(), ".cogmetrics", "metrics.db"),
		LogLevel:        "info",
		LogFormat:       "text",
		GroupingColumn:  loader.DefaultGroupingColumn,
		TeamAliases:     []string{"Team", "Heat", "Miami Heat"},
		PositiveMarkers: m.Positive,
		NegativeMarkers: m.Negative,
	}
}

// Markers returns the configured polarity markers.
func (c *Config) Markers() model.Markers {
	return model.Markers{Positive: c.PositiveMarkers, Negative: c.NegativeMarkers}
}

// Schema returns the loader schema for this configuration.
func (c *Config) Schema() loader.Schema {
	return loader.Schema{GroupingColumn: c.GroupingColumn}
}

// Aliases returns the configured team alias set.
func (c *Config) Aliases() loader.TeamAliases {
	return loader.NewTeamAliases(c.TeamAliases...)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GroupingColumn) == "" {
		return errors.New("grouping_column must not be empty")
	}
	if len(c.PositiveMarkers) == 0 || len(c.NegativeMarkers) == 0 {
		return errors.New("positive_markers and negative_markers must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. the YAML file at path, or at $COGMETRICS_CONFIG when path is empty
//  3. COGMETRICS_* environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// COGMETRICS_TEAM_ALIASES -> team_aliases. Lists are comma-separated.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a zero Config so configured lists replace the defaults
	// instead of being merged into them.
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	cfg.fillDefaults(New())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the keys whose environment values are comma-separated lists.
var listKeys = map[string]bool{
	"team_aliases":     true,
	"positive_markers": true,
	"negative_markers": true,
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) fillDefaults(d *Config) {
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.GroupingColumn == "" {
		c.GroupingColumn = d.GroupingColumn
	}
	if c.TeamAliases == nil {
		c.TeamAliases = d.TeamAliases
	}
	if c.PositiveMarkers == nil {
		c.PositiveMarkers = d.PositiveMarkers
	}
	if c.NegativeMarkers == nil {
		c.NegativeMarkers = d.NegativeMarkers
	}
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
