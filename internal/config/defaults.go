package config

import (
	"errors"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Data: DefaultDataConfig(),
		Automation: AutomationConfig{
			Markers: []string{"automation"},
		},
		Report: ReportConfig{
			Format:          "json",
			Workers:         4,
			TimestampLayout: "2006-01-02 15:04:05",
		},
		Store: StoreConfig{
			Path: path.Join(ConfigDirName, "index.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDataConfig returns the directory layout of a data snapshot.
func DefaultDataConfig() DataConfig {
	return DataConfig{
		Dir:            "data",
		Requirements:   "requirement_data",
		TestCases:      "test_case_data",
		Executions:     "test_execution_data",
		Releases:       "releases",
		ReleasePattern: "release_*.json",
		TestRunsFile:   "test_runs.json",
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Data = mergeDataConfig(loaded.Data, defaults.Data)

	// Use loaded markers if provided, otherwise defaults
	if len(loaded.Automation.Markers) > 0 {
		result.Automation.Markers = loaded.Automation.Markers
	} else {
		result.Automation.Markers = defaults.Automation.Markers
	}

	result.Report = mergeReportConfig(loaded.Report, defaults.Report)
	result.Store.Path = pick(loaded.Store.Path, defaults.Store.Path)
	result.Log = LogConfig{
		Level:  pick(loaded.Log.Level, defaults.Log.Level),
		Format: pick(loaded.Log.Format, defaults.Log.Format),
	}

	return result
}

func mergeDataConfig(loaded, defaults DataConfig) DataConfig {
	return DataConfig{
		Dir:            pick(loaded.Dir, defaults.Dir),
		Requirements:   pick(loaded.Requirements, defaults.Requirements),
		TestCases:      pick(loaded.TestCases, defaults.TestCases),
		Executions:     pick(loaded.Executions, defaults.Executions),
		Releases:       pick(loaded.Releases, defaults.Releases),
		ReleasePattern: pick(loaded.ReleasePattern, defaults.ReleasePattern),
		TestRunsFile:   pick(loaded.TestRunsFile, defaults.TestRunsFile),
	}
}

func mergeReportConfig(loaded, defaults ReportConfig) ReportConfig {
	result := ReportConfig{
		Format:          pick(loaded.Format, defaults.Format),
		TimestampLayout: pick(loaded.TimestampLayout, defaults.TimestampLayout),
	}

	// Workers: use loaded if non-zero
	if loaded.Workers != 0 {
		result.Workers = loaded.Workers
	} else {
		result.Workers = defaults.Workers
	}

	return result
}

// pick returns loaded unless it is empty
func pick(loaded, def string) string {
	if loaded != "" {
		return loaded
	}
	return def
}

// ValidFormats lists the valid values for report.format
var ValidFormats = []string{"json", "yaml", "html"}

// ValidLogLevels lists the valid values for log.level
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the valid values for log.format
var ValidLogFormats = []string{"text", "json"}

func contains(values []string, v string) bool {
	for _, valid := range values {
		if v == valid {
			return true
		}
	}
	return false
}

func validatePattern(p string) error {
	if !doublestar.ValidatePattern(p) {
		return errors.New("malformed glob " + p)
	}
	return nil
}
