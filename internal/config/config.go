package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the trx configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the trx configuration directory
const ConfigDirName = ".trx"

// Config holds all trx configuration
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Automation AutomationConfig `yaml:"automation"`
	Report     ReportConfig     `yaml:"report"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
}

// DataConfig describes where the snapshot documents live
type DataConfig struct {
	Dir          string `yaml:"dir"`
	Requirements string `yaml:"requirements"`
	TestCases    string `yaml:"test_cases"`
	Executions   string `yaml:"executions"`
	Releases     string `yaml:"releases"`
	// ReleasePattern is a doublestar glob matched against execution file names
	ReleasePattern string `yaml:"release_pattern"`
	TestRunsFile   string `yaml:"test_runs_file"`
}

// AutomationConfig holds configuration for automation classification
type AutomationConfig struct {
	Markers []string `yaml:"markers"`
}

// ReportConfig holds configuration for report assembly and output
type ReportConfig struct {
	Format          string `yaml:"format"`
	Workers         int    `yaml:"workers"`
	TimestampLayout string `yaml:"timestamp_layout"`
}

// StoreConfig holds configuration for the sqlite snapshot index
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds configuration for logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .trx/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .trx directory by walking up from startDir.
// Returns the path to the .trx directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .trx directory if it doesn't exist.
// Returns the path to the .trx directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if !contains(ValidFormats, cfg.Report.Format) {
		return fmt.Errorf("%w: report.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Report.Format)
	}

	if cfg.Report.Workers <= 0 {
		return fmt.Errorf("%w: report.workers must be positive, got %d",
			ErrInvalidConfig, cfg.Report.Workers)
	}

	if !contains(ValidLogLevels, cfg.Log.Level) {
		return fmt.Errorf("%w: log.level must be one of %v, got %q",
			ErrInvalidConfig, ValidLogLevels, cfg.Log.Level)
	}

	if !contains(ValidLogFormats, cfg.Log.Format) {
		return fmt.Errorf("%w: log.format must be one of %v, got %q",
			ErrInvalidConfig, ValidLogFormats, cfg.Log.Format)
	}

	if err := validatePattern(cfg.Data.ReleasePattern); err != nil {
		return fmt.Errorf("%w: data.release_pattern: %v", ErrInvalidConfig, err)
	}

	for _, m := range cfg.Automation.Markers {
		if m == "" {
			return fmt.Errorf("%w: automation.markers must not contain empty values", ErrInvalidConfig)
		}
	}

	return nil
}

// SaveDefault writes the default configuration to .trx/config.yaml in workDir.
// Creates the .trx directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file %s: %w", configPath, os.ErrExist)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# trx configuration\n# Paths under data are relative to data.dir\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
