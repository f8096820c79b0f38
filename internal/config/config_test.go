package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// data layout
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "release_*.json", cfg.Data.ReleasePattern)
	assert.Equal(t, "requirement_data", cfg.Data.Requirements)

	assert.Equal(t, []string{"automation"}, cfg.Automation.Markers)

	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, 4, cfg.Report.Workers)
	assert.Equal(t, ".trx/index.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "yaml format",
			modify: func(c *Config) {
				c.Report.Format = "yaml"
			},
			wantErr: false,
		},
		{
			name: "invalid format",
			modify: func(c *Config) {
				c.Report.Format = "pdf"
			},
			wantErr: true,
		},
		{
			name: "format is case sensitive",
			modify: func(c *Config) {
				c.Report.Format = "JSON"
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Report.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "trace"
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *Config) {
				c.Log.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "malformed release pattern",
			modify: func(c *Config) {
				c.Data.ReleasePattern = "release_[.json"
			},
			wantErr: true,
		},
		{
			name: "empty marker",
			modify: func(c *Config) {
				c.Automation.Markers = []string{"automation", ""}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	loaded := &Config{
		Data: DataConfig{
			Dir: "snapshots/2024-06",
		},
		Automation: AutomationConfig{
			Markers: []string{"jenkins", "robot"},
		},
		Report: ReportConfig{
			Workers: 8,
		},
	}

	merged := Merge(loaded, DefaultConfig())

	assert.Equal(t, "snapshots/2024-06", merged.Data.Dir)
	assert.Equal(t, "test_execution_data", merged.Data.Executions)
	assert.Equal(t, []string{"jenkins", "robot"}, merged.Automation.Markers)
	assert.Equal(t, 8, merged.Report.Workers)
	assert.Equal(t, "json", merged.Report.Format)
	assert.Equal(t, "info", merged.Log.Level)
}

func TestFindConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	// tmpDir/project/subdir
	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	configDir := filepath.Join(projectDir, ConfigDirName)
	require.NoError(t, os.Mkdir(configDir, 0755))

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		require.NoError(t, err)
		assert.Equal(t, configDir, found)
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		require.NoError(t, err)
		assert.Equal(t, configDir, found)
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates config directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, ConfigDirName), dir)

		info, err := os.Stat(dir)
		require.NoError(t, err, "config directory not created")
		assert.True(t, info.IsDir())
	})

	t.Run("returns existing directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, ConfigDirName), dir)
	})
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
data:
  dir: /srv/trace
  release_pattern: "rel-*.json"
report:
  format: html
log:
  level: debug
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg, err := LoadFromPath(configPath)
		require.NoError(t, err)

		assert.Equal(t, "/srv/trace", cfg.Data.Dir)
		assert.Equal(t, "rel-*.json", cfg.Data.ReleasePattern)
		assert.Equal(t, "html", cfg.Report.Format)

		// defaults fill the missing values
		assert.Equal(t, 4, cfg.Report.Workers)
		assert.Equal(t, "test_case_data", cfg.Data.TestCases)
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Report.Format, cfg.Report.Format)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content"), 0644))

		_, err := LoadFromPath(configPath)
		assert.Error(t, err)
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
report:
  format: pdf
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		_, err := LoadFromPath(configPath)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Data.Dir, cfg.Data.Dir)
	})

	t.Run("loads config from .trx directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		require.NoError(t, os.MkdirAll(configDir, 0755))

		content := `
report:
  format: yaml
`
		require.NoError(t, os.WriteFile(filepath.Join(configDir, ConfigFileName), []byte(content), 0644))

		cfg, err := Load(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.Report.Format)
	})
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, ConfigDirName, ConfigFileName), configPath)

		cfg, err := LoadFromPath(configPath)
		require.NoError(t, err, "load saved config")
		assert.Equal(t, DefaultConfig().Data.ReleasePattern, cfg.Data.ReleasePattern)
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		_, err := SaveDefault(tmpDir)
		assert.ErrorIs(t, err, os.ErrExist)
	})
}
