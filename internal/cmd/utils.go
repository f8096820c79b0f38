package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/config"
	"github.com/sweqa/trx/internal/logging"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/output"
	"github.com/sweqa/trx/internal/report"
	"github.com/sweqa/trx/internal/snapshot"
)

// session is the resolved configuration of one command invocation.
type session struct {
	cfg    *config.Config
	root   string // project root; relative config paths resolve against it
	logger *slog.Logger
}

// loadSession reads the configuration named by --config, or the one found by
// walking up from the working directory, and builds the logger.
func loadSession(cmd *cobra.Command) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	s := &session{root: cwd}
	switch {
	case configPath != "":
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		s.root = filepath.Dir(abs)
		if filepath.Base(s.root) == config.ConfigDirName {
			s.root = filepath.Dir(s.root)
		}
		if s.cfg, err = config.LoadFromPath(abs); err != nil {
			return nil, err
		}
	default:
		dir, err := config.FindConfigDir(cwd)
		if err != nil {
			s.cfg = config.DefaultConfig()
			break
		}
		s.root = filepath.Dir(dir)
		if s.cfg, err = config.LoadFromPath(filepath.Join(dir, config.ConfigFileName)); err != nil {
			return nil, err
		}
	}

	level := s.cfg.Log.Level
	if verbose {
		level = "debug"
	}
	s.logger, err = logging.New(logging.Options{
		Level:  level,
		Format: s.cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// resolve makes a config path absolute against the project root.
func (s *session) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

// dataPath returns the snapshot directory. --data is relative to the
// working directory; data.dir is relative to the project root.
func (s *session) dataPath() string {
	if dataDir != "" {
		if abs, err := filepath.Abs(dataDir); err == nil {
			return abs
		}
		return dataDir
	}
	return s.resolve(s.cfg.Data.Dir)
}

func (s *session) storePath() string {
	return s.resolve(s.cfg.Store.Path)
}

// loadSnapshot reads the snapshot directory.
func (s *session) loadSnapshot() (*model.Snapshot, error) {
	dir := s.dataPath()
	fs, err := snapshot.OpenDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'trx init' to create a data skeleton)", err)
	}
	s.logger.Debug("loading snapshot", "dir", dir)
	return snapshot.NewLoader(fs, s.cfg.Data, s.logger).Load()
}

func (s *session) assembler() *report.Assembler {
	a := report.NewAssembler(s.cfg.Report.Workers, s.cfg.Automation.Markers, s.logger)
	a.TimestampLayout = s.cfg.Report.TimestampLayout
	return a
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildReport loads the snapshot and assembles the full report.
func (s *session) buildReport(ctx context.Context) (*report.Report, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	return s.assembler().Assemble(ctx, snap)
}

// format returns --format, or report.format when the flag is unset.
func (s *session) format() (output.Format, error) {
	f := outputFormat
	if f == "" {
		f = s.cfg.Report.Format
	}
	return output.ParseFormat(f)
}

// sectionFormat is format restricted to json and yaml. An html default from
// the config falls back to json; an explicit --format html is an error.
func (s *session) sectionFormat() (output.Format, error) {
	f, err := s.format()
	if err != nil {
		return "", err
	}
	if f.IsStructured() {
		return f, nil
	}
	if outputFormat != "" {
		return "", fmt.Errorf("format %s is only supported by 'trx report'", f)
	}
	return output.FormatJSON, nil
}

// writeOutput encodes v to the command's stdout.
func writeOutput(cmd *cobra.Command, format output.Format, v interface{}) error {
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(cmd.OutOrStdout(), v)
}
