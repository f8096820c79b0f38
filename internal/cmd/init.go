package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/config"
	"github.com/sweqa/trx/internal/snapshot"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .trx/config.yaml and a data skeleton",
	Long: `Create .trx/config.yaml with the default configuration and a snapshot
directory skeleton (data/ by default) holding empty documents in the expected
layout:

  data/requirement_data/    requirements, components, interfaces, unit specs
  data/test_case_data/      one document per test kind
  data/test_execution_data/ one release_*.json per release
  data/releases/            release registry

Existing files are never overwritten.`,
	Example: `  trx init
  trx init --data exports/2024-06`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	out := cmd.OutOrStdout()

	configFile, err := config.SaveDefault(cwd)
	switch {
	case err == nil:
		rel, _ := filepath.Rel(cwd, configFile)
		fmt.Fprintf(out, "Created %s\n", rel)
	case errors.Is(err, os.ErrExist):
		fmt.Fprintf(out, "Config already present in %s\n", config.ConfigDirName)
	default:
		return err
	}

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	dir := s.dataPath()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	created, err := snapshot.Scaffold(osfs.New(dir), s.cfg.Data)
	if err != nil {
		return err
	}

	rel, _ := filepath.Rel(cwd, dir)
	if len(created) == 0 {
		fmt.Fprintf(out, "Data skeleton already present at %s\n", rel)
		return nil
	}
	for _, p := range created {
		fmt.Fprintf(out, "Created %s\n", filepath.Join(rel, filepath.FromSlash(p)))
	}
	return nil
}
