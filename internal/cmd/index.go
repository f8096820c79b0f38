package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the snapshot into the SQLite index",
	Long: `Load the snapshot into .trx/index.db (store.path) so it can be explored with
'trx sql'. The index is replaced on every run and keeps no history.

Tables:
  requirements  id, components, interfaces (JSON arrays)
  tests         kind, id, component_id, linked_to
  links         requirement_id, relation, target_id (the traceability matrix)
  executions    release_id, bucket, seq, test_id, status, executed_by, defects
  releases      id, name, date, components, requirements
  test_runs     key, resolution_date, sw_bundle, leading_team, test_activity
  run_results   run_key, test_id, status`,
	Example: `  trx index
  trx index --stats`,
	RunE: runIndex,
}

var indexStatsOnly bool

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexStatsOnly, "stats", false, "Show index statistics without re-importing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	format, err := s.sectionFormat()
	if err != nil {
		return err
	}

	st, err := store.Open(s.storePath())
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	if indexStatsOnly {
		stats, err := st.Stats()
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, stats)
	}

	snap, err := s.loadSnapshot()
	if err != nil {
		return err
	}

	stats, err := st.Import(commandContext(cmd), snap)
	if err != nil {
		return err
	}
	s.logger.Info("snapshot indexed", "path", st.Path(), "requirements", stats.Requirements, "links", stats.Links)
	return writeOutput(cmd, format, stats)
}
