package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/store"
)

// sqlCmd represents the sql command
var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a read-only SQL query against the snapshot index",
	Long: `Run a SELECT, WITH, or EXPLAIN query against .trx/index.db. Build or refresh
the index with 'trx index' first.

Output is an ASCII table unless --format is given.`,
	Example: `  trx sql "SELECT relation, COUNT(*) FROM links GROUP BY relation"
  trx sql "SELECT test_id, status FROM executions WHERE release_id = 'release_3'"
  trx sql --format json "SELECT * FROM releases ORDER BY date"`,
	Args: cobra.ExactArgs(1),
	RunE: runSQL,
}

func init() {
	rootCmd.AddCommand(sqlCmd)
}

func runSQL(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	path := s.storePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("index not found at %s: run 'trx index' first", path)
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	result, err := st.Query(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if outputFormat == "" {
		return outputTable(cmd, result)
	}
	format, err := s.sectionFormat()
	if err != nil {
		return err
	}
	return writeOutput(cmd, format, result)
}

func outputTable(cmd *cobra.Command, result *store.QueryResult) error {
	out := cmd.OutOrStdout()

	if len(result.Rows) == 0 {
		fmt.Fprintln(out, "Empty set")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))

	seps := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		seps[i] = strings.Repeat("-", len(col))
	}
	fmt.Fprintln(w, strings.Join(seps, "\t"))

	for _, row := range result.Rows {
		vals := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			if row[col] == nil {
				vals[i] = "NULL"
			} else {
				vals[i] = fmt.Sprintf("%v", row[col])
			}
		}
		fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d row(s)\n", result.Count)
	return nil
}
