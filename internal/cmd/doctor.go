package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/snapshot"
	"github.com/sweqa/trx/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the snapshot for problems",
	Long: `Run health checks on the snapshot directory and the snapshot index.

Checks:
  - Documents: missing or malformed documents (their collections load empty)
  - References: requirement, component, and interface links that do not
    resolve, executed tests no collection declares, and execution documents
    without a release registry entry
  - Index: SQLite integrity of .trx/index.db, when it exists

Problems never stop a report from being generated; doctor lists them so the
export can be fixed. With --strict the command exits non-zero on any issue.`,
	Example: `  trx doctor
  trx doctor --strict
  trx doctor --format json`,
	RunE: runDoctor,
}

var doctorStrict bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "Exit with an error when any issue is found")
}

// doctorReport is the structured doctor output.
type doctorReport struct {
	Documents  []model.Issue `yaml:"documents" json:"documents"`
	References []model.Issue `yaml:"references" json:"references"`
	Index      []string      `yaml:"index" json:"index"`
	Total      int           `yaml:"total_issues" json:"total_issues"`

	// Undeclared lists requirements known only through test links. Each one
	// is also a reference issue, so it does not add to Total.
	Undeclared []string `yaml:"undeclared_requirements" json:"undeclared_requirements"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	snap, err := s.loadSnapshot()
	if err != nil {
		return err
	}

	res := doctorReport{
		Documents:  nonNilIssues(snap.Issues),
		References: nonNilIssues(snapshot.Validate(snap)),
		Index:      checkIndex(s.storePath()),
		Undeclared: graph.Build(snap.Requirements, snap.TestCases).Undeclared(snap.Requirements),
	}
	if res.Undeclared == nil {
		res.Undeclared = []string{}
	}
	res.Total = len(res.Documents) + len(res.References) + len(res.Index)

	if outputFormat != "" {
		format, err := s.sectionFormat()
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, format, res); err != nil {
			return err
		}
	} else {
		printDoctor(cmd.OutOrStdout(), res)
	}

	if doctorStrict && res.Total > 0 {
		return fmt.Errorf("%d issue(s) found", res.Total)
	}
	return nil
}

func printDoctor(out io.Writer, res doctorReport) {
	fmt.Fprintln(out, "# trx doctor")

	fmt.Fprintln(out, "# Checking documents...")
	printIssues(out, res.Documents, "All documents loaded", "unusable documents")

	fmt.Fprintln(out, "# Checking references...")
	printIssues(out, res.References, "All references resolve", "unresolved references")
	if len(res.Undeclared) > 0 {
		fmt.Fprintf(out, "#   ⚠ Requirements referenced only by tests: %s\n", strings.Join(res.Undeclared, ", "))
	}

	fmt.Fprintln(out, "# Checking index...")
	if len(res.Index) == 0 {
		fmt.Fprintln(out, "#   ✓ Index OK (or not built)")
	} else {
		fmt.Fprintf(out, "#   ✗ Index check failed\n")
		for _, detail := range res.Index {
			fmt.Fprintf(out, "#     - %s\n", detail)
		}
	}

	fmt.Fprintln(out, "#")
	if res.Total == 0 {
		fmt.Fprintln(out, "# Summary: All checks passed ✓")
	} else {
		fmt.Fprintf(out, "# Summary: %d issue(s) found\n", res.Total)
	}
}

func printIssues(out io.Writer, issues []model.Issue, okMsg, noun string) {
	if len(issues) == 0 {
		fmt.Fprintf(out, "#   ✓ %s\n", okMsg)
		return
	}
	fmt.Fprintf(out, "#   ⚠ Found %d %s\n", len(issues), noun)
	for _, is := range issues {
		fmt.Fprintf(out, "#     - [%s] %s: %s\n", is.Kind, is.Path, is.Message)
	}
}

// checkIndex runs SQLite's integrity check on the index at path. A missing
// index is not a problem.
func checkIndex(path string) []string {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return []string{fmt.Sprintf("open index: %v", err)}
	}
	defer st.Close()

	var result string
	if err := st.DB().QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return []string{fmt.Sprintf("integrity check error: %v", err)}
	}
	if result != "ok" {
		return []string{result}
	}
	return nil
}

func nonNilIssues(issues []model.Issue) []model.Issue {
	if issues == nil {
		return []model.Issue{}
	}
	return issues
}
