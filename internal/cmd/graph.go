package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/metrics"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Draw the traceability matrix as a Mermaid diagram",
	Long: `Print a Mermaid flowchart of the traceability matrix. Requirements point at the
components and interfaces they declare; tests point at the requirements they
verify with dotted edges.

Node shapes:
  [REQ]       requirement
  {{COMP}}    component
  ([IF])      interface
  (TEST)      test case
  [/N tests/] collapsed tests of one kind

Diagrams with more than --max-nodes nodes collapse each requirement's tests
into one node per kind, unless --no-collapse is given.

With --outcomes, print a pie chart of one release's execution outcomes instead.`,
	Example: `  trx graph
  trx graph --requirement REQ-1 --requirement REQ-2 --direction TD
  trx graph --outcomes release_3 > outcomes.mmd`,
	RunE: runGraph,
}

var (
	graphRequirements []string
	graphDirection    string
	graphMaxNodes     int
	graphNoCollapse   bool
	graphTitle        string
	graphOutcomes     string
)

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringSliceVar(&graphRequirements, "requirement", nil, "Draw only these requirements (repeatable)")
	graphCmd.Flags().StringVar(&graphDirection, "direction", "LR", "Layout direction: LR or TD")
	graphCmd.Flags().IntVar(&graphMaxNodes, "max-nodes", 40, "Collapse tests when the diagram has more nodes")
	graphCmd.Flags().BoolVar(&graphNoCollapse, "no-collapse", false, "Never collapse tests")
	graphCmd.Flags().StringVar(&graphTitle, "title", "", "Diagram title")
	graphCmd.Flags().StringVar(&graphOutcomes, "outcomes", "", "Pie chart of this release's execution outcomes")
}

func runGraph(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	snap, err := s.loadSnapshot()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if graphOutcomes != "" {
		doc, ok := snap.Executions[graphOutcomes]
		if !ok {
			return fmt.Errorf("release %q not found", graphOutcomes)
		}
		var total metrics.OutcomeCounts
		for _, c := range metrics.PassRates(doc) {
			total.Passed += c.Passed
			total.Failed += c.Failed
			total.Skipped += c.Skipped
			total.Error += c.Error
			total.Executing += c.Executing
			total.Unclassified += c.Unclassified
		}
		title := graphTitle
		if title == "" {
			title = graphOutcomes
		}
		fmt.Fprint(out, graph.PieChart(title, map[string]int{
			"passed":       total.Passed,
			"failed":       total.Failed,
			"skipped":      total.Skipped,
			"error":        total.Error,
			"executing":    total.Executing,
			"unclassified": total.Unclassified,
		}))
		return nil
	}

	m := graph.Build(snap.Requirements, snap.TestCases)
	diagram, err := graph.Mermaid(m, graphRequirements, &graph.MermaidOptions{
		MaxNodes:  graphMaxNodes,
		Direction: graphDirection,
		Collapse:  !graphNoCollapse,
		Title:     graphTitle,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, diagram)
	return nil
}
