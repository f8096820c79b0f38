package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/output"
	"github.com/sweqa/trx/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the full traceability report",
	Long: `Load the snapshot and compute every section of the traceability report:
the matrix, coverage and coverage gaps, pass rates, defect metrics, automation
status, release summaries, and (when a test-run export is present) the latest
result per test.

Analyzers run concurrently over the loaded snapshot. Two runs over the same
snapshot produce identical output apart from generated_on.

Output Formats:
  json   Full report document (default)
  yaml   Same document as YAML
  html   Standalone page; --template replaces the built-in page`,
	Example: `  trx report
  trx report --format yaml
  trx report --format html --output report.html
  trx report --format html --template summary.tmpl --title "Sprint 14"`,
	RunE: runReport,
}

var (
	reportOutputFile string
	reportTemplate   string
	reportTitle      string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutputFile, "output", "o", "", "Write the report to a file instead of stdout")
	reportCmd.Flags().StringVar(&reportTemplate, "template", "", "html/template file for --format html")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "Page title for --format html")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	format, err := s.format()
	if err != nil {
		return err
	}
	if format != output.FormatHTML && (reportTemplate != "" || reportTitle != "") {
		return fmt.Errorf("--template and --title require --format html")
	}

	renderer, err := reportRenderer(format)
	if err != nil {
		return err
	}

	r, err := s.buildReport(commandContext(cmd))
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if reportOutputFile != "" {
		f, err := os.Create(reportOutputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := renderer.Render(w, r); err != nil {
		return err
	}

	if reportOutputFile != "" {
		s.logger.Info("report written", "path", reportOutputFile, "format", format.String())
	}
	return nil
}

func reportRenderer(format output.Format) (report.Renderer, error) {
	if format != output.FormatHTML {
		return report.RendererFor(format)
	}

	var (
		h   *report.HTMLRenderer
		err error
	)
	if reportTemplate != "" {
		h, err = report.NewHTMLRendererFromFile(reportTemplate)
	} else {
		h, err = report.NewHTMLRenderer()
	}
	if err != nil {
		return nil, err
	}
	if reportTitle != "" {
		h.Title = reportTitle
	}
	return h, nil
}
