package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/report"
)

// Section commands print one part of the report. They share the global
// --data and --format flags and accept json or yaml output.

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the traceability matrix",
	Long: `Show each requirement with the components and interfaces it declares and the
tests of every kind that link to it.

Requirements named only by a test's linked_to still appear, with empty
component and interface lists.`,
	Example: `  trx matrix
  trx matrix --requirement REQ-12 --format yaml`,
	RunE: runMatrix,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show requirement and component coverage",
	Long: `Show the share of requirements linked to at least one requirement-based test
and the share of components exercised by at least one component test, plus
per-kind test counts.

With --gaps, also list every uncovered requirement and component with its
priority tier (critical, high, medium).`,
	Example: `  trx coverage
  trx coverage --gaps`,
	RunE: runCoverage,
}

var passrateCmd = &cobra.Command{
	Use:   "passrate",
	Short: "Show pass rates per release and test-type bucket",
	Long: `Show execution outcome counts (passed, failed, skipped, error, executing)
and the pass rate of every test-type bucket in every release.

Statuses outside the known set are counted as unclassified and lower the
pass rate.`,
	Example: `  trx passrate
  trx passrate --release release_3`,
	RunE: runPassrate,
}

var defectsCmd = &cobra.Command{
	Use:   "defects",
	Short: "Show defects attributed to components and requirements",
	Long: `Show, per release, the defects reported by failed executions and the
components and requirements each failed test traces back to.`,
	Example: `  trx defects
  trx defects --release release_3 --format yaml`,
	RunE: runDefects,
}

var automationCmd = &cobra.Command{
	Use:   "automation",
	Short: "Show automated versus manual execution ratios",
	Long: `Classify each test's latest execution as automated or manual by its
executor and report totals, per-bucket rates, and executor counts.

Executors matching one of automation.markers (case-insensitive substring)
count as automated.`,
	Example: `  trx automation`,
	RunE:    runAutomation,
}

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Show release summaries",
	Long: `Show each release's scope, the teams that executed its tests, its execution
totals, and its overall pass rate, with the release order (oldest first).`,
	Example: `  trx releases
  trx releases --release release_2`,
	RunE: runReleases,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest result per test from the test-run export",
	Long: `Read the test-execution export (data.test_runs_file) and show, for every
test, the result of the most recently resolved execution. Also shows verdict
counts per leading team, a per-execution table, and requirement verification
rates.

Executions whose resolution date cannot be parsed are excluded and listed
under excluded_runs.`,
	Example: `  trx latest
  trx latest --test TC-101`,
	RunE: runLatest,
}

var (
	matrixRequirement string
	coverageGaps      bool
	passrateRelease   string
	defectsRelease    string
	releasesRelease   string
	latestTest        string
)

func init() {
	rootCmd.AddCommand(matrixCmd, coverageCmd, passrateCmd, defectsCmd, automationCmd, releasesCmd, latestCmd)

	matrixCmd.Flags().StringVar(&matrixRequirement, "requirement", "", "Show only this requirement")
	coverageCmd.Flags().BoolVar(&coverageGaps, "gaps", false, "Include uncovered requirements and components")
	passrateCmd.Flags().StringVar(&passrateRelease, "release", "", "Show only this release")
	defectsCmd.Flags().StringVar(&defectsRelease, "release", "", "Show only this release")
	releasesCmd.Flags().StringVar(&releasesRelease, "release", "", "Show only this release")
	latestCmd.Flags().StringVar(&latestTest, "test", "", "Show only this test's latest result")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	format, err := s.sectionFormat()
	if err != nil {
		return err
	}

	snap, err := s.loadSnapshot()
	if err != nil {
		return err
	}
	m := s.assembler().Matrix(snap)

	if matrixRequirement == "" {
		return writeOutput(cmd, format, m)
	}
	entry := m.Requirement(matrixRequirement)
	if entry == nil {
		return fmt.Errorf("requirement not found: %s", matrixRequirement)
	}
	return writeOutput(cmd, format, map[string]interface{}{matrixRequirement: entry})
}

func runCoverage(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		if !coverageGaps {
			return r.Coverage, nil
		}
		return map[string]interface{}{
			"coverage":      r.Coverage,
			"coverage_gaps": r.CoverageGaps,
		}, nil
	})
}

func runPassrate(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		return filterRelease(r.PassRates, passrateRelease)
	})
}

func runDefects(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		return filterRelease(r.DefectMetrics, defectsRelease)
	})
}

func runAutomation(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		return r.AutomationStatus, nil
	})
}

func runReleases(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		if releasesRelease != "" {
			return filterRelease(r.ReleaseInfo, releasesRelease)
		}
		section, _ := r.Section(report.SectionReleases)
		return section, nil
	})
}

func runLatest(cmd *cobra.Command, args []string) error {
	return runSection(cmd, func(r *report.Report) (interface{}, error) {
		if r.TestRuns == nil {
			return nil, fmt.Errorf("no test runs loaded (expected an export at data.test_runs_file)")
		}
		if latestTest == "" {
			return r.TestRuns, nil
		}
		res, ok := r.TestRuns.Latest[latestTest]
		if !ok {
			return nil, fmt.Errorf("no test-run result for test: %s", latestTest)
		}
		return map[string]interface{}{latestTest: res}, nil
	})
}

// runSection assembles the report and prints the value pick selects from it.
func runSection(cmd *cobra.Command, pick func(*report.Report) (interface{}, error)) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	format, err := s.sectionFormat()
	if err != nil {
		return err
	}

	r, err := s.buildReport(commandContext(cmd))
	if err != nil {
		return err
	}

	v, err := pick(r)
	if err != nil {
		return err
	}
	return writeOutput(cmd, format, v)
}

// filterRelease returns m, or only m[release] when release is set.
func filterRelease[V any](m map[string]V, release string) (interface{}, error) {
	if release == "" {
		return m, nil
	}
	v, ok := m[release]
	if !ok {
		return nil, fmt.Errorf("release not found: %s", release)
	}
	return map[string]V{release: v}, nil
}
