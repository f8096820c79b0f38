package metrics

import (
	"fmt"
	"strings"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
)

// Verdicts used for test-run classification.
const (
	VerdictPass      = "PASS"
	VerdictFail      = "FAIL"
	VerdictNoVerdict = "NO_VERDICT"
)

// LatestResult is the most recent status of one test across test runs.
type LatestResult struct {
	Status         string   `json:"status" yaml:"status"`
	ExecutionKey   string   `json:"test_execution" yaml:"test_execution"`
	ResolutionDate string   `json:"resolution_date" yaml:"resolution_date"`
	LeadingTeam    []string `json:"leading_team" yaml:"leading_team"`
}

// LatestResults selects, per test, the result from the run with the greatest
// resolution date. Runs whose resolution date cannot be parsed are excluded
// and reported as errors wrapping ErrTimestamp.
func LatestResults(runs []model.TestRun) (map[string]LatestResult, []error) {
	sel := NewLatestSelector[LatestResult]()
	var errs []error
	for _, run := range runs {
		at, err := ParseTimestamp(run.ResolutionDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("test run %s: %w", run.Key, err))
			continue
		}
		for testID, status := range run.TestData {
			sel.Offer(testID, at, LatestResult{
				Status:         status,
				ExecutionKey:   run.Key,
				ResolutionDate: run.ResolutionDate,
				LeadingTeam:    nonNil(run.LeadingTeam),
			})
		}
	}
	return sel.Values(), errs
}

// TeamCounts tallies latest verdicts for one leading team.
type TeamCounts struct {
	Pass      int `json:"PASS" yaml:"PASS"`
	Fail      int `json:"FAIL" yaml:"FAIL"`
	NoVerdict int `json:"NO_VERDICT" yaml:"NO_VERDICT"`
}

// teamKey joins a team list; tests without a leading team use "unassigned".
func teamKey(teams []string) string {
	if len(teams) == 0 {
		return "unassigned"
	}
	return strings.Join(teams, ", ")
}

// ClassifyByTeam counts latest verdicts per leading team. Any status other
// than PASS or FAIL counts as NO_VERDICT.
func ClassifyByTeam(latest map[string]LatestResult) map[string]TeamCounts {
	out := make(map[string]TeamCounts)
	for _, r := range latest {
		key := teamKey(r.LeadingTeam)
		c := out[key]
		switch r.Status {
		case VerdictPass:
			c.Pass++
		case VerdictFail:
			c.Fail++
		default:
			c.NoVerdict++
		}
		out[key] = c
	}
	return out
}

// RunRow summarizes one test run.
type RunRow struct {
	TestExecution string   `json:"test_execution" yaml:"test_execution"`
	SWBundle      string   `json:"sw_bundle" yaml:"sw_bundle"`
	TestActivity  []string `json:"test_activity" yaml:"test_activity"`
	LeadingTeam   []string `json:"leading_team" yaml:"leading_team"`
	NumPass       int      `json:"num_pass" yaml:"num_pass"`
	NumFail       int      `json:"num_fail" yaml:"num_fail"`
	NumNoVerdict  int      `json:"num_no_verdict" yaml:"num_no_verdict"`
	PassRate      float64  `json:"pass_rate" yaml:"pass_rate"`
}

// ExecutionTable summarizes each run in input order.
func ExecutionTable(runs []model.TestRun) []RunRow {
	rows := make([]RunRow, 0, len(runs))
	for _, run := range runs {
		row := RunRow{
			TestExecution: run.Key,
			SWBundle:      run.SWBundle,
			TestActivity:  nonNil(run.TestActivity),
			LeadingTeam:   nonNil(run.LeadingTeam),
		}
		for _, status := range run.TestData {
			switch status {
			case VerdictPass:
				row.NumPass++
			case VerdictFail:
				row.NumFail++
			default:
				row.NumNoVerdict++
			}
		}
		row.PassRate = model.Percent(row.NumPass, len(run.TestData))
		rows = append(rows, row)
	}
	return rows
}

// VerificationRates relates requirement-level tests to their latest results.
type VerificationRates struct {
	Requirements         int     `json:"requirements" yaml:"requirements"`
	VerifiedRequirements int     `json:"verified_requirements" yaml:"verified_requirements"`
	TotalTests           int     `json:"total_tests" yaml:"total_tests"`
	PassedTests          int     `json:"passed_tests" yaml:"passed_tests"`
	PassRate             float64 `json:"pass_rate" yaml:"pass_rate"`
	CoverageRate         float64 `json:"coverage_rate" yaml:"coverage_rate"`
}

// ComputeVerificationRates counts, over every matrix entry, the
// sw_requirement tests linked to it and how many of them last passed.
// A requirement is verified when it has at least one such test.
func ComputeVerificationRates(m graph.Matrix, latest map[string]LatestResult) VerificationRates {
	v := VerificationRates{Requirements: len(m)}
	for _, e := range m {
		if e.SWRequirementTests.Len() == 0 {
			continue
		}
		v.VerifiedRequirements++
		for id := range e.SWRequirementTests {
			v.TotalTests++
			if r, ok := latest[id]; ok && r.Status == VerdictPass {
				v.PassedTests++
			}
		}
	}
	v.PassRate = model.Percent(v.PassedTests, v.TotalTests)
	v.CoverageRate = model.Percent(v.VerifiedRequirements, v.Requirements)
	return v
}

// TestRunReport groups the test-run metrics.
type TestRunReport struct {
	Latest       map[string]LatestResult `json:"latest_results" yaml:"latest_results"`
	ByTeam       map[string]TeamCounts   `json:"by_leading_team" yaml:"by_leading_team"`
	Executions   []RunRow                `json:"executions" yaml:"executions"`
	Verification VerificationRates       `json:"verification" yaml:"verification"`
	// Excluded lists runs dropped for an unparseable resolution date
	Excluded []string `json:"excluded_runs" yaml:"excluded_runs"`
}

// TestRuns computes every test-run metric.
func TestRuns(runs []model.TestRun, m graph.Matrix) TestRunReport {
	latest, errs := LatestResults(runs)
	excluded := make([]string, 0, len(errs))
	for _, err := range errs {
		excluded = append(excluded, err.Error())
	}
	return TestRunReport{
		Latest:       latest,
		ByTeam:       ClassifyByTeam(latest),
		Executions:   ExecutionTable(runs),
		Verification: ComputeVerificationRates(m, latest),
		Excluded:     excluded,
	}
}
