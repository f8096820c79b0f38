// Package report assembles the traceability result document from a loaded
// snapshot and renders it.
//
// Assembly normalizes the execution documents once, builds the matrix and
// the test index once, then evaluates every analyzer concurrently against
// that read-only data. Identical snapshots produce byte-identical reports
// apart from generated_on.
package report

import (
	"github.com/sweqa/trx/internal/coverage"
	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/metrics"
	"github.com/sweqa/trx/internal/model"
)

// DefaultTimestampLayout formats generated_on.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Report is the complete result document.
type Report struct {
	// GeneratedOn is the only field that varies between runs on one snapshot.
	GeneratedOn string `yaml:"generated_on" json:"generated_on"`

	// TraceabilityMatrix maps each requirement to its linked entities and tests.
	TraceabilityMatrix graph.Matrix `yaml:"traceability_matrix" json:"traceability_matrix"`

	Coverage     coverage.Report      `yaml:"coverage" json:"coverage"`
	CoverageGaps *coverage.GapsReport `yaml:"coverage_gaps" json:"coverage_gaps"`

	// PassRates is keyed by release, then by normalized bucket.
	PassRates map[string]map[string]metrics.OutcomeCounts `yaml:"pass_rates" json:"pass_rates"`

	DefectMetrics    map[string]metrics.DefectSummary  `yaml:"defect_metrics" json:"defect_metrics"`
	AutomationStatus metrics.AutomationReport          `yaml:"automation_status" json:"automation_status"`
	ReleaseInfo      map[string]metrics.ReleaseSummary `yaml:"release_info" json:"release_info"`

	// ReleaseOrder lists release IDs oldest first.
	ReleaseOrder []string `yaml:"release_order" json:"release_order"`

	// TestRuns is present only when the snapshot carries a test-run export.
	TestRuns *metrics.TestRunReport `yaml:"test_runs,omitempty" json:"test_runs,omitempty"`

	// Issues lists documents that could not be used while loading.
	Issues []model.Issue `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// Section names accepted by Report.Section.
const (
	SectionMatrix     = "traceability_matrix"
	SectionCoverage   = "coverage"
	SectionGaps       = "coverage_gaps"
	SectionPassRates  = "pass_rates"
	SectionDefects    = "defect_metrics"
	SectionAutomation = "automation_status"
	SectionReleases   = "release_info"
	SectionTestRuns   = "test_runs"
)

// Sections lists every section name in document order.
var Sections = []string{
	SectionMatrix,
	SectionCoverage,
	SectionGaps,
	SectionPassRates,
	SectionDefects,
	SectionAutomation,
	SectionReleases,
	SectionTestRuns,
}

// Section returns one top-level section of the report by name.
func (r *Report) Section(name string) (interface{}, bool) {
	switch name {
	case SectionMatrix:
		return r.TraceabilityMatrix, true
	case SectionCoverage:
		return r.Coverage, true
	case SectionGaps:
		return r.CoverageGaps, true
	case SectionPassRates:
		return r.PassRates, true
	case SectionDefects:
		return r.DefectMetrics, true
	case SectionAutomation:
		return r.AutomationStatus, true
	case SectionReleases:
		return struct {
			Releases map[string]metrics.ReleaseSummary `yaml:"release_info" json:"release_info"`
			Order    []string                          `yaml:"release_order" json:"release_order"`
		}{r.ReleaseInfo, r.ReleaseOrder}, true
	case SectionTestRuns:
		return r.TestRuns, r.TestRuns != nil
	}
	return nil, false
}
