package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweqa/trx/internal/logging"
	"github.com/sweqa/trx/internal/metrics"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/output"
)

var fixedNow = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) }

func newTestAssembler() *Assembler {
	a := NewAssembler(4, nil, nil)
	a.Now = fixedNow
	return a
}

// scenarioSnapshot is REQ-1 covered by T1, executed once in R1.
func scenarioSnapshot(status string, defects ...string) *model.Snapshot {
	s := model.NewSnapshot()
	s.Requirements["REQ-1"] = model.Requirement{ID: "REQ-1"}
	s.TestCases[model.KindSWRequirement] = []model.TestCase{
		{ID: "T1", Kind: model.KindSWRequirement, LinkedTo: []string{"REQ-1"}},
	}
	s.Executions["R1"] = model.ExecutionDoc{
		"software requirement based tests": {
			{TestID: "T1", Status: status, ExecutedBy: "Automation-Bot", Defects: defects},
		},
	}
	s.Releases["R1"] = model.Release{ID: "R1", Name: "Release 1.0", Date: "2024-05-01"}
	return s
}

func TestAssemble_PassingAutomatedTest(t *testing.T) {
	r, err := newTestAssembler().Assemble(context.Background(), scenarioSnapshot("PASS"))
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01 12:30:00", r.GeneratedOn)
	assert.Equal(t, []string{"T1"}, r.TraceabilityMatrix["REQ-1"].SWRequirementTests.Sorted())
	assert.Equal(t, 100.0, r.Coverage.Requirements.Percentage)
	assert.Equal(t, 100.0, r.PassRates["R1"]["software_requirement_based_tests"].PassRate)
	assert.Equal(t, 100.0, r.AutomationStatus.ByTestType["software_requirement_based_tests"].AutomationRate)
	assert.Equal(t, 100.0, r.ReleaseInfo["R1"].PassRate)
	assert.Equal(t, []string{"R1"}, r.ReleaseOrder)
	assert.Nil(t, r.TestRuns)
}

func TestAssemble_FailedTestWithDefect(t *testing.T) {
	r, err := newTestAssembler().Assemble(context.Background(), scenarioSnapshot("FAILED", "DEF-7"))
	require.NoError(t, err)

	d := r.DefectMetrics["R1"]
	assert.Equal(t, 1, d.ByRequirement["REQ-1"])
	assert.Equal(t, []string{"DEF-7"}, d.DefectList)
	assert.Equal(t, 0.0, r.PassRates["R1"]["software_requirement_based_tests"].PassRate)
}

func TestAssemble_EmptyExecutionDocument(t *testing.T) {
	s := model.NewSnapshot()
	for _, id := range []string{"REQ-1", "REQ-2", "REQ-3", "REQ-4", "REQ-5"} {
		s.Requirements[id] = model.Requirement{ID: id}
	}
	s.Executions["R1"] = model.ExecutionDoc{}
	s.Releases["R1"] = model.Release{ID: "R1"}

	r, err := newTestAssembler().Assemble(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 5, r.Coverage.Requirements.Total)
	assert.Zero(t, r.Coverage.Requirements.Percentage)
	assert.Zero(t, r.ReleaseInfo["R1"].PassRate)
	assert.Empty(t, r.PassRates["R1"])
	assert.Equal(t, 5, r.CoverageGaps.Summary.CriticalCount)
}

func TestAssemble_EmptySnapshot(t *testing.T) {
	r, err := newTestAssembler().Assemble(context.Background(), model.NewSnapshot())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, StructuredRenderer{Formatter: output.NewJSONFormatter()}.Render(&buf, r))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{
		"generated_on", "traceability_matrix", "coverage", "coverage_gaps", "pass_rates",
		"defect_metrics", "automation_status", "release_info", "release_order",
	} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "test_runs")
	assert.NotContains(t, doc, "issues")
}

func richSnapshot() *model.Snapshot {
	s := model.NewSnapshot()
	s.Requirements["REQ-1"] = model.Requirement{ID: "REQ-1", Components: []string{"COMP-A", "COMP-B"}}
	s.Requirements["REQ-2"] = model.Requirement{ID: "REQ-2", Interfaces: []string{"IF-1"}}
	s.Components["COMP-A"] = json.RawMessage(`{}`)
	s.Components["COMP-B"] = json.RawMessage(`{}`)
	s.TestCases[model.KindComponent] = []model.TestCase{{ID: "C1", ComponentID: "COMP-A", LinkedTo: []string{"REQ-1"}}}
	s.TestCases[model.KindUnit] = []model.TestCase{{ID: "U1", LinkedTo: []string{"REQ-2", "REQ-9"}}}
	s.TestCases[model.KindSWRequirement] = []model.TestCase{{ID: "T1", LinkedTo: []string{"REQ-1", "REQ-2"}}}
	s.Executions["R1"] = model.ExecutionDoc{
		"component tests":                  {{TestID: "C1", Status: "FAIL", ExecutedBy: "bob", Defects: []string{"DEF-1"}}},
		"software requirement based tests": {{TestID: "T1", Status: "FAILED", ExecutedBy: "ci-automation", Defects: []string{"DEF-2", "DEF-3"}}},
		"unit_tests":                       {{TestID: "U1", Status: "PASS", ExecutedBy: "ci-automation"}},
	}
	s.Executions["R2"] = model.ExecutionDoc{
		"software_requirement_based_tests": {{TestID: "T1", Status: "PASS", ExecutedBy: "alice"}},
	}
	s.Releases["R1"] = model.Release{ID: "R1", Name: "Release 1.0", Date: "2024-01-01"}
	s.Releases["R2"] = model.Release{ID: "R2", Name: "Release 1.1", Date: "2024-03-01"}
	s.TestRuns = []model.TestRun{
		{Key: "EXE-1", ResolutionDate: "2024-03-02T08:00:00.000+0000", LeadingTeam: []string{"Team A"}, TestData: map[string]string{"T1": "PASS"}},
		{Key: "EXE-2", ResolutionDate: "garbage", TestData: map[string]string{"T1": "FAIL"}},
	}
	return s
}

func TestAssemble_RichSnapshot(t *testing.T) {
	r, err := newTestAssembler().Assemble(context.Background(), richSnapshot())
	require.NoError(t, err)

	assert.Equal(t, []string{"R1", "R2"}, r.ReleaseOrder)
	assert.Contains(t, r.TraceabilityMatrix, "REQ-9")

	d := r.DefectMetrics["R1"]
	assert.Equal(t, 3, d.TotalDefects)
	assert.Equal(t, []string{"DEF-1", "DEF-2", "DEF-3"}, d.DefectList)
	assert.Equal(t, map[string]int{"REQ-1": 3, "REQ-2": 2}, d.ByRequirement)
	assert.Equal(t, map[string]int{"COMP-A": 3, "COMP-B": 2}, d.ByComponent)

	// T1 from R2 (later release, manual) replaces the automated R1 record.
	assert.Equal(t, 3, r.AutomationStatus.TotalTests)
	assert.Equal(t, 1, r.AutomationStatus.AutomatedTests)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1, "ci-automation": 1}, r.AutomationStatus.Executors)

	require.NotNil(t, r.TestRuns)
	assert.Len(t, r.TestRuns.Excluded, 1)
	assert.Equal(t, "EXE-1", r.TestRuns.Latest["T1"].ExecutionKey)
	assert.Equal(t, 2, r.TestRuns.Verification.VerifiedRequirements)
}

func TestAssemble_Idempotent(t *testing.T) {
	encode := func(now time.Time) string {
		a := newTestAssembler()
		a.Now = func() time.Time { return now }
		r, err := a.Assemble(context.Background(), richSnapshot())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, StructuredRenderer{Formatter: output.NewJSONFormatter()}.Render(&buf, r))
		return buf.String()
	}

	first := encode(fixedNow())
	assert.Equal(t, first, encode(fixedNow()))

	later := encode(fixedNow().Add(time.Hour))
	assert.NotEqual(t, first, later)
	assert.Equal(t,
		strings.Replace(first, "2024-06-01 12:30:00", "", 1),
		strings.Replace(later, "2024-06-01 13:30:00", "", 1))
}

func TestAssemble_SingleWorkerMatchesPool(t *testing.T) {
	pooled, err := newTestAssembler().Assemble(context.Background(), richSnapshot())
	require.NoError(t, err)

	a := newTestAssembler()
	a.Workers = 0
	serial, err := a.Assemble(context.Background(), richSnapshot())
	require.NoError(t, err)

	assert.Equal(t, pooled, serial)
}

func TestAssemble_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := newTestAssembler().Assemble(ctx, richSnapshot())
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReport_Section(t *testing.T) {
	r, err := newTestAssembler().Assemble(context.Background(), richSnapshot())
	require.NoError(t, err)

	for _, name := range Sections {
		_, ok := r.Section(name)
		assert.True(t, ok, name)
	}
	_, ok := r.Section("nope")
	assert.False(t, ok)

	empty, err := newTestAssembler().Assemble(context.Background(), model.NewSnapshot())
	require.NoError(t, err)
	_, ok = empty.Section(SectionTestRuns)
	assert.False(t, ok)
}

func TestAssemble_LogsPreparedSnapshot(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	a := NewAssembler(1, nil, logger)
	a.Now = fixedNow
	_, err = a.Assemble(context.Background(), scenarioSnapshot("PASS"))
	require.NoError(t, err)

	var prepared map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "snapshot prepared" {
			prepared = rec
		}
	}
	require.NotNil(t, prepared, buf.String())
	assert.Equal(t, 1.0, prepared["requirements"])
	assert.Equal(t, "unit=0 component=0 interface=0 integration=0 sw_requirement=1", prepared["tests"])
	assert.Equal(t, strings.Join(metrics.DefaultLinkagePolicy().Names(), ","), prepared["linkage_policy"])
}
