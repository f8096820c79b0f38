package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
)

func newTestAttributor(reqs map[string]model.Requirement, tests map[model.TestKind][]model.TestCase) *Attributor {
	return NewAttributor(graph.NewTestIndex(tests), reqs, nil)
}

func TestAttributor_FailedRequirementTestWithDefect(t *testing.T) {
	reqs := map[string]model.Requirement{"REQ-1": {ID: "REQ-1"}}
	tests := map[model.TestKind][]model.TestCase{
		model.KindSWRequirement: {{ID: "T1", LinkedTo: []string{"REQ-1"}}},
	}
	docs := map[string]model.ExecutionDoc{
		"R1": {"software_requirement_based_tests": {
			{TestID: "T1", Status: "FAILED", ExecutedBy: "Automation-Bot", Defects: []string{"DEF-7"}},
		}},
	}

	got := newTestAttributor(reqs, tests).Metrics(docs)["R1"]

	assert.Equal(t, 1, got.ByRequirement["REQ-1"])
	assert.Equal(t, []string{"DEF-7"}, got.DefectList)
	assert.Equal(t, 1, got.TotalDefects)
	assert.Empty(t, got.ByComponent)
	assert.Equal(t, 0.0, PassRates(docs["R1"])["software_requirement_based_tests"].PassRate)
}

func TestAttributor_SharedTestAccumulatesIndependently(t *testing.T) {
	reqs := map[string]model.Requirement{
		"REQ-1": {ID: "REQ-1", Components: []string{"COMP-A"}},
		"REQ-2": {ID: "REQ-2", Components: []string{"COMP-A", "COMP-B"}},
	}
	tests := map[model.TestKind][]model.TestCase{
		model.KindSWRequirement: {{ID: "T1", LinkedTo: []string{"REQ-1", "REQ-2"}}},
	}
	doc := model.ExecutionDoc{
		"software_requirement_based_tests": {
			{TestID: "T1", Status: "FAIL", Defects: []string{"DEF-1", "DEF-2"}},
		},
	}

	got := newTestAttributor(reqs, tests).Summarize(doc)

	assert.Equal(t, map[string]int{"REQ-1": 2, "REQ-2": 2}, got.ByRequirement)
	assert.Equal(t, map[string]int{"COMP-A": 2, "COMP-B": 2}, got.ByComponent)
	assert.Equal(t, 2, got.TotalDefects)
	assert.Equal(t, []string{"DEF-1", "DEF-2"}, got.DefectList)
}

func TestAttributor_DirectComponentWins(t *testing.T) {
	reqs := map[string]model.Requirement{
		"REQ-1": {ID: "REQ-1", Components: []string{"COMP-FALLBACK"}},
	}
	tests := map[model.TestKind][]model.TestCase{
		model.KindComponent: {{ID: "X", ComponentID: "COMP-A", LinkedTo: []string{"REQ-1"}}},
		model.KindUnit:      {{ID: "X", LinkedTo: []string{"REQ-9"}}},
	}

	a := newTestAttributor(reqs, tests).Resolve("X")

	assert.Equal(t, []string{"COMP-A"}, a.Components.Sorted())
	assert.Equal(t, []string{"REQ-1"}, a.Requirements.Sorted())
}

func TestAttributor_CrossKindScanStopsAtFirstMatch(t *testing.T) {
	tests := map[model.TestKind][]model.TestCase{
		model.KindInterface:     {{ID: "X", LinkedTo: []string{"REQ-I"}}},
		model.KindIntegration:   {{ID: "X", LinkedTo: []string{"REQ-N"}}},
		model.KindSWRequirement: {{ID: "X", LinkedTo: []string{"REQ-S"}}},
	}

	a := newTestAttributor(nil, tests).Resolve("X")

	assert.Equal(t, []string{"REQ-I"}, a.Requirements.Sorted())
	assert.Zero(t, a.Components.Len())
}

func TestAttributor_ComponentWithoutRequirementsScansOtherKinds(t *testing.T) {
	reqs := map[string]model.Requirement{
		"REQ-2": {ID: "REQ-2", Components: []string{"COMP-B"}},
	}
	tests := map[model.TestKind][]model.TestCase{
		model.KindComponent: {{ID: "X", ComponentID: "COMP-A"}},
		model.KindUnit:      {{ID: "X", LinkedTo: []string{"REQ-2"}}},
	}

	a := newTestAttributor(reqs, tests).Resolve("X")

	assert.Equal(t, []string{"REQ-2"}, a.Requirements.Sorted())
	assert.Equal(t, []string{"COMP-A"}, a.Components.Sorted())
}

func TestAttributor_UnknownTestStillCounted(t *testing.T) {
	doc := model.ExecutionDoc{
		"component_tests": {
			{TestID: "GHOST", Status: "FAIL", Defects: []string{"DEF-1"}},
			{TestID: "OK", Status: "PASS"},
		},
		"interface_tests": {
			{TestID: "GHOST2", Status: "FAIL", Defects: []string{"DEF-2"}},
		},
	}

	got := newTestAttributor(nil, nil).Summarize(doc)

	assert.Equal(t, 2, got.TotalDefects)
	assert.Equal(t, []string{"DEF-1", "DEF-2"}, got.DefectList)
	assert.Empty(t, got.ByComponent)
	assert.Empty(t, got.ByRequirement)
}

func TestAttributor_EmptyDocument(t *testing.T) {
	got := newTestAttributor(nil, nil).Summarize(model.ExecutionDoc{})

	assert.Equal(t, DefectSummary{
		ByComponent:   map[string]int{},
		ByRequirement: map[string]int{},
		DefectList:    []string{},
	}, got)
}

func TestDefaultLinkagePolicy_Order(t *testing.T) {
	assert.Equal(t,
		[]string{"direct-component", "cross-kind-scan", "requirement-components"},
		DefaultLinkagePolicy().Names())
}
