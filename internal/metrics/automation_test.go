package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweqa/trx/internal/model"
)

func TestClassifier_IsAutomated(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.IsAutomated("Automation-Bot"))
	assert.True(t, c.IsAutomated("ci-AUTOMATION"))
	assert.False(t, c.IsAutomated("alice"))
	assert.False(t, c.IsAutomated(""))

	custom := NewClassifier(" Jenkins ", "")
	assert.Equal(t, []string{"jenkins"}, custom.Markers)
	assert.True(t, custom.IsAutomated("jenkins-runner"))
	assert.False(t, custom.IsAutomated("Automation-Bot"))
}

func TestAutomation_SingleAutomatedTest(t *testing.T) {
	docs := map[string]model.ExecutionDoc{
		"R1": {"software_requirement_based_tests": {
			{TestID: "T1", Status: "PASS", ExecutedBy: "Automation-Bot"},
		}},
	}

	got := NewClassifier().Automation(docs, nil)

	assert.Equal(t, 1, got.TotalTests)
	assert.Equal(t, 100.0, got.AutomationRate)
	assert.Equal(t, AutomationCounts{Total: 1, Automated: 1, AutomationRate: 100},
		got.ByTestType["software_requirement_based_tests"])
	assert.Equal(t, map[string]int{"Automation-Bot": 1}, got.Executors)
}

func TestAutomation_LatestReleaseWins(t *testing.T) {
	releases := map[string]model.Release{
		"release_a": {ID: "release_a", Date: "2024-06-01"},
		"release_b": {ID: "release_b", Date: "2024-01-01"},
	}
	docs := map[string]model.ExecutionDoc{
		"release_a": {"component_tests": {{TestID: "C1", ExecutedBy: "Automation-Bot"}}},
		"release_b": {"component_tests": {{TestID: "C1", ExecutedBy: "alice"}}},
	}

	got := NewClassifier().Automation(docs, releases)

	assert.Equal(t, 1, got.TotalTests)
	assert.Equal(t, 1, got.AutomatedTests)
	assert.Equal(t, map[string]int{"Automation-Bot": 1}, got.Executors)
}

func TestAutomation_TieKeepsFirstInReleaseOrder(t *testing.T) {
	docs := map[string]model.ExecutionDoc{
		"release_a": {"component_tests": {{TestID: "C1", ExecutedBy: "alice"}}},
		"release_b": {"component_tests": {{TestID: "C1", ExecutedBy: "Automation-Bot"}}},
	}

	got := NewClassifier().Automation(docs, nil)

	assert.Equal(t, 1, got.ManualTests)
	assert.Equal(t, map[string]int{"alice": 1}, got.Executors)
}

func TestAutomation_SameIDInDifferentBucketsCountsTwice(t *testing.T) {
	docs := map[string]model.ExecutionDoc{
		"R1": {
			"component_tests": {{TestID: "X", ExecutedBy: "automation"}},
			"interface_tests": {{TestID: "X"}},
		},
	}

	got := NewClassifier().Automation(docs, nil)

	assert.Equal(t, 2, got.TotalTests)
	assert.Equal(t, 1, got.ManualTests)
	assert.Equal(t, 50.0, got.AutomationRate)
	assert.Equal(t, AutomationCounts{Total: 1, Manual: 1}, got.ByTestType["interface_tests"])
	assert.Equal(t, map[string]int{"automation": 1}, got.Executors)
}

func TestAutomation_Empty(t *testing.T) {
	got := NewClassifier().Automation(nil, nil)

	assert.Zero(t, got.TotalTests)
	assert.Zero(t, got.AutomationRate)
	assert.Empty(t, got.ByTestType)
	assert.Empty(t, got.Executors)
}

func TestAutomation_EmptyBucketReportedWithZeroRate(t *testing.T) {
	docs := map[string]model.ExecutionDoc{
		"R1": {
			"interface_tests": {},
			"component_tests": {{TestID: "C1", ExecutedBy: "Automation-Bot"}},
		},
	}

	got := NewClassifier().Automation(docs, nil)

	require.Contains(t, got.ByTestType, "interface_tests")
	assert.Equal(t, AutomationCounts{}, got.ByTestType["interface_tests"])
	assert.Equal(t, AutomationCounts{Total: 1, Automated: 1, AutomationRate: 100}, got.ByTestType["component_tests"])
	assert.Equal(t, 1, got.TotalTests)
}
