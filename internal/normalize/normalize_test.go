package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweqa/trx/internal/model"
)

func rec(id, status string) model.ExecutionRecord {
	return model.ExecutionRecord{TestID: id, Status: status}
}

func TestNormalize_MapsVariantKeys(t *testing.T) {
	km := DefaultKeyMap()
	raw := model.ExecutionDoc{
		"component tests":                  {rec("C1", "PASS")},
		"interface tests":                  {rec("I1", "FAIL")},
		"software requirement based tests": {rec("S1", "PASS")},
		"unit_tests":                       {rec("U1", "PASS")},
	}

	got := km.Normalize(raw)

	assert.Len(t, got, 4)
	assert.Equal(t, []model.ExecutionRecord{rec("C1", "PASS")}, got[ComponentTests])
	assert.Equal(t, []model.ExecutionRecord{rec("I1", "FAIL")}, got[InterfaceTests])
	assert.Equal(t, []model.ExecutionRecord{rec("S1", "PASS")}, got[SWRequirementTests])
	assert.Equal(t, []model.ExecutionRecord{rec("U1", "PASS")}, got["unit_tests"], "unrecognized keys pass through")
	assert.Contains(t, raw, "component tests", "input must not be modified")
}

func TestNormalize_Idempotent(t *testing.T) {
	km := DefaultKeyMap()
	raw := model.ExecutionDoc{
		"component tests": {rec("C1", "PASS")},
		"custom bucket":   {rec("X1", "SKIPPED")},
	}

	once := km.Normalize(raw)
	twice := km.Normalize(once)

	assert.Equal(t, once, twice)
}

func TestNormalize_MergesCollidingSpellings(t *testing.T) {
	km := DefaultKeyMap()
	raw := model.ExecutionDoc{
		"component tests": {rec("C2", "FAIL")},
		"component_tests": {rec("C1", "PASS")},
	}

	got := km.Normalize(raw)

	require.Len(t, got, 1)
	assert.NotContains(t, got, "component tests")
	assert.Equal(t, []model.ExecutionRecord{rec("C1", "PASS"), rec("C2", "FAIL")}, got[ComponentTests])
}

func TestNormalize_Empty(t *testing.T) {
	got := DefaultKeyMap().Normalize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeAll(t *testing.T) {
	docs := map[string]model.ExecutionDoc{
		"release_1": {"interface tests": {rec("I1", "PASS")}},
		"release_2": {},
	}

	got := DefaultKeyMap().NormalizeAll(docs)

	assert.Len(t, got, 2)
	assert.Contains(t, got["release_1"], InterfaceTests)
	assert.Empty(t, got["release_2"])
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		bucket string
		want   model.TestKind
		ok     bool
	}{
		{ComponentTests, model.KindComponent, true},
		{InterfaceTests, model.KindInterface, true},
		{SWRequirementTests, model.KindSWRequirement, true},
		{"unit_tests", model.KindUnit, true},
		{"integration_tests", model.KindIntegration, true},
		{"component tests", "", false},
		{"smoke", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			got, ok := KindOf(tt.bucket)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
