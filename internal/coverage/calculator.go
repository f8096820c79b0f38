// Package coverage derives requirement, component and per-kind test coverage
// from the traceability matrix.
package coverage

import (
	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
)

// KindCoverage summarizes one test kind.
type KindCoverage struct {
	// Total is the number of test cases of the kind.
	Total int `json:"total" yaml:"total"`
	// CoveredRequirements counts distinct requirements named by the kind's linked_to fields.
	CoveredRequirements int `json:"covered_requirements" yaml:"covered_requirements"`
}

// Report is the coverage section of the result document.
type Report struct {
	Requirements model.Ratio                     `json:"requirements" yaml:"requirements"`
	Components   model.Ratio                     `json:"components" yaml:"components"`
	TestTypes    map[model.TestKind]KindCoverage `json:"test_types" yaml:"test_types"`
}

// Calculate computes coverage ratios.
//
// Requirement coverage counts matrix entries with at least one
// sw_requirement test, including entries that exist only because a test
// links to them; the denominator is requirementsTotal, the number of declared
// requirements. Component coverage counts distinct component_id values of
// component tests against componentsTotal. Percentages are clamped to 100.
func Calculate(m graph.Matrix, requirementsTotal, componentsTotal int, tests map[model.TestKind][]model.TestCase) Report {
	covered := 0
	for _, e := range m {
		if e.SWRequirementTests.Len() > 0 {
			covered++
		}
	}

	components := model.NewIDSet()
	for _, tc := range tests[model.KindComponent] {
		components.Add(tc.ComponentID)
	}

	r := Report{
		Requirements: model.NewRatio(covered, requirementsTotal),
		Components:   model.NewRatio(components.Len(), componentsTotal),
		TestTypes:    make(map[model.TestKind]KindCoverage, len(model.Kinds)),
	}

	for _, kind := range model.Kinds {
		reqs := model.NewIDSet()
		for _, tc := range tests[kind] {
			reqs.AddAll(tc.LinkedTo)
		}
		r.TestTypes[kind] = KindCoverage{
			Total:               len(tests[kind]),
			CoveredRequirements: reqs.Len(),
		}
	}

	return r
}
