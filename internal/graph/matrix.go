// Package graph builds the requirement-keyed traceability matrix joining
// requirements to their components, interfaces and typed test cases.
package graph

import (
	"sort"

	"github.com/sweqa/trx/internal/model"
)

// Entry holds every identifier linked to one requirement.
type Entry struct {
	Components         model.IDSet `json:"components" yaml:"components"`
	Interfaces         model.IDSet `json:"interfaces" yaml:"interfaces"`
	UnitTests          model.IDSet `json:"unit_tests" yaml:"unit_tests"`
	ComponentTests     model.IDSet `json:"component_tests" yaml:"component_tests"`
	InterfaceTests     model.IDSet `json:"interface_tests" yaml:"interface_tests"`
	IntegrationTests   model.IDSet `json:"integration_tests" yaml:"integration_tests"`
	SWRequirementTests model.IDSet `json:"sw_requirement_tests" yaml:"sw_requirement_tests"`
}

func newEntry() *Entry {
	return &Entry{
		Components:         model.NewIDSet(),
		Interfaces:         model.NewIDSet(),
		UnitTests:          model.NewIDSet(),
		ComponentTests:     model.NewIDSet(),
		InterfaceTests:     model.NewIDSet(),
		IntegrationTests:   model.NewIDSet(),
		SWRequirementTests: model.NewIDSet(),
	}
}

// Tests returns the set of tests of kind k linked to the requirement.
// Unknown kinds return nil.
func (e *Entry) Tests(k model.TestKind) model.IDSet {
	switch k {
	case model.KindUnit:
		return e.UnitTests
	case model.KindComponent:
		return e.ComponentTests
	case model.KindInterface:
		return e.InterfaceTests
	case model.KindIntegration:
		return e.IntegrationTests
	case model.KindSWRequirement:
		return e.SWRequirementTests
	default:
		return nil
	}
}

// TestCount returns the number of linked tests across all kinds.
func (e *Entry) TestCount() int {
	n := 0
	for _, k := range model.Kinds {
		n += e.Tests(k).Len()
	}
	return n
}

// Matrix is the traceability matrix keyed by requirement identifier.
type Matrix map[string]*Entry

// Build joins requirements and test cases into a Matrix.
//
// Every declared requirement gets an entry, and so does every requirement
// named in a test's linked_to even when it is not declared; such entries
// have empty component and interface sets. The pass is linear in the number
// of requirements plus test links.
func Build(requirements map[string]model.Requirement, tests map[model.TestKind][]model.TestCase) Matrix {
	m := make(Matrix, len(requirements))

	for id, req := range requirements {
		e := m.entry(id)
		e.Components.AddAll(req.Components)
		e.Interfaces.AddAll(req.Interfaces)
	}

	for _, kind := range model.Kinds {
		for _, tc := range tests[kind] {
			for _, reqID := range tc.LinkedTo {
				if reqID == "" {
					continue
				}
				m.entry(reqID).Tests(kind).Add(tc.ID)
			}
		}
	}

	return m
}

func (m Matrix) entry(id string) *Entry {
	e, ok := m[id]
	if !ok {
		e = newEntry()
		m[id] = e
	}
	return e
}

// IDs returns requirement identifiers in ascending order.
func (m Matrix) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Undeclared returns, sorted, the requirements that appear in the matrix only
// through test links.
func (m Matrix) Undeclared(requirements map[string]model.Requirement) []string {
	var out []string
	for id := range m {
		if _, ok := requirements[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Requirement returns the entry for id, or nil.
func (m Matrix) Requirement(id string) *Entry {
	return m[id]
}
