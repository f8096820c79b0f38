package coverage

import (
	"encoding/json"
	"sort"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
)

// PriorityTier represents the priority level for a coverage gap
type PriorityTier string

const (
	// PriorityCritical is for declared requirements with no linked test of any kind
	PriorityCritical PriorityTier = "critical"
	// PriorityHigh is for requirements tested only below the requirement level,
	// and for components that requirements depend on but no component test targets
	PriorityHigh PriorityTier = "high"
	// PriorityMedium is for components no requirement references and no test targets
	PriorityMedium PriorityTier = "medium"
)

func (p PriorityTier) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// RequirementGap is a declared requirement without sw_requirement tests.
type RequirementGap struct {
	RequirementID string       `json:"requirement_id" yaml:"requirement_id"`
	PriorityTier  PriorityTier `json:"priority_tier" yaml:"priority_tier"`
	// LinkedTests counts tests of other kinds that still reference the requirement
	LinkedTests int      `json:"linked_tests" yaml:"linked_tests"`
	Components  []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// ComponentGap is a declared component that no component test targets.
type ComponentGap struct {
	ComponentID  string       `json:"component_id" yaml:"component_id"`
	PriorityTier PriorityTier `json:"priority_tier" yaml:"priority_tier"`
	// Requirements lists the requirements that declare the component
	Requirements []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// GapsReport lists coverage gaps in declared scope, most urgent first.
type GapsReport struct {
	Requirements []RequirementGap `json:"requirements" yaml:"requirements"`
	Components   []ComponentGap   `json:"components" yaml:"components"`
	Summary      GapsSummary      `json:"summary" yaml:"summary"`
}

// GapsSummary contains aggregate statistics
type GapsSummary struct {
	UncoveredRequirements int `json:"uncovered_requirements" yaml:"uncovered_requirements"`
	UncoveredComponents   int `json:"uncovered_components" yaml:"uncovered_components"`
	CriticalCount         int `json:"critical_count" yaml:"critical_count"`
	HighCount             int `json:"high_count" yaml:"high_count"`
	MediumCount           int `json:"medium_count" yaml:"medium_count"`
}

// FindGaps reports declared requirements without requirement-level tests and
// declared components without component tests. Only declared entities are
// considered; identifiers that appear solely through links are not gaps.
func FindGaps(m graph.Matrix, requirements map[string]model.Requirement, components map[string]json.RawMessage, tests map[model.TestKind][]model.TestCase) *GapsReport {
	report := &GapsReport{
		Requirements: []RequirementGap{},
		Components:   []ComponentGap{},
	}

	for id := range requirements {
		e := m.Requirement(id)
		if e != nil && e.SWRequirementTests.Len() > 0 {
			continue
		}
		gap := RequirementGap{RequirementID: id, PriorityTier: PriorityCritical}
		if e != nil {
			gap.LinkedTests = e.TestCount()
			gap.Components = e.Components.Sorted()
			if gap.LinkedTests > 0 {
				gap.PriorityTier = PriorityHigh
			}
		}
		report.Requirements = append(report.Requirements, gap)
	}

	tested := model.NewIDSet()
	for _, tc := range tests[model.KindComponent] {
		tested.Add(tc.ComponentID)
	}
	declaredBy := make(map[string]model.IDSet)
	for id, req := range requirements {
		for _, c := range req.Components {
			if declaredBy[c] == nil {
				declaredBy[c] = model.NewIDSet()
			}
			declaredBy[c].Add(id)
		}
	}
	for id := range components {
		if tested.Has(id) {
			continue
		}
		gap := ComponentGap{ComponentID: id, PriorityTier: PriorityMedium}
		if reqs := declaredBy[id]; reqs.Len() > 0 {
			gap.PriorityTier = PriorityHigh
			gap.Requirements = reqs.Sorted()
		}
		report.Components = append(report.Components, gap)
	}

	sort.Slice(report.Requirements, func(i, j int) bool {
		a, b := report.Requirements[i], report.Requirements[j]
		if a.PriorityTier != b.PriorityTier {
			return a.PriorityTier.rank() < b.PriorityTier.rank()
		}
		return a.RequirementID < b.RequirementID
	})
	sort.Slice(report.Components, func(i, j int) bool {
		a, b := report.Components[i], report.Components[j]
		if a.PriorityTier != b.PriorityTier {
			return a.PriorityTier.rank() < b.PriorityTier.rank()
		}
		return a.ComponentID < b.ComponentID
	})

	report.Summary = summarize(report)
	return report
}

func summarize(r *GapsReport) GapsSummary {
	s := GapsSummary{
		UncoveredRequirements: len(r.Requirements),
		UncoveredComponents:   len(r.Components),
	}
	count := func(p PriorityTier) {
		switch p {
		case PriorityCritical:
			s.CriticalCount++
		case PriorityHigh:
			s.HighCount++
		case PriorityMedium:
			s.MediumCount++
		}
	}
	for _, g := range r.Requirements {
		count(g.PriorityTier)
	}
	for _, g := range r.Components {
		count(g.PriorityTier)
	}
	return s
}
