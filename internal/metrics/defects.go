package metrics

import (
	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
)

// Attribution is the set of components and requirements a test resolves to.
type Attribution struct {
	Components   model.IDSet
	Requirements model.IDSet
}

func newAttribution() Attribution {
	return Attribution{Components: model.NewIDSet(), Requirements: model.NewIDSet()}
}

// LinkageContext is the read-only data strategies resolve against.
type LinkageContext struct {
	Index        *graph.TestIndex
	Requirements map[string]model.Requirement
}

// LinkageStrategy is one step of test → component/requirement resolution.
// Apply may only add to a.
type LinkageStrategy interface {
	Name() string
	Apply(lc LinkageContext, testID string, a *Attribution)
}

// DirectComponent uses the component test with the identifier: its
// component_id and its linked requirements.
type DirectComponent struct{}

// Name implements LinkageStrategy.
func (DirectComponent) Name() string { return "direct-component" }

// Apply implements LinkageStrategy.
func (DirectComponent) Apply(lc LinkageContext, testID string, a *Attribution) {
	tc, ok := lc.Index.Lookup(model.KindComponent, testID)
	if !ok {
		return
	}
	a.Components.Add(tc.ComponentID)
	a.Requirements.AddAll(tc.LinkedTo)
}

// CrossKindScan runs only when no requirement is known yet. It takes the
// linked requirements of the first test with the identifier, searching Kinds
// in order.
type CrossKindScan struct {
	Kinds []model.TestKind
}

// Name implements LinkageStrategy.
func (CrossKindScan) Name() string { return "cross-kind-scan" }

// Apply implements LinkageStrategy.
func (s CrossKindScan) Apply(lc LinkageContext, testID string, a *Attribution) {
	if a.Requirements.Len() > 0 {
		return
	}
	if tc, ok := lc.Index.Find(testID, s.Kinds...); ok {
		a.Requirements.AddAll(tc.LinkedTo)
	}
}

// RequirementComponents runs only when no component is known yet. It falls
// back to the components declared by every resolved requirement.
type RequirementComponents struct{}

// Name implements LinkageStrategy.
func (RequirementComponents) Name() string { return "requirement-components" }

// Apply implements LinkageStrategy.
func (RequirementComponents) Apply(lc LinkageContext, testID string, a *Attribution) {
	if a.Components.Len() > 0 {
		return
	}
	for reqID := range a.Requirements {
		if req, ok := lc.Requirements[reqID]; ok {
			a.Components.AddAll(req.Components)
		}
	}
}

// LinkagePolicy is an ordered list of strategies.
type LinkagePolicy []LinkageStrategy

// DefaultLinkagePolicy resolves direct component links first, then scans the
// remaining kinds for requirements, then falls back to requirement-declared
// components.
func DefaultLinkagePolicy() LinkagePolicy {
	return LinkagePolicy{
		DirectComponent{},
		CrossKindScan{Kinds: []model.TestKind{
			model.KindUnit,
			model.KindInterface,
			model.KindIntegration,
			model.KindSWRequirement,
		}},
		RequirementComponents{},
	}
}

// Names returns strategy names in application order.
func (p LinkagePolicy) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name()
	}
	return names
}

// DefectSummary aggregates the defects of one release.
type DefectSummary struct {
	ByComponent   map[string]int `json:"by_component" yaml:"by_component"`
	ByRequirement map[string]int `json:"by_requirement" yaml:"by_requirement"`
	TotalDefects  int            `json:"total_defects" yaml:"total_defects"`
	DefectList    []string       `json:"defect_list" yaml:"defect_list"`
}

// Attributor attributes defects on executed tests to components and requirements.
type Attributor struct {
	lc     LinkageContext
	policy LinkagePolicy
}

// NewAttributor returns an Attributor. A nil policy means DefaultLinkagePolicy.
func NewAttributor(idx *graph.TestIndex, requirements map[string]model.Requirement, policy LinkagePolicy) *Attributor {
	if policy == nil {
		policy = DefaultLinkagePolicy()
	}
	return &Attributor{
		lc:     LinkageContext{Index: idx, Requirements: requirements},
		policy: policy,
	}
}

// Resolve applies the policy to testID.
func (at *Attributor) Resolve(testID string) Attribution {
	a := newAttribution()
	for _, s := range at.policy {
		s.Apply(at.lc, testID, &a)
	}
	return a
}

// Summarize attributes the defects of one normalized release document.
// Each resolved component and requirement receives the full defect count of
// the record. Buckets are visited in sorted order so DefectList is stable.
func (at *Attributor) Summarize(doc model.ExecutionDoc) DefectSummary {
	s := DefectSummary{
		ByComponent:   make(map[string]int),
		ByRequirement: make(map[string]int),
		DefectList:    []string{},
	}
	for _, bucket := range sortedKeys(doc) {
		for _, r := range doc[bucket] {
			n := len(r.Defects)
			if n == 0 {
				continue
			}
			s.TotalDefects += n
			s.DefectList = append(s.DefectList, r.Defects...)

			a := at.Resolve(r.TestID)
			for c := range a.Components {
				s.ByComponent[c] += n
			}
			for req := range a.Requirements {
				s.ByRequirement[req] += n
			}
		}
	}
	return s
}

// Metrics summarizes every release document.
func (at *Attributor) Metrics(docs map[string]model.ExecutionDoc) map[string]DefectSummary {
	out := make(map[string]DefectSummary, len(docs))
	for release, doc := range docs {
		out[release] = at.Summarize(doc)
	}
	return out
}
