package graph

import "github.com/sweqa/trx/internal/model"

// TestIndex is an immutable per-kind lookup from test identifier to test case.
// Identifiers are only unique within a kind, so lookups always name the kind.
type TestIndex struct {
	byKind map[model.TestKind]map[string]model.TestCase
}

// NewTestIndex indexes tests. When one kind repeats an identifier the first
// occurrence is kept.
func NewTestIndex(tests map[model.TestKind][]model.TestCase) *TestIndex {
	idx := &TestIndex{byKind: make(map[model.TestKind]map[string]model.TestCase, len(model.Kinds))}
	for _, kind := range model.Kinds {
		m := make(map[string]model.TestCase, len(tests[kind]))
		for _, tc := range tests[kind] {
			if tc.ID == "" {
				continue
			}
			if _, dup := m[tc.ID]; dup {
				continue
			}
			if tc.Kind == "" {
				tc.Kind = kind
			}
			m[tc.ID] = tc
		}
		idx.byKind[kind] = m
	}
	return idx
}

// Lookup returns the test of the given kind with identifier id.
func (idx *TestIndex) Lookup(kind model.TestKind, id string) (model.TestCase, bool) {
	tc, ok := idx.byKind[kind][id]
	return tc, ok
}

// Find returns the first test named id, searching kinds in the given order.
func (idx *TestIndex) Find(id string, kinds ...model.TestKind) (model.TestCase, bool) {
	for _, k := range kinds {
		if tc, ok := idx.Lookup(k, id); ok {
			return tc, true
		}
	}
	return model.TestCase{}, false
}

// Known reports whether any kind declares a test named id.
func (idx *TestIndex) Known(id string) bool {
	_, ok := idx.Find(id, model.Kinds...)
	return ok
}

// Len returns the number of indexed tests of kind.
func (idx *TestIndex) Len(kind model.TestKind) int {
	return len(idx.byKind[kind])
}
