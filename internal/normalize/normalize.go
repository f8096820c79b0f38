// Package normalize maps the field-name spellings found in execution documents
// onto one canonical schema.
package normalize

import (
	"sort"

	"github.com/sweqa/trx/internal/model"
)

// Canonical bucket names.
const (
	ComponentTests     = "component_tests"
	InterfaceTests     = "interface_tests"
	SWRequirementTests = "software_requirement_based_tests"
)

// KeyMap is an immutable variant→canonical key lookup. It is safe for
// concurrent use because nothing mutates it after construction.
type KeyMap struct {
	variants map[string]string
}

// DefaultKeyMap returns the lookup for the spellings produced by the known
// exporters.
func DefaultKeyMap() KeyMap {
	return NewKeyMap(map[string]string{
		"component tests":                  ComponentTests,
		"interface tests":                  InterfaceTests,
		"software requirement based tests": SWRequirementTests,
	})
}

// NewKeyMap copies variants into a new KeyMap.
func NewKeyMap(variants map[string]string) KeyMap {
	m := make(map[string]string, len(variants))
	for k, v := range variants {
		m[k] = v
	}
	return KeyMap{variants: m}
}

// Canonical returns the canonical spelling of key. Unknown keys pass through.
func (km KeyMap) Canonical(key string) string {
	if c, ok := km.variants[key]; ok {
		return c
	}
	return key
}

// Normalize returns a copy of doc that uses canonical keys only. When several
// spellings of one bucket are present their records are concatenated, with
// the key that is already canonical first and the rest in key order. The
// input is never modified.
func (km KeyMap) Normalize(doc model.ExecutionDoc) model.ExecutionDoc {
	out := make(model.ExecutionDoc, len(doc))
	if len(doc) == 0 {
		return out
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := km.Canonical(keys[i]) == keys[i], km.Canonical(keys[j]) == keys[j]
		if ci != cj {
			return ci
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		c := km.Canonical(k)
		records := doc[k]
		if existing, ok := out[c]; ok {
			merged := make([]model.ExecutionRecord, 0, len(existing)+len(records))
			merged = append(merged, existing...)
			out[c] = append(merged, records...)
			continue
		}
		out[c] = append([]model.ExecutionRecord(nil), records...)
	}
	return out
}

// NormalizeAll normalizes every release document.
func (km KeyMap) NormalizeAll(docs map[string]model.ExecutionDoc) map[string]model.ExecutionDoc {
	out := make(map[string]model.ExecutionDoc, len(docs))
	for release, doc := range docs {
		out[release] = km.Normalize(doc)
	}
	return out
}

// KindOf maps a canonical bucket name to the test kind whose results it holds.
func KindOf(bucket string) (model.TestKind, bool) {
	for _, k := range model.Kinds {
		if k.Bucket() == bucket {
			return k, true
		}
	}
	return "", false
}
