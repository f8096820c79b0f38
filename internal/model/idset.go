package model

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
)

// IDSet is an unordered set of identifiers. It serializes as a sorted array
// so that encoded output is stable across runs.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Empty identifiers are ignored.
func (s IDSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// AddAll inserts every id.
func (s IDSet) AddAll(ids []string) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Union inserts every member of other.
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Has reports whether id is a member.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array into the set.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// MarshalYAML encodes the set as a sorted sequence.
func (s IDSet) MarshalYAML() (interface{}, error) {
	return s.Sorted(), nil
}

// JSONSchema describes the serialized form of the set.
func (IDSet) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string"},
		UniqueItems: true,
	}
}
