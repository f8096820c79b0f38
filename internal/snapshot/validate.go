package snapshot

import (
	"fmt"
	"path"
	"sort"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/normalize"
)

// Validate reports references that do not resolve: requirement links and
// component links to undeclared entities, executed tests that no test
// collection declares or that sit in another kind's bucket, and execution
// documents without a registry entry.
// Issues are ordered by path, then message.
func Validate(s *model.Snapshot) []model.Issue {
	var issues []model.Issue
	add := func(p, kind, format string, args ...any) {
		issues = append(issues, model.Issue{Path: p, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	for id, req := range s.Requirements {
		for _, c := range req.Components {
			if _, ok := s.Components[c]; !ok {
				add(path.Join("requirements", id), model.IssueDangling, "component %s is not declared", c)
			}
		}
		for _, i := range req.Interfaces {
			if _, ok := s.Interfaces[i]; !ok {
				add(path.Join("requirements", id), model.IssueDangling, "interface %s is not declared", i)
			}
		}
	}

	for kind, tests := range s.TestCases {
		for _, tc := range tests {
			p := path.Join("tests", string(kind), tc.ID)
			for _, r := range tc.LinkedTo {
				if _, ok := s.Requirements[r]; !ok {
					add(p, model.IssueDangling, "requirement %s is not declared", r)
				}
			}
			if tc.ComponentID != "" {
				if _, ok := s.Components[tc.ComponentID]; !ok {
					add(p, model.IssueDangling, "component %s is not declared", tc.ComponentID)
				}
			}
		}
	}

	idx := graph.NewTestIndex(s.TestCases)
	km := normalize.DefaultKeyMap()
	for release, doc := range s.Executions {
		if _, ok := s.Releases[release]; !ok {
			add(path.Join("executions", release), model.IssueOrphan, "release %s has no registry entry", release)
		}
		for bucket, records := range km.Normalize(doc) {
			kind, typed := normalize.KindOf(bucket)
			p := path.Join("executions", release, bucket)
			for _, r := range records {
				if !idx.Known(r.TestID) {
					add(p, model.IssueOrphan, "test %s is not declared", r.TestID)
					continue
				}
				if _, ok := idx.Lookup(kind, r.TestID); typed && !ok {
					add(p, model.IssueOrphan, "test %s is not declared as a %s test", r.TestID, kind)
				}
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}
