// Package metrics derives pass-rate, defect, automation, release and
// latest-result statistics from normalized execution records.
//
// Every function here is a pure computation over read-only inputs, so callers
// may evaluate them concurrently against one shared snapshot.
package metrics

import (
	"sort"
	"strings"

	"github.com/sweqa/trx/internal/model"
)

// OutcomeCounts tallies execution statuses within one scope.
type OutcomeCounts struct {
	Total     int `json:"total" yaml:"total"`
	Passed    int `json:"passed" yaml:"passed"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Error     int `json:"error" yaml:"error"`
	Executing int `json:"executing" yaml:"executing"`
	// Unclassified counts statuses outside the known token set
	Unclassified int     `json:"unclassified" yaml:"unclassified"`
	PassRate     float64 `json:"pass_rate" yaml:"pass_rate"`
}

// add counts one status. With fold set the comparison ignores case.
func (c *OutcomeCounts) add(status string, fold bool) {
	c.Total++
	if fold {
		status = strings.ToUpper(status)
	}
	switch status {
	case model.StatusPass:
		c.Passed++
	case model.StatusFail, model.StatusFailed:
		c.Failed++
	case model.StatusSkipped:
		c.Skipped++
	case model.StatusErrorInTest:
		c.Error++
	case model.StatusExecuting:
		c.Executing++
	default:
		c.Unclassified++
	}
}

func (c *OutcomeCounts) finish() {
	c.PassRate = model.Percent(c.Passed, c.Total)
}

// PassRates counts outcomes per bucket of one normalized release document.
// Statuses are compared case-sensitively. Every bucket present is reported,
// not only the component, interface and requirement-based buckets, so the
// result is a superset of those three.
func PassRates(doc model.ExecutionDoc) map[string]OutcomeCounts {
	out := make(map[string]OutcomeCounts, len(doc))
	for bucket, records := range doc {
		var c OutcomeCounts
		for _, r := range records {
			c.add(r.Status, false)
		}
		c.finish()
		out[bucket] = c
	}
	return out
}

// PassRatesByRelease applies PassRates to every release document.
func PassRatesByRelease(docs map[string]model.ExecutionDoc) map[string]map[string]OutcomeCounts {
	out := make(map[string]map[string]OutcomeCounts, len(docs))
	for release, doc := range docs {
		out[release] = PassRates(doc)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
