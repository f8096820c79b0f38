package metrics

import (
	"strings"
	"time"

	"github.com/sweqa/trx/internal/model"
)

// DefaultAutomationMarker identifies automated executors.
const DefaultAutomationMarker = "automation"

// Classifier decides whether an executor is an automation identity.
type Classifier struct {
	// Markers are matched case-insensitively as substrings of the executor
	Markers []string
}

// NewClassifier returns a Classifier. With no markers DefaultAutomationMarker is used.
func NewClassifier(markers ...string) Classifier {
	c := Classifier{}
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			c.Markers = append(c.Markers, strings.ToLower(m))
		}
	}
	if len(c.Markers) == 0 {
		c.Markers = []string{DefaultAutomationMarker}
	}
	return c
}

// IsAutomated reports whether executor contains any marker.
// An empty executor is manual.
func (c Classifier) IsAutomated(executor string) bool {
	if executor == "" {
		return false
	}
	e := strings.ToLower(executor)
	for _, m := range c.Markers {
		if strings.Contains(e, m) {
			return true
		}
	}
	return false
}

// AutomationCounts is the automation breakdown of one bucket.
type AutomationCounts struct {
	Total          int     `json:"total" yaml:"total"`
	Automated      int     `json:"automated" yaml:"automated"`
	Manual         int     `json:"manual" yaml:"manual"`
	AutomationRate float64 `json:"automation_rate" yaml:"automation_rate"`
}

// AutomationReport summarizes automation across all releases.
type AutomationReport struct {
	TotalTests     int                         `json:"total_tests" yaml:"total_tests"`
	AutomatedTests int                         `json:"automated_tests" yaml:"automated_tests"`
	ManualTests    int                         `json:"manual_tests" yaml:"manual_tests"`
	AutomationRate float64                     `json:"automation_rate" yaml:"automation_rate"`
	ByTestType     map[string]AutomationCounts `json:"by_test_type" yaml:"by_test_type"`
	// Executors counts distinct tests per non-empty executor
	Executors map[string]int `json:"executors" yaml:"executors"`
}

// Automation deduplicates execution records across releases and classifies
// each unique test as automated or manual.
//
// Records are keyed by (bucket, test_id). When a test appears in several
// releases the record from the release with the latest release date wins;
// releases with no parseable date rank earliest, and ties keep the record
// seen first in release-ID order.
func (c Classifier) Automation(docs map[string]model.ExecutionDoc, releases map[string]model.Release) AutomationReport {
	sel := NewLatestSelector[model.ExecutionRecord]()
	buckets := make(map[string]bool)

	for _, releaseID := range sortedKeys(docs) {
		var at time.Time
		if rel, ok := releases[releaseID]; ok {
			if t, err := ParseTimestamp(rel.Date); err == nil {
				at = t
			}
		}
		doc := docs[releaseID]
		for _, bucket := range sortedKeys(doc) {
			buckets[bucket] = true
			for _, r := range doc[bucket] {
				sel.Offer(bucket+"\x00"+r.TestID, at, r)
			}
		}
	}

	report := AutomationReport{
		ByTestType: make(map[string]AutomationCounts),
		Executors:  make(map[string]int),
	}
	// Buckets without executed tests are reported with zero counts.
	for bucket := range buckets {
		report.ByTestType[bucket] = AutomationCounts{}
	}
	for _, key := range sel.Keys() {
		r, _, _ := sel.Get(key)
		bucket, _, _ := strings.Cut(key, "\x00")
		bc := report.ByTestType[bucket]
		bc.Total++
		report.TotalTests++
		if c.IsAutomated(r.ExecutedBy) {
			bc.Automated++
			report.AutomatedTests++
		} else {
			bc.Manual++
			report.ManualTests++
		}
		report.ByTestType[bucket] = bc
		if r.ExecutedBy != "" {
			report.Executors[r.ExecutedBy]++
		}
	}

	for bucket, bc := range report.ByTestType {
		bc.AutomationRate = model.Percent(bc.Automated, bc.Total)
		report.ByTestType[bucket] = bc
	}
	report.AutomationRate = model.Percent(report.AutomatedTests, report.TotalTests)
	return report
}
