// Package model defines the snapshot entities the traceability engine works on.
// A Snapshot is loaded once per run and treated as read-only afterwards; every
// analyzer receives it (or parts of it) by reference and never mutates it.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TestKind identifies one of the test-case collections.
type TestKind string

const (
	KindUnit          TestKind = "unit"
	KindComponent     TestKind = "component"
	KindInterface     TestKind = "interface"
	KindIntegration   TestKind = "integration"
	KindSWRequirement TestKind = "sw_requirement"
)

// Kinds lists every test kind in the fixed order used for deterministic scans.
var Kinds = []TestKind{KindUnit, KindComponent, KindInterface, KindIntegration, KindSWRequirement}

// String returns the string representation of the kind.
func (k TestKind) String() string {
	return string(k)
}

// Bucket returns the canonical execution-document key holding results for
// tests of this kind.
func (k TestKind) Bucket() string {
	switch k {
	case KindSWRequirement:
		return "software_requirement_based_tests"
	default:
		return string(k) + "_tests"
	}
}

// ParseTestKind parses a kind name (case-insensitive).
func ParseTestKind(s string) (TestKind, error) {
	k := TestKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid test kind: %q (expected unit, component, interface, integration, or sw_requirement)", s)
}

// Execution statuses as produced by the test management tool.
const (
	StatusPass        = "PASS"
	StatusFail        = "FAIL"
	StatusFailed      = "FAILED"
	StatusSkipped     = "SKIPPED"
	StatusErrorInTest = "ERROR_IN_TEST"
	StatusExecuting   = "EXECUTING"
)

// Requirement is a software requirement and its declared design links.
type Requirement struct {
	ID         string   `json:"id"`
	Components []string `json:"components,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
}

// TestCase is a test specification of one kind.
type TestCase struct {
	ID          string   `json:"id"`
	Kind        TestKind `json:"kind"`
	LinkedTo    []string `json:"linked_to,omitempty"`
	ComponentID string   `json:"component_id,omitempty"`
}

// ExecutionRecord is one test result inside a release execution document.
type ExecutionRecord struct {
	TestID     string   `json:"test_id"`
	Status     string   `json:"test_execution_status"`
	ExecutedBy string   `json:"executed_by,omitempty"`
	Defects    []string `json:"defects,omitempty"`
}

// ExecutionDoc holds one release's results keyed by test-type bucket.
// Keys are raw until passed through the normalizer.
type ExecutionDoc map[string][]ExecutionRecord

// Release is an entry of the release registry.
type Release struct {
	ID           string   `json:"release_id"`
	Name         string   `json:"release_name"`
	Date         string   `json:"release_date"`
	Components   []string `json:"components,omitempty"`
	Requirements []string `json:"software_requirements,omitempty"`
}

// TestRun is a test-execution issue exported from the test management tool,
// carrying per-test statuses and the time the execution was resolved.
type TestRun struct {
	Key            string            `json:"key"`
	ResolutionDate string            `json:"resolution_date"`
	TestActivity   []string          `json:"test_activity,omitempty"`
	LeadingTeam    []string          `json:"leading_team,omitempty"`
	SWBundle       string            `json:"sw_bundle,omitempty"`
	TestData       map[string]string `json:"test_data"`
}

// Issue describes a recoverable problem found while loading or validating a snapshot.
type Issue struct {
	Path    string `json:"path" yaml:"path"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Issue kinds.
const (
	IssueMissing   = "missing"
	IssueMalformed = "malformed"
	IssueDangling  = "dangling"
	IssueOrphan    = "orphan"
)

// Snapshot is the full set of source documents for one run.
type Snapshot struct {
	Requirements map[string]Requirement
	Components   map[string]json.RawMessage
	Interfaces   map[string]json.RawMessage
	UnitSpecs    map[string]json.RawMessage
	TestCases    map[TestKind][]TestCase
	Executions   map[string]ExecutionDoc
	Releases     map[string]Release
	TestRuns     []TestRun
	Issues       []Issue
}

// NewSnapshot returns an empty snapshot with every collection initialized.
func NewSnapshot() *Snapshot {
	s := &Snapshot{
		Requirements: make(map[string]Requirement),
		Components:   make(map[string]json.RawMessage),
		Interfaces:   make(map[string]json.RawMessage),
		UnitSpecs:    make(map[string]json.RawMessage),
		TestCases:    make(map[TestKind][]TestCase, len(Kinds)),
		Executions:   make(map[string]ExecutionDoc),
		Releases:     make(map[string]Release),
	}
	for _, k := range Kinds {
		s.TestCases[k] = nil
	}
	return s
}

// TestCount returns the number of test cases across all kinds.
func (s *Snapshot) TestCount() int {
	n := 0
	for _, tests := range s.TestCases {
		n += len(tests)
	}
	return n
}
