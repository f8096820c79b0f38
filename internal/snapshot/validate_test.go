package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweqa/trx/internal/config"
	"github.com/sweqa/trx/internal/model"
)

func TestValidate(t *testing.T) {
	s := model.NewSnapshot()
	s.Requirements["REQ-1"] = model.Requirement{ID: "REQ-1", Components: []string{"COMP-A", "COMP-X"}, Interfaces: []string{"IF-9"}}
	s.Components["COMP-A"] = json.RawMessage(`{}`)
	s.TestCases[model.KindComponent] = []model.TestCase{
		{ID: "C1", ComponentID: "COMP-Y", LinkedTo: []string{"REQ-1", "REQ-404"}},
	}
	s.Executions["release_1"] = model.ExecutionDoc{
		"component_tests": {{TestID: "C1"}, {TestID: "GHOST"}},
	}
	s.Executions["release_2"] = model.ExecutionDoc{}
	s.Releases["release_1"] = model.Release{ID: "release_1"}

	got := Validate(s)

	assert.Equal(t, []model.Issue{
		{Path: "executions/release_1/component_tests", Kind: model.IssueOrphan, Message: "test GHOST is not declared"},
		{Path: "executions/release_2", Kind: model.IssueOrphan, Message: "release release_2 has no registry entry"},
		{Path: "requirements/REQ-1", Kind: model.IssueDangling, Message: "component COMP-X is not declared"},
		{Path: "requirements/REQ-1", Kind: model.IssueDangling, Message: "interface IF-9 is not declared"},
		{Path: "tests/component/C1", Kind: model.IssueDangling, Message: "component COMP-Y is not declared"},
		{Path: "tests/component/C1", Kind: model.IssueDangling, Message: "requirement REQ-404 is not declared"},
	}, got)
}

func TestValidate_TestInAnotherKindsBucket(t *testing.T) {
	s := model.NewSnapshot()
	s.TestCases[model.KindUnit] = []model.TestCase{{ID: "U1"}}
	s.TestCases[model.KindComponent] = []model.TestCase{{ID: "C1"}}
	s.Executions["release_1"] = model.ExecutionDoc{
		"component tests": {{TestID: "C1"}, {TestID: "U1"}},
		"smoke_tests":     {{TestID: "U1"}},
	}
	s.Releases["release_1"] = model.Release{ID: "release_1"}

	assert.Equal(t, []model.Issue{
		{Path: "executions/release_1/component_tests", Kind: model.IssueOrphan, Message: "test U1 is not declared as a component test"},
	}, Validate(s))
}

func TestValidate_CleanSnapshot(t *testing.T) {
	assert.Empty(t, Validate(model.NewSnapshot()))
}

func TestScaffold(t *testing.T) {
	fs := memfs.New()
	layout := config.DefaultDataConfig()

	created, err := Scaffold(fs, layout)
	require.NoError(t, err)
	assert.Len(t, created, 10)

	s, err := NewLoader(fs, layout, nil).Load()
	require.NoError(t, err)
	assert.Empty(t, s.Issues)

	again, err := Scaffold(fs, layout)
	require.NoError(t, err)
	assert.Empty(t, again)
}
