// Package snapshot loads the source documents of one traceability run from a
// data directory and checks them for broken references.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/tidwall/gjson"

	"github.com/sweqa/trx/internal/config"
	"github.com/sweqa/trx/internal/logging"
	"github.com/sweqa/trx/internal/model"
)

// ErrNotDirectory is returned when the data root is missing or not a directory.
var ErrNotDirectory = errors.New("data root is not a directory")

// Document names inside the layout directories.
const (
	RequirementsFile = "SW_requirements_metadata.json"
	ComponentsFile   = "component_metadata.json"
	InterfacesFile   = "Interfaces_metadata.json"
	UnitSpecsFile    = "Unit_spec_meta_data.json"
	ReleaseInfoFile  = "release_info.json"
)

type testCaseFile struct {
	kind model.TestKind
	file string
	key  string
}

var testCaseFiles = []testCaseFile{
	{model.KindUnit, "unit_tests.json", "unit_tests"},
	{model.KindComponent, "component_tests.json", "component_tests"},
	{model.KindInterface, "interface_tests.json", "interface_tests"},
	{model.KindIntegration, "integration_tests.json", "integration_tests"},
	{model.KindSWRequirement, "sw_requirements_tests.json", "rq_based_tests"},
}

// OpenDir returns an OS filesystem rooted at dir.
func OpenDir(dir string) (billy.Filesystem, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDirectory, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	return osfs.New(dir), nil
}

// Loader reads a snapshot from the root of FS. Layout names the
// sub-directories; its Dir field is not consulted.
type Loader struct {
	FS     billy.Filesystem
	Layout config.DataConfig
	Logger *slog.Logger
}

// NewLoader returns a Loader. A nil logger discards output.
func NewLoader(fs billy.Filesystem, layout config.DataConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{FS: fs, Layout: layout, Logger: logger}
}

// Load reads every document. Missing or malformed documents leave their
// collection empty and are recorded as issues on the snapshot; Load only
// fails when the release pattern is unusable.
func (l *Loader) Load() (*model.Snapshot, error) {
	if !doublestar.ValidatePattern(l.Layout.ReleasePattern) {
		return nil, fmt.Errorf("release pattern %q: %w", l.Layout.ReleasePattern, doublestar.ErrBadPattern)
	}

	s := model.NewSnapshot()
	l.loadRequirements(s)
	s.Components = l.loadOpaque(s, path.Join(l.Layout.Requirements, ComponentsFile))
	s.Interfaces = l.loadOpaque(s, path.Join(l.Layout.Requirements, InterfacesFile))
	s.UnitSpecs = l.loadOpaque(s, path.Join(l.Layout.Requirements, UnitSpecsFile))
	for _, f := range testCaseFiles {
		s.TestCases[f.kind] = l.loadTestCases(s, f)
	}
	l.loadExecutions(s)
	l.loadReleases(s)
	l.loadTestRuns(s)

	l.Logger.Info("snapshot loaded",
		"requirements", len(s.Requirements),
		"tests", s.TestCount(),
		"releases", len(s.Releases),
		"executions", len(s.Executions),
		"issues", len(s.Issues))
	return s, nil
}

func (l *Loader) issue(s *model.Snapshot, p, kind, msg string) {
	s.Issues = append(s.Issues, model.Issue{Path: p, Kind: kind, Message: msg})
	l.Logger.Warn("snapshot document unusable", "path", p, "kind", kind, "reason", msg)
}

// readJSON returns the parsed document at p, or false after recording why
// it could not be used.
func (l *Loader) readJSON(s *model.Snapshot, p string) (gjson.Result, bool) {
	data, err := util.ReadFile(l.FS, p)
	if err != nil {
		if os.IsNotExist(err) {
			l.issue(s, p, model.IssueMissing, "document not found")
		} else {
			l.issue(s, p, model.IssueMalformed, err.Error())
		}
		return gjson.Result{}, false
	}
	if !gjson.ValidBytes(data) {
		l.issue(s, p, model.IssueMalformed, "invalid JSON")
		return gjson.Result{}, false
	}
	return gjson.ParseBytes(data), true
}

func (l *Loader) readObject(s *model.Snapshot, p string) (gjson.Result, bool) {
	doc, ok := l.readJSON(s, p)
	if !ok {
		return doc, false
	}
	if !doc.IsObject() {
		l.issue(s, p, model.IssueMalformed, "expected a JSON object")
		return doc, false
	}
	return doc, true
}

func (l *Loader) loadRequirements(s *model.Snapshot) {
	p := path.Join(l.Layout.Requirements, RequirementsFile)
	doc, ok := l.readObject(s, p)
	if !ok {
		return
	}
	doc.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		s.Requirements[id] = model.Requirement{
			ID:         id,
			Components: stringList(value.Get("components")),
			Interfaces: stringList(value.Get("interfaces")),
		}
		return true
	})
}

func (l *Loader) loadOpaque(s *model.Snapshot, p string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	doc, ok := l.readObject(s, p)
	if !ok {
		return out
	}
	doc.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	return out
}

func (l *Loader) loadTestCases(s *model.Snapshot, f testCaseFile) []model.TestCase {
	p := path.Join(l.Layout.TestCases, f.file)
	doc, ok := l.readObject(s, p)
	if !ok {
		return nil
	}
	records := doc.Get(gjson.Escape(f.key))
	if !records.Exists() {
		return nil
	}
	if !records.IsArray() {
		l.issue(s, p, model.IssueMalformed, fmt.Sprintf("%s is not an array", f.key))
		return nil
	}

	var tests []model.TestCase
	skipped := 0
	for _, r := range records.Array() {
		id := r.Get("id").String()
		if id == "" {
			skipped++
			continue
		}
		tests = append(tests, model.TestCase{
			ID:          id,
			Kind:        f.kind,
			LinkedTo:    stringList(r.Get("linked_to")),
			ComponentID: r.Get("component_id").String(),
		})
	}
	if skipped > 0 {
		l.issue(s, p, model.IssueMalformed, fmt.Sprintf("%d test records without id skipped", skipped))
	}
	return tests
}

func (l *Loader) loadExecutions(s *model.Snapshot) {
	dir := l.Layout.Executions
	entries, err := l.FS.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.issue(s, dir, model.IssueMissing, "execution directory not found")
		} else {
			l.issue(s, dir, model.IssueMalformed, err.Error())
		}
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match(l.Layout.ReleasePattern, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		p := path.Join(dir, name)
		doc, ok := l.readObject(s, p)
		if !ok {
			continue
		}
		s.Executions[ReleaseID(name)] = l.parseExecutionDoc(s, p, doc)
	}
}

// ReleaseID derives a release identifier from an execution file name.
func ReleaseID(fileName string) string {
	return strings.TrimSuffix(fileName, path.Ext(fileName))
}

// parseExecutionDoc reads the buckets of one release document. Buckets that
// are not arrays and records that are not objects are skipped and reported.
func (l *Loader) parseExecutionDoc(s *model.Snapshot, p string, doc gjson.Result) model.ExecutionDoc {
	out := make(model.ExecutionDoc)
	doc.ForEach(func(key, value gjson.Result) bool {
		bucket := key.String()
		if !value.IsArray() {
			l.issue(s, p, model.IssueMalformed, fmt.Sprintf("bucket %q is not an array", bucket))
			return true
		}
		records := []model.ExecutionRecord{}
		skipped := 0
		for _, r := range value.Array() {
			if !r.IsObject() {
				skipped++
				continue
			}
			records = append(records, model.ExecutionRecord{
				TestID:     r.Get("test_id").String(),
				Status:     r.Get("test_execution_status").String(),
				ExecutedBy: r.Get("executed_by").String(),
				Defects:    stringList(r.Get("defects")),
			})
		}
		if skipped > 0 {
			l.issue(s, p, model.IssueMalformed, fmt.Sprintf("%d non-object records in bucket %q skipped", skipped, bucket))
		}
		out[bucket] = records
		return true
	})
	return out
}

func (l *Loader) loadReleases(s *model.Snapshot) {
	p := path.Join(l.Layout.Releases, ReleaseInfoFile)
	doc, ok := l.readObject(s, p)
	if !ok {
		return
	}
	skipped := 0
	for _, r := range doc.Get("releases").Array() {
		id := r.Get("release_id").String()
		if id == "" {
			skipped++
			continue
		}
		s.Releases[id] = model.Release{
			ID:           id,
			Name:         r.Get("release_name").String(),
			Date:         r.Get("release_date").String(),
			Components:   stringList(r.Get("components")),
			Requirements: stringList(r.Get("software_requirements")),
		}
	}
	if skipped > 0 {
		l.issue(s, p, model.IssueMalformed, fmt.Sprintf("%d releases without release_id skipped", skipped))
	}
}

// Field spellings seen in test-execution exports.
var (
	leadingTeamKeys  = []string{"leading_team", "Leading-Team", "Team"}
	testActivityKeys = []string{"test_activity", "Test Activity", "Type of test activity"}
	swBundleKeys     = []string{"sw_bundle", "SW Bundle", "SW ID"}
)

// loadTestRuns reads the optional test-run export, an object keyed by
// test-execution key. Its absence is not an issue.
func (l *Loader) loadTestRuns(s *model.Snapshot) {
	p := l.Layout.TestRunsFile
	if p == "" {
		return
	}
	if _, err := l.FS.Stat(p); err != nil {
		l.Logger.Debug("no test-run export", "path", p)
		return
	}
	doc, ok := l.readObject(s, p)
	if !ok {
		return
	}
	doc.ForEach(func(key, value gjson.Result) bool {
		run := model.TestRun{
			Key:            key.String(),
			ResolutionDate: value.Get("resolution_date").String(),
			LeadingTeam:    stringList(firstOf(value, leadingTeamKeys)),
			TestActivity:   stringList(firstOf(value, testActivityKeys)),
			SWBundle:       strings.Join(stringList(firstOf(value, swBundleKeys)), ", "),
			TestData:       make(map[string]string),
		}
		value.Get("test_data").ForEach(func(id, status gjson.Result) bool {
			run.TestData[id.String()] = status.String()
			return true
		})
		s.TestRuns = append(s.TestRuns, run)
		return true
	})
}

func firstOf(v gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := v.Get(gjson.Escape(k)); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// stringList accepts an array of strings or a single string.
func stringList(r gjson.Result) []string {
	if r.IsArray() {
		var out []string
		for _, v := range r.Array() {
			if s := v.String(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if r.Type == gjson.String && r.Str != "" {
		return []string{r.Str}
	}
	return nil
}
