package metrics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/sweqa/trx/internal/model"
)

// ReleaseSummary is the release_info entry of one registry release.
type ReleaseSummary struct {
	Name         string   `json:"name" yaml:"name"`
	Date         string   `json:"date" yaml:"date"`
	Components   []string `json:"components" yaml:"components"`
	Requirements []string `json:"requirements" yaml:"requirements"`
	// TeamsInvolved is the sorted set of executors that ran tests in the release
	TeamsInvolved []string       `json:"teams_involved" yaml:"teams_involved"`
	TestExecution *OutcomeCounts `json:"test_execution,omitempty" yaml:"test_execution,omitempty"`
	PassRate      float64        `json:"pass_rate" yaml:"pass_rate"`
}

// Summaries builds release_info for every registry release. Statuses are
// compared case-insensitively here. Releases without an execution document
// carry no test_execution block and a zero pass rate.
func Summaries(releases map[string]model.Release, docs map[string]model.ExecutionDoc) map[string]ReleaseSummary {
	out := make(map[string]ReleaseSummary, len(releases))
	for id, rel := range releases {
		s := ReleaseSummary{
			Name:          rel.Name,
			Date:          rel.Date,
			Components:    nonNil(rel.Components),
			Requirements:  nonNil(rel.Requirements),
			TeamsInvolved: []string{},
		}
		if doc, ok := docs[id]; ok {
			var c OutcomeCounts
			teams := model.NewIDSet()
			for _, bucket := range sortedKeys(doc) {
				for _, r := range doc[bucket] {
					c.add(r.Status, true)
					teams.Add(r.ExecutedBy)
				}
			}
			c.finish()
			s.TestExecution = &c
			s.PassRate = c.PassRate
			s.TeamsInvolved = teams.Sorted()
		}
		out[id] = s
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

var versionPattern = regexp.MustCompile(`v?\d+(\.\d+){0,2}(-[0-9A-Za-z.-]+)?`)

// releaseVersion extracts a semantic version from a release name such as
// "Release 2.1.0" or "v3".
func releaseVersion(name string) (*semver.Version, bool) {
	if v, err := semver.NewVersion(strings.TrimSpace(name)); err == nil {
		return v, true
	}
	m := versionPattern.FindString(name)
	if m == "" {
		return nil, false
	}
	v, err := semver.NewVersion(m)
	if err != nil {
		return nil, false
	}
	return v, true
}

// ReleaseOrder returns release IDs oldest first. When every release name
// carries a semantic version, versions decide; otherwise when every release
// date parses, dates decide; otherwise IDs are compared. Ties fall back to ID.
func ReleaseOrder(releases map[string]model.Release) []string {
	ids := sortedKeys(releases)

	versions := make(map[string]*semver.Version, len(ids))
	dates := make(map[string]time.Time, len(ids))
	allVersions, allDates := len(ids) > 0, len(ids) > 0
	for _, id := range ids {
		if v, ok := releaseVersion(releases[id].Name); ok {
			versions[id] = v
		} else {
			allVersions = false
		}
		if t, err := ParseTimestamp(releases[id].Date); err == nil {
			dates[id] = t
		} else {
			allDates = false
		}
	}

	switch {
	case allVersions:
		sort.SliceStable(ids, func(i, j int) bool {
			return versions[ids[i]].LessThan(versions[ids[j]])
		})
	case allDates:
		sort.SliceStable(ids, func(i, j int) bool {
			return dates[ids[i]].Before(dates[ids[j]])
		})
	}
	return ids
}
