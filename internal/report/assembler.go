package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/sweqa/trx/internal/coverage"
	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/logging"
	"github.com/sweqa/trx/internal/metrics"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/normalize"
)

// Assembler builds reports from snapshots.
type Assembler struct {
	// Now stamps generated_on.
	Now func() time.Time
	// Workers bounds the analyzer pool; values below 1 mean one worker.
	Workers int
	// TimestampLayout formats generated_on.
	TimestampLayout string

	Classifier metrics.Classifier
	KeyMap     normalize.KeyMap
	Policy     metrics.LinkagePolicy
	Logger     *slog.Logger
}

// NewAssembler returns an Assembler with the default key map, linkage
// policy and timestamp layout.
func NewAssembler(workers int, markers []string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assembler{
		Now:             time.Now,
		Workers:         workers,
		TimestampLayout: DefaultTimestampLayout,
		Classifier:      metrics.NewClassifier(markers...),
		KeyMap:          normalize.DefaultKeyMap(),
		Policy:          metrics.DefaultLinkagePolicy(),
		Logger:          logger,
	}
}

// prepared is the read-only data every analyzer shares.
type prepared struct {
	docs   map[string]model.ExecutionDoc
	matrix graph.Matrix
	index  *graph.TestIndex
}

// prepare normalizes execution documents and builds the matrix and index.
func (a *Assembler) prepare(s *model.Snapshot) prepared {
	p := prepared{
		docs:   a.KeyMap.NormalizeAll(s.Executions),
		matrix: graph.Build(s.Requirements, s.TestCases),
		index:  graph.NewTestIndex(s.TestCases),
	}

	indexed := make([]string, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		indexed = append(indexed, fmt.Sprintf("%s=%d", k, p.index.Len(k)))
	}
	a.Logger.Debug("snapshot prepared",
		"requirements", len(p.matrix),
		"releases", len(p.docs),
		"tests", strings.Join(indexed, " "),
		"linkage_policy", strings.Join(a.Policy.Names(), ","))
	return p
}

// Matrix returns only the traceability matrix of s.
func (a *Assembler) Matrix(s *model.Snapshot) graph.Matrix {
	return graph.Build(s.Requirements, s.TestCases)
}

// Assemble computes every section of the report. Analyzers run concurrently;
// if ctx is cancelled the whole batch is abandoned and ctx's error returned.
func (a *Assembler) Assemble(ctx context.Context, s *model.Snapshot) (*Report, error) {
	p := a.prepare(s)
	r := &Report{
		TraceabilityMatrix: p.matrix,
		Issues:             s.Issues,
	}

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	wp := pool.New().WithContext(ctx).WithMaxGoroutines(workers).WithCancelOnError()

	// Each task writes a distinct field of r.
	task := func(name string, fn func()) {
		wp.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			fn()
			a.Logger.Debug("analyzer finished", "analyzer", name, "elapsed", time.Since(start))
			return nil
		})
	}

	task("coverage", func() {
		r.Coverage = coverage.Calculate(p.matrix, len(s.Requirements), len(s.Components), s.TestCases)
	})
	task("coverage_gaps", func() {
		r.CoverageGaps = coverage.FindGaps(p.matrix, s.Requirements, s.Components, s.TestCases)
	})
	task("pass_rates", func() {
		r.PassRates = metrics.PassRatesByRelease(p.docs)
	})
	task("defect_metrics", func() {
		r.DefectMetrics = metrics.NewAttributor(p.index, s.Requirements, a.Policy).Metrics(p.docs)
	})
	task("automation_status", func() {
		r.AutomationStatus = a.Classifier.Automation(p.docs, s.Releases)
	})
	task("release_info", func() {
		r.ReleaseInfo = metrics.Summaries(s.Releases, p.docs)
		r.ReleaseOrder = metrics.ReleaseOrder(s.Releases)
	})
	if len(s.TestRuns) > 0 {
		task("test_runs", func() {
			tr := metrics.TestRuns(s.TestRuns, p.matrix)
			for _, msg := range tr.Excluded {
				a.Logger.Warn("test run excluded from latest-result selection", "reason", msg)
			}
			r.TestRuns = &tr
		})
	}

	if err := wp.Wait(); err != nil {
		return nil, fmt.Errorf("assembling report: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembling report: %w", err)
	}

	layout := a.TimestampLayout
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	r.GeneratedOn = now().Format(layout)
	return r, nil
}
