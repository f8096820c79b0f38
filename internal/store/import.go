package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sweqa/trx/internal/graph"
	"github.com/sweqa/trx/internal/model"
	"github.com/sweqa/trx/internal/normalize"
)

// Link relations for matrix edges that are not tests. Test edges use the
// test kind as their relation.
const (
	RelationComponent = "component"
	RelationInterface = "interface"
)

// Import replaces the index contents with snap and the matrix built from it.
// Execution buckets are stored under their canonical names.
func (s *Store) Import(ctx context.Context, snap *model.Snapshot) (*Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, *model.Snapshot) error
	}{
		{"requirements", importRequirements},
		{"tests", importTests},
		{"links", importLinks},
		{"executions", importExecutions},
		{"releases", importReleases},
		{"test runs", importTestRuns},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, snap); err != nil {
			return nil, fmt.Errorf("import %s: %w", step.name, err)
		}
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ('imported_at', ?)",
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("record import time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.Stats()
}

func importRequirements(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO requirements (id, components, interfaces) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range sortedKeys(snap.Requirements) {
		req := snap.Requirements[id]
		if _, err := stmt.ExecContext(ctx, id, jsonList(req.Components), jsonList(req.Interfaces)); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

func importTests(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO tests (kind, id, component_id, linked_to)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, kind := range model.Kinds {
		for _, tc := range snap.TestCases[kind] {
			if tc.ID == "" {
				continue
			}
			var component interface{}
			if tc.ComponentID != "" {
				component = tc.ComponentID
			}
			if _, err := stmt.ExecContext(ctx, string(kind), tc.ID, component, jsonList(tc.LinkedTo)); err != nil {
				return fmt.Errorf("%s %s: %w", kind, tc.ID, err)
			}
		}
	}
	return nil
}

type linkSet struct {
	relation string
	ids      model.IDSet
}

func importLinks(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO links (requirement_id, relation, target_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	m := graph.Build(snap.Requirements, snap.TestCases)
	for _, id := range m.IDs() {
		e := m[id]
		sets := []linkSet{
			{RelationComponent, e.Components},
			{RelationInterface, e.Interfaces},
		}
		for _, kind := range model.Kinds {
			sets = append(sets, linkSet{string(kind), e.Tests(kind)})
		}
		for _, set := range sets {
			for _, target := range set.ids.Sorted() {
				if _, err := stmt.ExecContext(ctx, id, set.relation, target); err != nil {
					return fmt.Errorf("%s -> %s: %w", id, target, err)
				}
			}
		}
	}
	return nil
}

func importExecutions(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO executions (release_id, bucket, seq, test_id, status, executed_by, defects)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	docs := normalize.DefaultKeyMap().NormalizeAll(snap.Executions)
	for _, release := range sortedKeys(docs) {
		doc := docs[release]
		for _, bucket := range sortedKeys(doc) {
			for seq, rec := range doc[bucket] {
				_, err := stmt.ExecContext(ctx, release, bucket, seq, rec.TestID, rec.Status, rec.ExecutedBy, jsonList(rec.Defects))
				if err != nil {
					return fmt.Errorf("%s/%s: %w", release, bucket, err)
				}
			}
		}
	}
	return nil
}

func importReleases(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO releases (id, name, date, components, requirements)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range sortedKeys(snap.Releases) {
		rel := snap.Releases[id]
		if _, err := stmt.ExecContext(ctx, id, rel.Name, rel.Date, jsonList(rel.Components), jsonList(rel.Requirements)); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

func importTestRuns(ctx context.Context, tx *sql.Tx, snap *model.Snapshot) error {
	runStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO test_runs (key, resolution_date, sw_bundle, leading_team, test_activity)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer runStmt.Close()

	resultStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO run_results (run_key, test_id, status) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer resultStmt.Close()

	for _, run := range snap.TestRuns {
		if run.Key == "" {
			continue
		}
		_, err := runStmt.ExecContext(ctx, run.Key, run.ResolutionDate, run.SWBundle, jsonList(run.LeadingTeam), jsonList(run.TestActivity))
		if err != nil {
			return fmt.Errorf("%s: %w", run.Key, err)
		}
		for _, testID := range sortedKeys(run.TestData) {
			if _, err := resultStmt.ExecContext(ctx, run.Key, testID, run.TestData[testID]); err != nil {
				return fmt.Errorf("%s/%s: %w", run.Key, testID, err)
			}
		}
	}
	return nil
}

// jsonList encodes ids as a JSON array; nil encodes as [].
func jsonList(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
