package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotReadOnly is returned by Query for statements that could modify the index.
var ErrNotReadOnly = errors.New("only SELECT, WITH, and EXPLAIN statements are allowed")

// QueryResult is the output of a SQL query.
type QueryResult struct {
	Columns []string                 `yaml:"columns" json:"columns"`
	Rows    []map[string]interface{} `yaml:"rows" json:"rows"`
	Count   int                      `yaml:"count" json:"count"`
}

// Query runs a read-only statement against the index. The statement runs on
// a connection with query_only set, so writes hidden inside a WITH clause
// fail as well.
func (s *Store) Query(ctx context.Context, query string) (*QueryResult, error) {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty query")
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "EXPLAIN":
	default:
		return nil, ErrNotReadOnly
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("set query_only: %w", err)
	}
	defer conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]interface{}, 0),
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.Count = len(result.Rows)
	return result, nil
}
