package datastore

import (
	"database/sql"
	"fmt"

	"github.com/roach88/qbridge/internal/ir"
)

// Row is a result row: values in projection order, named by the
// projection labels.
type Row struct {
	Labels []string
	Values []ir.Value
}

// Get returns the value labelled label.
func (r Row) Get(label string) (ir.Value, bool) {
	for i, l := range r.Labels {
		if l == label {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as label -> native Go value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Labels))
	for i, l := range r.Labels {
		m[l] = ir.Native(r.Values[i])
	}
	return m
}

func scanRows(rows *sql.Rows, labels []string) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(cols) != len(labels) {
		return nil, fmt.Errorf("result has %d columns, projection has %d", len(cols), len(labels))
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		values := make([]ir.Value, len(raw))
		for i, v := range raw {
			values[i], err = ir.FromSQL(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", labels[i], err)
			}
		}
		out = append(out, Row{Labels: labels, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}
