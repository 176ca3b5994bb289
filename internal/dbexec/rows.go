package dbexec

import (
	"database/sql"
	"fmt"
	"time"
)

// Rows is a fully materialized result set, Data is in result order and each
// row has one value per column.
type Rows struct {
	Columns []string
	Data    [][]any
}

func (r Rows) Len() int {
	return len(r.Data)
}

func (r Rows) column(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the value of column `name` in row `i`.
func (r Rows) Value(i int, name string) (any, bool) {
	col := r.column(name)
	if col < 0 || i < 0 || i >= len(r.Data) {
		return nil, false
	}
	return r.Data[i][col], true
}

// String formats the value of column `name` in row `i`, NULL and missing
// columns render as "".
func (r Rows) String(i int, name string) string {
	v, _ := r.Value(i, name)
	return formatCell(v)
}

// Strings returns the formatted values of column `name` across every row.
func (r Rows) Strings(name string) []string {
	out := make([]string, len(r.Data))
	for i := range r.Data {
		out[i] = r.String(i, name)
	}
	return out
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}

// ExecResult is the raw outcome of a write statement.
type ExecResult struct {
	RowsAffected int64 `json:"rows_affected"`
	LastInsertID int64 `json:"last_insert_id"`
}

func scanRows(rows *sql.Rows) (Rows, error) {
	columns, err := rows.Columns()
	if err != nil {
		return Rows{}, err
	}

	out := Rows{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		err = rows.Scan(ptrs...)
		if err != nil {
			return Rows{}, err
		}
		for i, v := range values {
			// drivers reuse byte buffers between rows
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out.Data = append(out.Data, values)
	}
	return out, rows.Err()
}

func toExecResult(res sql.Result) (ExecResult, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return ExecResult{}, err
	}
	// not every driver supports it
	lastID, _ := res.LastInsertId()
	return ExecResult{RowsAffected: affected, LastInsertID: lastID}, nil
}
