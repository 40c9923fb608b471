// Package table holds tabular API results with their column order intact and
// renders them as fixed-width text for prompts.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is an immutable set of rows over ordered columns. A cell is nil
// (missing), float64, string, bool, or a decoded JSON composite.
type Table struct {
	columns []string
	rows    [][]any
}

// DataShapeError reports columns that were requested but are not present
type DataShapeError struct {
	Missing   []string
	Available []string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("missing columns %v (available: %s)", e.Missing, strings.Join(e.Available, ", "))
}

// New builds a table. Each row must have one cell per column.
func New(columns []string, rows [][]any) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return &Table{
		columns: append([]string(nil), columns...),
		rows:    rows,
	}, nil
}

// FromJSON decodes a JSON array of objects. Columns follow the key order of
// the first record. Keys first seen in later records are appended, and
// records lacking a key get a nil cell.
func FromJSON(data []byte) (*Table, error) {
	var records []*orderedmap.OrderedMap[string, any]
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	t := &Table{}
	index := make(map[string]int)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := index[pair.Key]; !ok {
				index[pair.Key] = len(t.columns)
				t.columns = append(t.columns, pair.Key)
			}
		}
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := make([]any, len(t.columns))
		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			row[index[pair.Key]] = pair.Value
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Has reports whether the column exists
func (t *Table) Has(column string) bool {
	return t.indexOf(column) >= 0
}

func (t *Table) indexOf(column string) int {
	for i, c := range t.columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i of column. ok is false when the column
// does not exist or i is out of range.
func (t *Table) Cell(i int, column string) (any, bool) {
	j := t.indexOf(column)
	if j < 0 || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][j], true
}

// Float returns the numeric value at row i of column
func (t *Table) Float(i int, column string) (float64, bool) {
	v, ok := t.Cell(i, column)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// Text returns the value at row i of column formatted as text
func (t *Table) Text(i int, column string) string {
	v, ok := t.Cell(i, column)
	if !ok || v == nil {
		return ""
	}
	return formatCell(v, false)
}

// Select returns a table with only the given columns, in the given order
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	var missing []string
	for k, c := range columns {
		idx[k] = t.indexOf(c)
		if idx[k] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &DataShapeError{Missing: missing, Available: t.Columns()}
	}

	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return &Table{columns: append([]string(nil), columns...), rows: rows}, nil
}

// DropNA returns a table without the rows that have any missing cell
func (t *Table) DropNA() *Table {
	out := &Table{columns: t.Columns()}
	for _, r := range t.rows {
		keep := true
		for _, v := range r {
			if isMissing(v) {
				keep = false
				break
			}
		}
		if keep {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Records returns the rows as maps, for JSON output
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		m := make(map[string]any, len(t.columns))
		for j, c := range t.columns {
			m[c] = r[j]
		}
		out[i] = m
	}
	return out
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// String renders the table as fixed-width text without an index column.
// Every column is right-aligned to its widest cell, measured in terminal
// cells so wide runes line up, and columns are separated by two spaces. Missing cells print as NaN in numeric columns and None
// elsewhere.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Empty table"
	}

	cells := make([][]string, len(t.rows)+1)
	cells[0] = t.Columns()
	for i := range t.rows {
		cells[i+1] = make([]string, len(t.columns))
	}

	widths := make([]int, len(t.columns))
	for j, c := range t.columns {
		numeric := t.numericColumn(j)
		integral := numeric && t.integralColumn(j)
		widths[j] = runewidth.StringWidth(c)
		for i, r := range t.rows {
			var s string
			switch {
			case isMissing(r[j]) && numeric:
				s = "NaN"
			case isMissing(r[j]):
				s = "None"
			default:
				s = formatCell(r[j], integral)
			}
			cells[i+1][j] = s
			if n := runewidth.StringWidth(s); n > widths[j] {
				widths[j] = n
			}
		}
	}

	var sb strings.Builder
	for i, line := range cells {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, s := range line {
			if j > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(runewidth.FillLeft(s, widths[j]))
		}
	}
	return sb.String()
}

func (t *Table) numericColumn(j int) bool {
	seen := false
	for _, r := range t.rows {
		if isMissing(r[j]) {
			continue
		}
		if _, ok := r[j].(float64); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func (t *Table) integralColumn(j int) bool {
	for _, r := range t.rows {
		f, ok := r[j].(float64)
		if !ok {
			continue
		}
		if f != math.Trunc(f) || math.Abs(f) >= 1e15 {
			return false
		}
	}
	return true
}

func formatCell(v any, integral bool) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if integral {
			return strconv.FormatFloat(x, 'f', 0, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
