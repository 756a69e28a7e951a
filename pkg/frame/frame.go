// Package frame provides the in-memory tabular representation shared by the
// extraction and transformation layers.
//
// A Frame is an ordered set of columns plus an ordered slice of rows. Cell
// values are one of: nil (null), string, int64, float64, or time.Time. Stages
// that reshape a frame return a new value; a frame handed to a stage is never
// mutated after the call returns.
package frame

import (
	"sort"
	"strconv"
	"time"
)

// Row maps column name to a cell value.
type Row map[string]any

// Frame is an ordered tabular dataset.
type Frame struct {
	Columns []string
	Rows    []Row
}

// New constructs an empty frame with the given column order.
func New(columns []string) Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Frame{Columns: cols}
}

// FromRecords builds a frame from raw API records. Column order is taken from
// the first record's keys (sorted for determinism); columns appearing only in
// later records are appended in first-seen order.
func FromRecords(records []map[string]any) Frame {
	if len(records) == 0 {
		return Frame{}
	}

	first := make([]string, 0, len(records[0]))
	for k := range records[0] {
		first = append(first, k)
	}
	sort.Strings(first)

	seen := make(map[string]bool, len(first))
	cols := make([]string, 0, len(first))
	for _, c := range first {
		seen[c] = true
		cols = append(cols, c)
	}
	for _, rec := range records[1:] {
		extra := make([]string, 0)
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		cols = append(cols, extra...)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(cols))
		for _, c := range cols {
			v, ok := rec[c]
			if !ok || v == nil {
				row[c] = nil
				continue
			}
			row[c] = normalizeRecordValue(v)
		}
		rows = append(rows, row)
	}
	return Frame{Columns: cols, Rows: rows}
}

// normalizeRecordValue collapses json.Unmarshal output types into cell values.
func normalizeRecordValue(v any) any {
	switch t := v.(type) {
	case string, int64, float64, time.Time, nil:
		return t
	case int:
		return int64(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return t
	}
}

// HasColumn reports whether the frame declares the column.
func (f Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := Frame{
		Columns: make([]string, len(f.Columns)),
		Rows:    make([]Row, len(f.Rows)),
	}
	copy(out.Columns, f.Columns)
	for i, row := range f.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// IsNull reports whether a cell value counts as null.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// FormatCell renders a cell value in its canonical textual form. This is the
// single formatting used for CSV output, dedup keys, and fingerprints, so
// identical logical values always serialize identically.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format("2006-01")
	default:
		return ""
	}
}
