package transform

import (
	"strings"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Dedupe removes exact-duplicate rows, keeping the first occurrence in
// original order. Two rows are duplicates when every column value is equal;
// null equals null for this purpose.
func Dedupe(f frame.Frame) (frame.Frame, int) {
	out := frame.New(f.Columns)
	seen := make(map[string]struct{}, len(f.Rows))

	for _, row := range f.Rows {
		key := rowKey(f.Columns, row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, len(f.Rows) - len(out.Rows)
}

// rowKey builds a comparison key over all columns. The unit separator keeps
// adjacent cells from colliding.
func rowKey(columns []string, row frame.Row) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(frame.FormatCell(row[col]))
	}
	return b.String()
}
