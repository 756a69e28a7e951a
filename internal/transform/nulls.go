package transform

import (
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// FilterNulls drops rows missing any mandatory field and reports a per-column
// null census taken before dropping. Optional columns (remaining_lease,
// flat_model, ...) may be null without penalty.
func FilterNulls(f frame.Frame) (frame.Frame, int, map[string]int) {
	census := make(map[string]int, len(f.Columns))
	for _, col := range f.Columns {
		census[col] = 0
	}
	for _, row := range f.Rows {
		for _, col := range f.Columns {
			if frame.IsNull(row[col]) {
				census[col]++
			}
		}
	}

	mandatory := MandatoryColumns()
	out := frame.New(f.Columns)
	for _, row := range f.Rows {
		keep := true
		for _, col := range mandatory {
			if frame.IsNull(row[col]) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, len(f.Rows) - len(out.Rows), census
}
