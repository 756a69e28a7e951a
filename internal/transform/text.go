package transform

import (
	"strings"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// textColumns are normalized for consistent filtering and grouping.
var textColumns = []string{
	ColTown, ColFlatType, ColStreetName, ColFlatModel, ColRegion, ColEstateMaturity,
}

// NormalizeText trims and uppercases the standard text columns, skipping any
// column absent from the frame. Null values pass through unchanged.
func NormalizeText(f frame.Frame) frame.Frame {
	out := f.Clone()
	for _, col := range textColumns {
		if !out.HasColumn(col) {
			continue
		}
		for _, row := range out.Rows {
			if s, ok := row[col].(string); ok {
				row[col] = strings.ToUpper(strings.TrimSpace(s))
			}
		}
	}
	return out
}
