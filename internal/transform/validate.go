package transform

import (
	"strings"
	"time"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Validate drops rows violating the business rules and reports the count.
//
// A row is kept only when every rule holds; a rule whose inputs are null
// fails. The price-per-sqm sanity check is computed fresh from price and area
// rather than reusing the rounded derived column.
func Validate(f frame.Frame, rules config.Rules, now time.Time) (frame.Frame, int) {
	currentYear := int64(now.Year())
	out := frame.New(f.Columns)
	for _, row := range f.Rows {
		if rowValid(row, rules, currentYear) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, len(f.Rows) - len(out.Rows)
}

func rowValid(row frame.Row, rules config.Rules, currentYear int64) bool {
	price, ok := asFloat(row[ColResalePrice])
	if !ok || price < rules.MinResalePrice || price > rules.MaxResalePrice {
		return false
	}

	area, ok := asFloat(row[ColFloorArea])
	if !ok || area < rules.MinFloorArea || area > rules.MaxFloorArea {
		return false
	}

	if area == 0 {
		return false
	}
	perSqm := price / area
	if perSqm < rules.MinPricePerSqm || perSqm > rules.MaxPricePerSqm {
		return false
	}

	lease, ok := asInt(row[ColLeaseCommence])
	if !ok || lease < int64(rules.MinLeaseYear) || lease > currentYear {
		return false
	}

	storey, ok := row[ColStoreyRange].(string)
	if !ok || !strings.Contains(strings.ToUpper(storey), "TO") {
		return false
	}
	return true
}
