package transform

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// sqmToSqft is the square-metre to square-foot conversion factor.
const sqmToSqft = 10.764

// fullLeaseYears is the standard HDB lease term used to estimate
// remaining_lease for vintages that never recorded it.
const fullLeaseYears = 99

// DeriveTimeFields extracts year, month_num (1-12), and quarter (1-4) from
// the typed month column. A null month yields null derived fields.
func DeriveTimeFields(f frame.Frame) frame.Frame {
	out := f.Clone()
	addColumns(&out, ColYear, ColMonthNum, ColQuarter)
	for _, row := range out.Rows {
		m, ok := row[ColMonth].(time.Time)
		if !ok {
			row[ColYear], row[ColMonthNum], row[ColQuarter] = nil, nil, nil
			continue
		}
		row[ColYear] = int64(m.Year())
		row[ColMonthNum] = int64(m.Month())
		row[ColQuarter] = int64((int(m.Month())-1)/3 + 1)
	}
	return out
}

// DerivePriceMetrics computes price_per_sqm, floor_area_sqft, and
// price_per_sqft. Division by a null or zero area yields null, not an error.
func DerivePriceMetrics(f frame.Frame) frame.Frame {
	out := f.Clone()
	addColumns(&out, ColPricePerSqm, ColFloorAreaSqft, ColPricePerSqft)
	for _, row := range out.Rows {
		price, priceOK := asFloat(row[ColResalePrice])
		area, areaOK := asFloat(row[ColFloorArea])

		row[ColPricePerSqm] = nil
		row[ColFloorAreaSqft] = nil
		row[ColPricePerSqft] = nil

		if areaOK {
			sqft := round2(area * sqmToSqft)
			row[ColFloorAreaSqft] = sqft
			if priceOK && area != 0 {
				row[ColPricePerSqm] = round2(price / area)
				if sqft != 0 {
					row[ColPricePerSqft] = round2(price / sqft)
				}
			}
		}
	}
	return out
}

var storeyRangePattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*TO\s*(\d+)\s*$`)

// DerivePropertyCharacteristics parses the storey range, computes lease and
// flat age, and synthesizes remaining_lease for legacy vintages.
//
// The synthesis decision is column-wide: only when no row in the whole frame
// carries a non-null remaining_lease is the column estimated from lease age.
func DerivePropertyCharacteristics(f frame.Frame, now time.Time) frame.Frame {
	out := f.Clone()
	addColumns(&out, ColStoreyLower, ColStoreyUpper, ColStoreyMedian, ColLeaseAge, ColFlatAgeAtSale)

	currentYear := int64(now.Year())
	for _, row := range out.Rows {
		lower, upper, ok := parseStoreyRange(row[ColStoreyRange])
		if ok {
			row[ColStoreyLower] = lower
			row[ColStoreyUpper] = upper
			row[ColStoreyMedian] = round1(float64(lower+upper) / 2)
		} else {
			row[ColStoreyLower], row[ColStoreyUpper], row[ColStoreyMedian] = nil, nil, nil
		}

		lease, leaseOK := asInt(row[ColLeaseCommence])
		if leaseOK {
			row[ColLeaseAge] = currentYear - lease
		} else {
			row[ColLeaseAge] = nil
		}
		if year, yearOK := asInt(row[ColYear]); yearOK && leaseOK {
			row[ColFlatAgeAtSale] = year - lease
		} else {
			row[ColFlatAgeAtSale] = nil
		}
	}

	if !columnHasValues(out, ColRemainingLease) {
		synthesizeRemainingLease(out)
	}
	return out
}

func parseStoreyRange(v any) (int64, int64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, 0, false
	}
	m := storeyRangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lower, okL := asInt(coerceInt(m[1]))
	upper, okU := asInt(coerceInt(m[2]))
	if !okL || !okU {
		return 0, 0, false
	}
	return lower, upper, true
}

// columnHasValues reports whether any row carries a non-null value in the
// column. Evaluated once up front so the legacy-dataset branch is a single
// frame-level decision.
func columnHasValues(f frame.Frame, col string) bool {
	for _, row := range f.Rows {
		if !frame.IsNull(row[col]) {
			return true
		}
	}
	return false
}

func synthesizeRemainingLease(f frame.Frame) {
	for _, row := range f.Rows {
		age, ok := asInt(row[ColLeaseAge])
		if !ok {
			row[ColRemainingLease] = nil
			continue
		}
		est := fullLeaseYears - age
		if est > 0 {
			row[ColRemainingLease] = fmt.Sprintf("%d years", est)
		} else {
			row[ColRemainingLease] = nil
		}
	}
}

func addColumns(f *frame.Frame, cols ...string) {
	for _, col := range cols {
		if !f.HasColumn(col) {
			f.Columns = append(f.Columns, col)
		}
	}
}
