// Package transform implements the stage chain that turns a raw resale
// snapshot into an analysis-ready table, plus the quality report describing
// what each stage removed.
//
// Stages are stateless value transformations: each takes a frame and returns
// a new one. Rows are only ever removed by the dedup, null-filter, and
// validation stages; the column set otherwise strictly grows.
package transform

import (
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Column names of the standardized input schema.
const (
	ColID             = "id"
	ColMonth          = "month"
	ColTown           = "town"
	ColFlatType       = "flat_type"
	ColBlock          = "block"
	ColStreetName     = "street_name"
	ColStoreyRange    = "storey_range"
	ColFloorArea      = "floor_area_sqm"
	ColFlatModel      = "flat_model"
	ColLeaseCommence  = "lease_commence_date"
	ColResalePrice    = "resale_price"
	ColRemainingLease = "remaining_lease"
)

// Derived column names.
const (
	ColYear           = "year"
	ColMonthNum       = "month_num"
	ColQuarter        = "quarter"
	ColPricePerSqm    = "price_per_sqm"
	ColFloorAreaSqft  = "floor_area_sqft"
	ColPricePerSqft   = "price_per_sqft"
	ColStoreyLower    = "storey_lower"
	ColStoreyUpper    = "storey_upper"
	ColStoreyMedian   = "storey_median"
	ColLeaseAge       = "lease_age"
	ColFlatAgeAtSale  = "flat_age_at_sale"
	ColRegion         = "region"
	ColEstateMaturity = "estate_maturity"
)

// TargetColumns is the fixed schema every dataset is normalized to before
// type coercion. Older vintages lack some of these (notably remaining_lease
// and id).
func TargetColumns() []string {
	return []string{
		ColID, ColMonth, ColTown, ColFlatType, ColBlock, ColStreetName,
		ColStoreyRange, ColFloorArea, ColFlatModel, ColLeaseCommence,
		ColResalePrice, ColRemainingLease,
	}
}

// MandatoryColumns are the fields a row cannot be analyzed without.
func MandatoryColumns() []string {
	return []string{ColResalePrice, ColTown, ColFlatType, ColFloorArea, ColMonth}
}

// NormalizeSchema appends any missing target column with all-null values.
// Existing columns and values are untouched; nothing is ever removed here.
func NormalizeSchema(f frame.Frame) frame.Frame {
	out := f.Clone()
	for _, col := range TargetColumns() {
		if out.HasColumn(col) {
			continue
		}
		out.Columns = append(out.Columns, col)
		for _, row := range out.Rows {
			row[col] = nil
		}
	}
	return out
}
