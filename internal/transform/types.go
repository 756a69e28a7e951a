package transform

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// monthLayouts are accepted textual forms of the month column, most common
// first. Upstream serves "YYYY-MM".
var monthLayouts = []string{"2006-01", "2006-01-02", "Jan-2006"}

// CoerceTypes converts the textual columns to their semantic types, column by
// column. Unparseable values become null; no row is dropped here.
//
// month → time.Time, resale_price → int64, floor_area_sqm → float64,
// lease_commence_date → int64.
func CoerceTypes(f frame.Frame) frame.Frame {
	out := f.Clone()
	for _, row := range out.Rows {
		row[ColMonth] = coerceMonth(row[ColMonth])
		row[ColResalePrice] = coerceInt(row[ColResalePrice])
		row[ColFloorArea] = coerceFloat(row[ColFloorArea])
		row[ColLeaseCommence] = coerceInt(row[ColLeaseCommence])
	}
	return out
}

func coerceMonth(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range monthLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
		return nil
	default:
		return nil
	}
}

// coerceInt parses a value as a number and rounds to the nearest integer.
// Integers stay nullable: a failed parse is nil, not zero.
func coerceInt(v any) any {
	switch t := v.(type) {
	case int64:
		return t
	case float64:
		return int64(math.Round(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return int64(math.Round(parsed))
	default:
		return nil
	}
}

func coerceFloat(v any) any {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

// asFloat extracts a numeric cell as float64.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// asInt extracts a numeric cell as int64.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		return int64(math.Round(t)), true
	default:
		return 0, false
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
