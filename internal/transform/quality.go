package transform

import (
	"time"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// ValueRange summarizes a numeric column over the final frame.
type ValueRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Report is the per-run data quality record written alongside the cleaned
// dataset. Immutable after creation.
type Report struct {
	OriginalRows      int                   `json:"original_rows"`
	FinalRows         int                   `json:"final_rows"`
	TotalRemoved      int                   `json:"total_removed"`
	DuplicatesRemoved int                   `json:"duplicates_removed"`
	NullsRemoved      int                   `json:"nulls_removed"`
	InvalidRemoved    int                   `json:"invalid_removed"`
	DataQualityScore  float64               `json:"data_quality_score"`
	NullCounts        map[string]int        `json:"null_counts"`
	ValueRanges       map[string]ValueRange `json:"value_ranges"`
	ProcessedAt       time.Time             `json:"processed_at"`
}

// rangeColumns are the numeric columns summarized in value_ranges.
var rangeColumns = []string{ColResalePrice, ColPricePerSqm, ColFloorArea}

// BuildReport aggregates the run's before/after statistics.
//
// data_quality_score is the percentage of original rows that survived, to two
// decimals; an empty original frame scores 0. An empty final frame produces
// an empty value_ranges map rather than an arithmetic error.
func BuildReport(originalRows int, final frame.Frame, dupCount, nullDropCount, invalidCount int, nullCensus map[string]int, now time.Time) Report {
	score := 0.0
	if originalRows > 0 {
		score = round2(float64(len(final.Rows)) / float64(originalRows) * 100)
	}

	ranges := make(map[string]ValueRange, len(rangeColumns))
	for _, col := range rangeColumns {
		if r, ok := columnRange(final, col); ok {
			ranges[col] = r
		}
	}

	return Report{
		OriginalRows:      originalRows,
		FinalRows:         len(final.Rows),
		TotalRemoved:      originalRows - len(final.Rows),
		DuplicatesRemoved: dupCount,
		NullsRemoved:      nullDropCount,
		InvalidRemoved:    invalidCount,
		DataQualityScore:  score,
		NullCounts:        nullCensus,
		ValueRanges:       ranges,
		ProcessedAt:       now.UTC(),
	}
}

func columnRange(f frame.Frame, col string) (ValueRange, bool) {
	var (
		count    int
		min, max float64
		sum      float64
	)
	for _, row := range f.Rows {
		v, ok := asFloat(row[col])
		if !ok {
			continue
		}
		if count == 0 {
			min, max = v, v
		} else {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		sum += v
		count++
	}
	if count == 0 {
		return ValueRange{}, false
	}
	return ValueRange{Min: min, Max: max, Mean: round2(sum / float64(count))}, true
}
