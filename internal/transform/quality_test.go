package transform

import (
	"testing"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

func TestBuildReport(t *testing.T) {
	t.Parallel()

	final := frame.New([]string{ColResalePrice, ColPricePerSqm, ColFloorArea})
	final.Rows = append(final.Rows,
		frame.Row{ColResalePrice: int64(300000), ColPricePerSqm: 4000.0, ColFloorArea: 75.0},
		frame.Row{ColResalePrice: int64(500000), ColPricePerSqm: 5000.0, ColFloorArea: 100.0},
	)
	census := map[string]int{ColTown: 1}

	r := BuildReport(4, final, 1, 1, 0, census, testNow)

	if r.OriginalRows != 4 || r.FinalRows != 2 || r.TotalRemoved != 2 {
		t.Fatalf("unexpected row counts: %+v", r)
	}
	if r.DataQualityScore != 50.0 {
		t.Fatalf("expected score 50, got %v", r.DataQualityScore)
	}
	if r.NullCounts[ColTown] != 1 {
		t.Fatalf("null census not carried through: %+v", r.NullCounts)
	}

	pr, ok := r.ValueRanges[ColResalePrice]
	if !ok {
		t.Fatalf("missing resale_price range: %+v", r.ValueRanges)
	}
	if pr.Min != 300000 || pr.Max != 500000 || pr.Mean != 400000 {
		t.Fatalf("unexpected resale_price range: %+v", pr)
	}
	if !r.ProcessedAt.Equal(testNow.UTC()) {
		t.Fatalf("unexpected timestamp: %v", r.ProcessedAt)
	}
}

func TestBuildReport_EmptyFrames(t *testing.T) {
	t.Parallel()

	empty := frame.New([]string{ColResalePrice})

	// Empty input scores zero without dividing by zero.
	r := BuildReport(0, empty, 0, 0, 0, map[string]int{}, testNow)
	if r.DataQualityScore != 0 {
		t.Fatalf("expected score 0 for empty input, got %v", r.DataQualityScore)
	}

	// All rows removed: no value ranges, score still defined.
	r = BuildReport(10, empty, 2, 3, 5, map[string]int{}, testNow)
	if r.DataQualityScore != 0 || r.TotalRemoved != 10 {
		t.Fatalf("unexpected report for fully-filtered run: %+v", r)
	}
	if len(r.ValueRanges) != 0 {
		t.Fatalf("empty final frame must yield empty value_ranges: %+v", r.ValueRanges)
	}
}

func TestBuildReport_ScoreRounding(t *testing.T) {
	t.Parallel()

	final := frame.New([]string{ColResalePrice})
	final.Rows = append(final.Rows, frame.Row{ColResalePrice: int64(500000)})

	r := BuildReport(3, final, 1, 1, 0, map[string]int{}, testNow)
	if r.DataQualityScore != 33.33 {
		t.Fatalf("expected 33.33, got %v", r.DataQualityScore)
	}
}
