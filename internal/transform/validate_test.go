package transform

import (
	"testing"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/pkg/frame"
)

func validRow() frame.Row {
	return frame.Row{
		ColResalePrice:   int64(500000),
		ColFloorArea:     93.0,
		ColLeaseCommence: int64(1976),
		ColStoreyRange:   "01 TO 03",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	rules := config.Default().Rules

	cases := []struct {
		name   string
		mutate func(frame.Row)
		keep   bool
	}{
		{"valid", func(frame.Row) {}, true},
		{"price below floor", func(r frame.Row) { r[ColResalePrice] = int64(40000) }, false},
		{"price above ceiling", func(r frame.Row) { r[ColResalePrice] = int64(3000000) }, false},
		{"price null", func(r frame.Row) { r[ColResalePrice] = nil }, false},
		{"area too small", func(r frame.Row) { r[ColFloorArea] = 10.0 }, false},
		{"area too large", func(r frame.Row) { r[ColFloorArea] = 500.0 }, false},
		{"per-sqm too cheap", func(r frame.Row) { r[ColResalePrice] = int64(60000); r[ColFloorArea] = 100.0 }, false},
		{"lease before 1960", func(r frame.Row) { r[ColLeaseCommence] = int64(1950) }, false},
		{"lease in the future", func(r frame.Row) { r[ColLeaseCommence] = int64(2030) }, false},
		{"lease null", func(r frame.Row) { r[ColLeaseCommence] = nil }, false},
		{"storey missing TO", func(r frame.Row) { r[ColStoreyRange] = "HIGH" }, false},
		{"storey null", func(r frame.Row) { r[ColStoreyRange] = nil }, false},
		{"storey lowercase to", func(r frame.Row) { r[ColStoreyRange] = "01 to 03" }, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := frame.New([]string{ColResalePrice, ColFloorArea, ColLeaseCommence, ColStoreyRange})
			row := validRow()
			tc.mutate(row)
			f.Rows = append(f.Rows, row)

			out, removed := Validate(f, rules, testNow)
			if tc.keep && (removed != 0 || len(out.Rows) != 1) {
				t.Fatalf("expected row kept, removed=%d", removed)
			}
			if !tc.keep && (removed != 1 || len(out.Rows) != 0) {
				t.Fatalf("expected row removed, removed=%d", removed)
			}
		})
	}
}

func TestValidate_PerSqmComputedFresh(t *testing.T) {
	t.Parallel()

	// The derived price_per_sqm column is deliberately ignored: only the
	// fresh price/area ratio counts.
	f := frame.New([]string{ColResalePrice, ColFloorArea, ColLeaseCommence, ColStoreyRange, ColPricePerSqm})
	row := validRow()
	row[ColPricePerSqm] = 999999.0
	f.Rows = append(f.Rows, row)

	out, removed := Validate(f, config.Default().Rules, testNow)
	if removed != 0 || len(out.Rows) != 1 {
		t.Fatalf("stale derived column must not affect validation, removed=%d", removed)
	}
}
