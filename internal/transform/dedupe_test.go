package transform

import (
	"testing"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

func TestDedupe_RemovesExactDuplicates(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{ColTown, ColResalePrice, ColRemainingLease})
	dup := frame.Row{ColTown: "BEDOK", ColResalePrice: int64(300000), ColRemainingLease: nil}
	f.Rows = append(f.Rows,
		dup,
		frame.Row{ColTown: "YISHUN", ColResalePrice: int64(250000), ColRemainingLease: "60 years"},
		frame.Row{ColTown: "BEDOK", ColResalePrice: int64(300000), ColRemainingLease: nil},
		frame.Row{ColTown: "BEDOK", ColResalePrice: int64(300000), ColRemainingLease: nil},
	)

	out, removed := Dedupe(f)
	if removed != 2 {
		t.Fatalf("expected 2 duplicates removed, got %d", removed)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out.Rows))
	}
	// First occurrence wins, original order is preserved.
	if out.Rows[0][ColTown] != "BEDOK" || out.Rows[1][ColTown] != "YISHUN" {
		t.Fatalf("unexpected order: %v", out.Rows)
	}

	// Re-running is a no-op.
	again, removed := Dedupe(out)
	if removed != 0 || len(again.Rows) != 2 {
		t.Fatalf("dedupe must be idempotent, removed %d", removed)
	}
}

func TestDedupe_NullEqualsNull(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{ColTown, ColFlatModel})
	f.Rows = append(f.Rows,
		frame.Row{ColTown: "BEDOK", ColFlatModel: nil},
		frame.Row{ColTown: "BEDOK", ColFlatModel: nil},
		frame.Row{ColTown: "BEDOK", ColFlatModel: "IMPROVED"},
	)

	out, removed := Dedupe(f)
	if removed != 1 || len(out.Rows) != 2 {
		t.Fatalf("rows differing only by null must match: removed=%d rows=%d", removed, len(out.Rows))
	}
}

func TestFilterNulls(t *testing.T) {
	t.Parallel()

	f := frame.New(TargetColumns())
	full := frame.Row{
		ColMonth: "2017-01", ColTown: "BEDOK", ColFlatType: "4 ROOM",
		ColFloorArea: 93.0, ColResalePrice: int64(500000), ColFlatModel: "IMPROVED",
	}
	noPrice := frame.Row{
		ColMonth: "2017-01", ColTown: "BEDOK", ColFlatType: "4 ROOM",
		ColFloorArea: 93.0, ColResalePrice: nil, ColFlatModel: "IMPROVED",
	}
	noModel := frame.Row{
		ColMonth: "2017-02", ColTown: "YISHUN", ColFlatType: "3 ROOM",
		ColFloorArea: 70.0, ColResalePrice: int64(350000), ColFlatModel: nil,
	}
	f.Rows = append(f.Rows, full, noPrice, noModel)

	out, removed, census := FilterNulls(f)
	if removed != 1 {
		t.Fatalf("expected 1 row removed, got %d", removed)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows kept, got %d", len(out.Rows))
	}
	// A row missing only an optional field is always kept.
	if out.Rows[1][ColTown] != "YISHUN" {
		t.Fatalf("optional-null row was dropped: %v", out.Rows)
	}

	// The census is taken before dropping.
	if census[ColResalePrice] != 1 {
		t.Fatalf("expected 1 null resale_price, got %d", census[ColResalePrice])
	}
	if census[ColFlatModel] != 1 {
		t.Fatalf("expected 1 null flat_model, got %d", census[ColFlatModel])
	}
	// Columns never observed null still appear in the census.
	if n, ok := census[ColTown]; !ok || n != 0 {
		t.Fatalf("expected town census entry of 0, got %d (present=%v)", n, ok)
	}
}
