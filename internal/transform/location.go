package transform

import (
	"strings"

	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Geography holds the town classification tables. Both are keyed by the
// upstream's uppercase town names.
type Geography struct {
	RegionMapping map[string]string
	matureSet     map[string]struct{}
}

// NewGeography builds lookup tables from a region mapping and a
// mature-estates list.
func NewGeography(regionMapping map[string]string, matureEstates []string) Geography {
	mature := make(map[string]struct{}, len(matureEstates))
	for _, town := range matureEstates {
		mature[canonicalTown(town)] = struct{}{}
	}
	return Geography{RegionMapping: regionMapping, matureSet: mature}
}

func canonicalTown(town string) string {
	return strings.ToUpper(strings.TrimSpace(town))
}

// DeriveLocation maps each row's town to a region (unmapped towns become
// "Others") and tags estate maturity.
func DeriveLocation(f frame.Frame, geo Geography) frame.Frame {
	out := f.Clone()
	addColumns(&out, ColRegion, ColEstateMaturity)
	for _, row := range out.Rows {
		town, ok := row[ColTown].(string)
		if !ok {
			row[ColRegion] = "Others"
			row[ColEstateMaturity] = "Non-Mature"
			continue
		}
		key := canonicalTown(town)

		region, mapped := geo.RegionMapping[key]
		if !mapped {
			region = "Others"
		}
		row[ColRegion] = region

		if _, mature := geo.matureSet[key]; mature {
			row[ColEstateMaturity] = "Mature"
		} else {
			row[ColEstateMaturity] = "Non-Mature"
		}
	}
	return out
}
