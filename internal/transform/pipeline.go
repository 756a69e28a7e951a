package transform

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Pipeline runs the full stage chain over a raw frame.
type Pipeline struct {
	Rules config.Rules
	Geo   Geography
	Log   zerolog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewPipeline builds a pipeline from configuration.
func NewPipeline(cfg config.Config, logger zerolog.Logger) Pipeline {
	return Pipeline{
		Rules: cfg.Rules,
		Geo:   NewGeography(cfg.RegionMapping, cfg.MatureEstates),
		Log:   logger,
		Now:   time.Now,
	}
}

func (p Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run applies the stage chain in its fixed order and returns the cleaned
// frame and its quality report.
func (p Pipeline) Run(raw frame.Frame) (frame.Frame, Report) {
	now := p.now()
	originalRows := len(raw.Rows)

	f := NormalizeSchema(raw)
	f = CoerceTypes(f)

	f, dupCount := Dedupe(f)
	f, nullDropCount, nullCensus := FilterNulls(f)

	f = DeriveTimeFields(f)
	f = DerivePriceMetrics(f)
	f = DerivePropertyCharacteristics(f, now)
	f = DeriveLocation(f, p.Geo)

	f = NormalizeText(f)

	f, invalidCount := Validate(f, p.Rules, now)

	report := BuildReport(originalRows, f, dupCount, nullDropCount, invalidCount, nullCensus, now)
	p.Log.Info().
		Int("original_rows", report.OriginalRows).
		Int("final_rows", report.FinalRows).
		Int("duplicates_removed", report.DuplicatesRemoved).
		Int("nulls_removed", report.NullsRemoved).
		Int("invalid_removed", report.InvalidRemoved).
		Float64("quality_score", report.DataQualityScore).
		Msg("transform complete")
	return f, report
}
