// Package etl sequences the extraction and transformation layers over the
// configured dataset catalog and writes snapshots, cleaned output, quality
// reports, and fingerprints to the storage collaborator.
package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/internal/transform"
	"github.com/sgproperty/resale-etl/pkg/datagov"
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Fetcher retrieves the complete record set for an upstream resource.
type Fetcher interface {
	FetchAll(ctx context.Context, resourceID string) ([]map[string]any, error)
}

// Result statuses.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

// Result is the outcome for one dataset in one run.
type Result struct {
	Dataset string `json:"dataset"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Rows    int    `json:"rows,omitempty"`
}

// Summary aggregates a run.
type Summary struct {
	Mode          string `json:"mode"`
	TotalDatasets int    `json:"total_datasets"`
	Processed     int    `json:"processed"`
	Skipped       int    `json:"skipped"`
	Errors        int    `json:"errors"`
}

// RunOutput is the structured response of the invocation entrypoint.
type RunOutput struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Summary    Summary  `json:"summary"`
	Details    []Result `json:"details"`
}

// Runner orchestrates one pipeline invocation. Datasets are processed
// sequentially; a failure in one dataset never stops the rest.
type Runner struct {
	Cfg     config.Config
	Fetcher Fetcher
	Store   StoreWriter
	Gate    Gate
	Pipe    transform.Pipeline
	Log     zerolog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// StoreWriter is the slice of blobstore.Store the runner needs directly.
type StoreWriter interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
}

func (r Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run processes every dataset selected by mode and returns the structured
// run summary.
func (r Runner) Run(ctx context.Context, mode string) RunOutput {
	datasets, err := r.Cfg.DatasetsForMode(mode)
	if err != nil {
		return RunOutput{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}
	if mode == "" {
		mode = "all"
	}

	out := RunOutput{
		StatusCode: http.StatusOK,
		Summary:    Summary{Mode: mode, TotalDatasets: len(datasets)},
	}
	for _, ds := range datasets {
		res := r.processDataset(ctx, ds)
		out.Details = append(out.Details, res)
		switch res.Status {
		case StatusProcessed:
			out.Summary.Processed++
		case StatusSkipped:
			out.Summary.Skipped++
		default:
			out.Summary.Errors++
		}
	}
	out.Message = fmt.Sprintf("%d processed, %d skipped, %d errors",
		out.Summary.Processed, out.Summary.Skipped, out.Summary.Errors)
	return out
}

// processDataset runs the full chain for one dataset. Every failure is
// converted into an error result so the caller can continue with the rest of
// the catalog.
func (r Runner) processDataset(ctx context.Context, ds config.Dataset) Result {
	log := r.Log.With().Str("dataset", ds.Name).Logger()
	log.Info().Str("category", string(ds.Category)).Msg("processing dataset")

	if r.Gate.AlreadyDownloaded(ctx, ds.Name, ds.Category) {
		log.Info().Msg("historical dataset already downloaded, skipping")
		return Result{Dataset: ds.Name, Status: StatusSkipped, Message: "already downloaded"}
	}

	records, err := r.Fetcher.FetchAll(ctx, ds.SourceID)
	if err != nil {
		// An incomplete fetch is never uploaded.
		log.Error().Err(err).Msg("fetch failed")
		return errorResult(ds.Name, err)
	}

	raw := frame.FromRecords(records)
	fingerprint, err := frame.Fingerprint(raw)
	if err != nil {
		return errorResult(ds.Name, err)
	}

	if ds.Category == config.CategoryIncremental &&
		!r.Gate.ShouldProcess(ctx, ds.Name, fingerprint) {
		log.Info().Msg("data unchanged since last run, skipping")
		return Result{Dataset: ds.Name, Status: StatusSkipped, Message: "data unchanged"}
	}

	ts := r.now().Format("20060102_150405")

	rawCSV, err := frame.EncodeCSV(raw)
	if err != nil {
		return errorResult(ds.Name, err)
	}
	rawKey := fmt.Sprintf("raw/%s_%s.csv", ds.Name, ts)
	if err := r.Store.Put(ctx, r.Cfg.Buckets.Raw, rawKey, rawCSV); err != nil {
		return errorResult(ds.Name, err)
	}

	clean, report := r.Pipe.Run(raw)

	cleanCSV, err := frame.EncodeCSV(clean)
	if err != nil {
		return errorResult(ds.Name, err)
	}
	cleanKey := fmt.Sprintf("processed/%s_clean_%s.csv", ds.Name, ts)
	if err := r.Store.Put(ctx, r.Cfg.Buckets.Processed, cleanKey, cleanCSV); err != nil {
		return errorResult(ds.Name, err)
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errorResult(ds.Name, err)
	}
	reportKey := fmt.Sprintf("quality_reports/%s_quality_%s.json", ds.Name, ts)
	if err := r.Store.Put(ctx, r.Cfg.Buckets.Processed, reportKey, reportJSON); err != nil {
		return errorResult(ds.Name, err)
	}

	if err := r.Gate.SaveFingerprint(ctx, ds.Name, fingerprint); err != nil {
		return errorResult(ds.Name, err)
	}

	log.Info().Int("rows", report.FinalRows).Str("key", cleanKey).Msg("dataset processed")
	return Result{
		Dataset: ds.Name,
		Status:  StatusProcessed,
		Message: fmt.Sprintf("uploaded %s", cleanKey),
		Rows:    report.FinalRows,
	}
}

// errorResult converts a stage failure into a per-dataset error result
// carrying the failure's kind and message.
func errorResult(dataset string, err error) Result {
	return Result{Dataset: dataset, Status: StatusError, Message: describeError(err)}
}

func describeError(err error) string {
	var fe *datagov.FetchError
	if errors.As(err, &fe) {
		return fmt.Sprintf("FetchError(%s): %s", fe.Kind, err.Error())
	}
	return err.Error()
}
