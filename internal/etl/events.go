package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/internal/transform"
	"github.com/sgproperty/resale-etl/pkg/blobstore"
	"github.com/sgproperty/resale-etl/pkg/frame"
)

// Notification is the storage event announcing a newly written raw object.
type Notification struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// EventResponse is the structured reply of the event-triggered entrypoint.
type EventResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// EventHandler transforms raw snapshots announced by storage notifications.
type EventHandler struct {
	Cfg   config.Config
	Store blobstore.Store
	Pipe  transform.Pipeline
	Log   zerolog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (h EventHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Handle parses the raw event payload and transforms the referenced object.
// Malformed events answer 400, processing failures 500, success 200.
func (h EventHandler) Handle(ctx context.Context, payload []byte) EventResponse {
	var note Notification
	if err := json.Unmarshal(payload, &note); err != nil {
		return EventResponse{StatusCode: http.StatusBadRequest, Body: fmt.Sprintf("malformed event: %s", err)}
	}
	bucket, key, err := firstObjectRef(note)
	if err != nil {
		return EventResponse{StatusCode: http.StatusBadRequest, Body: err.Error()}
	}

	rows, err := h.TransformObject(ctx, bucket, key)
	if err != nil {
		h.Log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("transform failed")
		return EventResponse{StatusCode: http.StatusInternalServerError, Body: describeError(err)}
	}
	return EventResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("transformed %s/%s (%d rows)", bucket, key, rows),
	}
}

func firstObjectRef(note Notification) (bucket, key string, err error) {
	if len(note.Records) == 0 {
		return "", "", fmt.Errorf("malformed event: no records")
	}
	rec := note.Records[0]
	bucket = strings.TrimSpace(rec.S3.Bucket.Name)
	key = strings.TrimSpace(rec.S3.Object.Key)
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed event: missing bucket or key")
	}
	return bucket, key, nil
}

// TransformObject reads one raw snapshot, runs the stage chain, and writes
// the cleaned dataset and its quality report. Returns the final row count.
func (h EventHandler) TransformObject(ctx context.Context, bucket, key string) (int, error) {
	raw, err := h.Store.Get(ctx, bucket, key)
	if err != nil {
		return 0, fmt.Errorf("read raw object %s/%s: %w", bucket, key, err)
	}

	f, err := frame.DecodeCSV(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("decode raw csv %s/%s: %w", bucket, key, err)
	}

	datasetName := DatasetNameFromKey(key)
	clean, report := h.Pipe.Run(f)

	ts := h.now().Format("20060102_150405")
	cleanCSV, err := frame.EncodeCSV(clean)
	if err != nil {
		return 0, err
	}
	cleanKey := fmt.Sprintf("processed/%s_clean_%s.csv", datasetName, ts)
	if err := h.Store.Put(ctx, h.Cfg.Buckets.Processed, cleanKey, cleanCSV); err != nil {
		return 0, err
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return 0, err
	}
	reportKey := fmt.Sprintf("quality_reports/%s_quality_%s.json", datasetName, ts)
	if err := h.Store.Put(ctx, h.Cfg.Buckets.Processed, reportKey, reportJSON); err != nil {
		return 0, err
	}

	h.Log.Info().Str("dataset", datasetName).Str("key", cleanKey).
		Int("rows", report.FinalRows).Msg("raw snapshot transformed")
	return report.FinalRows, nil
}

// DatasetNameFromKey recovers the dataset name from a timestamped snapshot
// key, e.g. "raw/2017-onwards_20241114_153045.csv" → "2017-onwards".
func DatasetNameFromKey(key string) string {
	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))
	if i := strings.Index(base, "_"); i >= 0 {
		return base[:i]
	}
	return base
}
