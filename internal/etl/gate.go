package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/pkg/blobstore"
)

// Gate decides whether a dataset needs fetching or processing at all.
//
// Both decisions fail open: when storage cannot answer, the pipeline prefers
// a redundant download over silently skipping data.
type Gate struct {
	Store     blobstore.Store
	RawBucket string
	Log       zerolog.Logger
}

func fingerprintKey(datasetName string) string {
	return fmt.Sprintf("metadata/%s_hash.txt", datasetName)
}

// AlreadyDownloaded short-circuits fetch for one-time historical datasets
// when any prior raw snapshot exists. Incremental datasets always fetch and
// defer to ShouldProcess.
func (g Gate) AlreadyDownloaded(ctx context.Context, datasetName string, category config.Category) bool {
	if category == config.CategoryIncremental {
		return false
	}
	prefix := fmt.Sprintf("raw/%s_", datasetName)
	keys, err := g.Store.List(ctx, g.RawBucket, prefix, 1)
	if err != nil {
		g.Log.Warn().Err(err).Str("dataset", datasetName).
			Msg("snapshot listing failed, proceeding with download")
		return false
	}
	return len(keys) > 0
}

// ShouldProcess compares the current fingerprint with the last stored one.
// No prior fingerprint, or any storage failure, means process.
func (g Gate) ShouldProcess(ctx context.Context, datasetName, currentFingerprint string) bool {
	b, err := g.Store.Get(ctx, g.RawBucket, fingerprintKey(datasetName))
	if errors.Is(err, blobstore.ErrNotFound) {
		return true
	}
	if err != nil {
		g.Log.Warn().Err(err).Str("dataset", datasetName).
			Msg("fingerprint lookup failed, proceeding")
		return true
	}
	return strings.TrimSpace(string(b)) != currentFingerprint
}

// SaveFingerprint records the fingerprint for the next run's comparison.
// Callers invoke this only after output has been stored.
func (g Gate) SaveFingerprint(ctx context.Context, datasetName, fingerprint string) error {
	return g.Store.Put(ctx, g.RawBucket, fingerprintKey(datasetName), []byte(fingerprint))
}
