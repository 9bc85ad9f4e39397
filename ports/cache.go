package ports

import (
	"context"

	"hypotest/domain/core"
)

// CacheEntrySummary describes one live cache entry for listings.
type CacheEntrySummary struct {
	ID        core.CacheID   `json:"id"`
	Test      string         `json:"test_type"`
	CreatedAt core.Timestamp `json:"created_at"`
	ExpiresAt core.Timestamp `json:"expires_at"`
	HasRaw    bool           `json:"has_raw_data"`
}

// ResultCache is the out-of-band store for detailed test results. The
// engine submits every outcome's serialized form here and hands the caller
// back an opaque id; heavy payloads never ride the response path.
type ResultCache interface {
	// Put stores the serialized outcome and optional raw samples under the
	// caller-minted id, so the payload itself can carry the id it will be
	// retrieved by. Time-ordered UUIDv7 ids from core.NewID do not collide
	// with live entries.
	Put(ctx context.Context, id core.CacheID, test string, payload []byte, raw []byte) error

	// Get returns the stored payload (and raw data when requested).
	// Missing, expired, or blob-less entries yield core.ErrNotFound.
	Get(ctx context.Context, id core.CacheID, includeRaw bool) (payload []byte, raw []byte, err error)

	// Delete removes the entry and its blobs. Absent ids are a no-op.
	Delete(ctx context.Context, id core.CacheID) error

	// List returns summaries of live entries, newest first.
	List(ctx context.Context) ([]CacheEntrySummary, error)

	// Sweep removes every entry older than the configured TTL and reports
	// how many were purged.
	Sweep(ctx context.Context) (int, error)
}
