package storage

import (
	"context"

	"github.com/archivox/archivox/core"
)

// VectorStore persists (id, vector, text, metadata) tuples in named
// collections and answers nearest-neighbor queries.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// Upsert inserts or overwrites a record keyed by its ID. Idempotent:
	// re-upserting an identical record leaves the collection unchanged
	// except for the update timestamp. The record's Seq and InsertedAt
	// fields are assigned on first insert and preserved on overwrite.
	// The collection is created lazily on first write, pinned to the
	// record's vector dimensionality. Returns ErrDimensionMismatch if the
	// vector does not match an existing collection's dimensionality.
	Upsert(ctx context.Context, collection string, record *core.MessageRecord) error

	// UpsertMany upserts records in order and returns the number applied.
	// Best-effort, not transactional: on failure, records already applied
	// stay applied; the count tells the caller how far the batch got.
	UpsertMany(ctx context.Context, collection string, records []*core.MessageRecord) (int, error)

	// Query returns the topK nearest records to the given vector, ordered
	// by ascending distance (closest first). Ties are broken by insertion
	// order. Querying an empty or nonexistent collection returns an empty
	// result, not an error. Returns ErrDimensionMismatch if the vector
	// does not match the collection's dimensionality.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]core.ResultItem, error)

	// Get retrieves a single record by ID.
	// Returns ErrNotFound if the record does not exist.
	Get(ctx context.Context, collection string, id core.ID) (*core.MessageRecord, error)

	// Count returns the number of records in the collection.
	// A nonexistent collection has zero records.
	Count(ctx context.Context, collection string) (int, error)

	// CollectionInfo returns the persisted configuration of a collection.
	// Returns ErrNotFound if the collection has not been created yet.
	CollectionInfo(ctx context.Context, collection string) (*core.CollectionInfo, error)

	// Close closes the store and releases resources.
	Close() error
}
