package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/storage"
)

// Store implements storage.VectorStore on BadgerDB.
//
// Records are kept under collection-scoped keys and scanned linearly at
// query time; collections holding chat archives are small enough that a
// flat cosine scan stays interactive.
type Store struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore creates a vector store on the given backend.
//
// Returns storage.VectorStore interface to enforce abstraction.
func NewStore(backend *Backend) (storage.VectorStore, error) {
	return newStore(backend)
}

// newStore is an internal constructor that returns the concrete type.
func newStore(backend *Backend) (*Store, error) {
	seq, err := backend.GetSequence(insertionSeqName)
	if err != nil {
		return nil, err
	}

	return &Store{
		backend: backend,
		seq:     seq,
		logger:  slog.Default().With("component", "badger-store"),
	}, nil
}

// Close releases the insertion sequence. The backend itself is owned and
// closed by the caller that opened it.
func (s *Store) Close() error {
	return s.seq.Release()
}

// guard rejects operations once the backend is closed.
func (s *Store) guard() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// nextSeq returns the next insertion-order value.
func (s *Store) nextSeq() (uint64, error) {
	next, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = s.seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return next, nil
}

// Upsert inserts or overwrites a record keyed by its ID.
func (s *Store) Upsert(ctx context.Context, collection string, record *core.MessageRecord) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := core.ValidateMessageRecord(record); err != nil {
		return err
	}
	if len(record.Vector) == 0 {
		return storage.ErrEmptyVector
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		info, err := s.ensureCollection(tx, collection, len(record.Vector))
		if err != nil {
			return err
		}
		if info.Dimension != len(record.Vector) {
			return fmt.Errorf("%w: collection %q expects %d, got %d",
				storage.ErrDimensionMismatch, collection, info.Dimension, len(record.Vector))
		}

		now := time.Now().UTC()

		old, err := s.readRecord(tx, collection, record.Id)
		if err != nil {
			return err
		}
		if old != nil {
			// Overwrite keeps the original insertion identity
			record.Seq = old.Seq
			record.InsertedAt = old.InsertedAt
		} else {
			seq, err := s.nextSeq()
			if err != nil {
				return err
			}
			record.Seq = seq
			record.InsertedAt = now
		}
		record.UpdatedAt = now

		key := makeRecordKey(collection, record.Id)
		if err := tx.Set(key, storage.MarshalMessageRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpsertMany upserts records in order, best-effort. Each record commits
// independently so a mid-batch failure never rolls back earlier records.
func (s *Store) UpsertMany(ctx context.Context, collection string, records []*core.MessageRecord) (int, error) {
	applied := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := s.Upsert(ctx, collection, record); err != nil {
			return applied, fmt.Errorf("upsert %d of %d: %w", applied+1, len(records), err)
		}
		applied++
	}
	return applied, nil
}

// Query returns the topK nearest records by cosine distance, ascending.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]core.ResultItem, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", storage.ErrInvalidQuery)
	}

	var results []core.ResultItem

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		info, err := s.readCollection(tx, collection)
		if err != nil {
			return err
		}
		if info == nil {
			// Nonexistent collection: empty result, not an error
			return nil
		}
		if info.Dimension != len(vector) {
			return fmt.Errorf("%w: collection %q expects %d, got %d",
				storage.ErrDimensionMismatch, collection, info.Dimension, len(vector))
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.MessageRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalMessageRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			results = append(results, core.ResultItem{
				Record:   record,
				Distance: cosineDistance(vector, record.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Ascending distance, insertion order on ties
	slices.SortFunc(results, func(a, b core.ResultItem) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		if a.Record.Seq < b.Record.Seq {
			return -1
		}
		if a.Record.Seq > b.Record.Seq {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Get retrieves a single record by ID.
func (s *Store) Get(ctx context.Context, collection string, id core.ID) (*core.MessageRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	var result *core.MessageRecord
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = s.readRecord(tx, collection, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// CollectionInfo returns the persisted configuration of a collection.
func (s *Store) CollectionInfo(ctx context.Context, collection string) (*core.CollectionInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	var info *core.CollectionInfo
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		info, err = s.readCollection(tx, collection)
		if err != nil {
			return err
		}
		if info == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return info, err
}

// ensureCollection reads the collection config, creating it pinned to the
// given dimensionality if it does not exist yet.
func (s *Store) ensureCollection(tx *badger.Txn, collection string, dimension int) (*core.CollectionInfo, error) {
	info, err := s.readCollection(tx, collection)
	if err != nil {
		return nil, err
	}
	if info != nil {
		return info, nil
	}

	info = &core.CollectionInfo{
		Name:      collection,
		Dimension: dimension,
		Metric:    core.MetricCosine,
		CreatedAt: time.Now().UTC(),
	}
	s.logger.Info("creating collection", "collection", collection, "dimension", dimension)

	if err := tx.Set(makeCollectionKey(collection), storage.MarshalCollectionInfo(info)); err != nil {
		return nil, err
	}
	return info, nil
}

// readCollection returns the collection config, or nil if it does not exist.
func (s *Store) readCollection(tx *badger.Txn, collection string) (*core.CollectionInfo, error) {
	item, err := tx.Get(makeCollectionKey(collection))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var info *core.CollectionInfo
	err = item.Value(func(val []byte) error {
		var err error
		info, err = storage.UnmarshalCollectionInfo(val)
		return err
	})
	return info, err
}

// readRecord returns the record, or nil if it does not exist.
func (s *Store) readRecord(tx *badger.Txn, collection string, id core.ID) (*core.MessageRecord, error) {
	item, err := tx.Get(makeRecordKey(collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.MessageRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalMessageRecord(val)
		return err
	})
	return record, err
}
