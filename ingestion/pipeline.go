package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/archivox/archivox/ai"
	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/storage"
)

// Summary reports the outcome of an ingestion run. Counts are cumulative
// over the whole run, including records that failed partway through.
type Summary struct {
	// Fetched is the number of raw messages returned by the fetcher.
	Fetched int

	// Normalized is the number of messages that survived filtering and
	// markup stripping.
	Normalized int

	// Unchanged is the number of records skipped because an identical
	// record already exists in the store.
	Unchanged int

	// Embedded is the number of records that received an embedding vector.
	Embedded int

	// Persisted is the number of records written to the store.
	Persisted int

	// Skipped is the number of records dropped due to embedding or
	// storage failures.
	Skipped int
}

// Pipeline orchestrates the ingestion of chat messages: fetch, normalize,
// deduplicate, embed, and persist. Embedding is performed concurrently in
// batches; persistence happens on the calling goroutine so each run has a
// single writer to the store.
type Pipeline struct {
	store        storage.VectorStore
	embedder     ai.Embedder
	fetcher      Fetcher
	collection   string
	batchSize    int
	pool         *ants.Pool
	maxRetries   int
	retryDelay   time.Duration
	storeTimeout time.Duration
	progress     io.Writer
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of records embedded per provider call.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithRetryPolicy sets the retry budget for embedding calls.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxRetries < 1 {
			maxRetries = 1
		}
		if baseDelay <= 0 {
			baseDelay = time.Second
		}
		p.maxRetries = maxRetries
		p.retryDelay = baseDelay
		return nil
	}
}

// WithStoreTimeout sets the timeout applied to each store write.
// Default is 10 seconds.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.storeTimeout = timeout
		}
		return nil
	}
}

// WithProgress sets a writer for progress output (typically os.Stderr).
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to the named
// collection. The fetcher may be nil when only IngestMessages is used.
func NewPipeline(
	store storage.VectorStore,
	embedder ai.Embedder,
	fetcher Fetcher,
	collection string,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		embedder:     embedder,
		fetcher:      fetcher,
		collection:   collection,
		batchSize:    32,
		pool:         pool,
		maxRetries:   3,
		retryDelay:   time.Second,
		storeTimeout: 10 * time.Second,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run fetches messages from the configured fetcher for the given channel
// and time window, then ingests them. The returned summary reflects work
// completed even when an error is returned.
func (p *Pipeline) Run(ctx context.Context, channel string, window TimeWindow) (*Summary, error) {
	if p.fetcher == nil {
		return &Summary{}, ErrFetcherRequired
	}

	raw, err := p.fetcher.FetchMessages(ctx, channel, window)
	if err != nil {
		return &Summary{}, fmt.Errorf("failed to fetch messages: %w", err)
	}

	summary, err := p.IngestMessages(ctx, raw)
	summary.Fetched = len(raw)
	return summary, err
}

// IngestMessages normalizes, deduplicates, embeds, and persists a set of
// already fetched messages. Records whose text is unchanged from the
// stored copy are skipped without an embedding call. A failure to embed or
// persist one record does not abort the rest; such records are counted in
// Summary.Skipped. The returned summary is valid even on error.
func (p *Pipeline) IngestMessages(ctx context.Context, raw []RawMessage) (*Summary, error) {
	summary := &Summary{Fetched: len(raw)}

	records := Deduplicate(Normalize(raw))
	summary.Normalized = len(records)

	pending, unchanged, err := p.filterUnchanged(ctx, records)
	summary.Unchanged = unchanged
	if err != nil {
		return summary, err
	}

	if len(pending) == 0 {
		return summary, nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(pending), p.batchSize)
		tracker.Start()
	}

	var (
		wg      sync.WaitGroup
		results = make(chan embedResult, len(pending)/p.batchSize+1)
	)

	for start := 0; start < len(pending); start += p.batchSize {
		end := min(start+p.batchSize, len(pending))
		batch := pending[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			results <- p.embedBatch(ctx, batch)
		})
		if submitErr != nil {
			wg.Done()
			results <- embedResult{skipped: len(batch), err: submitErr}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		summary.Embedded += len(res.records)
		summary.Skipped += res.skipped
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}

		persisted, persistErr := p.persist(ctx, res.records)
		summary.Persisted += persisted
		summary.Skipped += len(res.records) - persisted
		if persistErr != nil && firstErr == nil {
			firstErr = persistErr
		}

		if tracker != nil {
			tracker.Increment(len(res.records) + res.skipped)
		}
	}

	if tracker != nil {
		tracker.Finish()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	return summary, firstErr
}

// filterUnchanged drops records whose stored copy already carries the same
// text, so they are not reembedded.
func (p *Pipeline) filterUnchanged(ctx context.Context, records []*core.MessageRecord) ([]*core.MessageRecord, int, error) {
	pending := make([]*core.MessageRecord, 0, len(records))
	unchanged := 0

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return pending, unchanged, err
		}

		existing, err := p.store.Get(ctx, p.collection, record.Id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				pending = append(pending, record)
				continue
			}
			return pending, unchanged, fmt.Errorf("failed to check existing record %d: %w", record.Id, err)
		}

		if existing.Text == record.Text {
			unchanged++
			continue
		}
		pending = append(pending, record)
	}

	return pending, unchanged, nil
}

type embedResult struct {
	records []*core.MessageRecord
	skipped int
	err     error
}

// embedBatch embeds a batch of records in one provider call, retrying
// transient failures. If the whole batch fails it falls back to embedding
// records one at a time so a single bad record does not sink the batch.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.MessageRecord) embedResult {
	texts := make([]string, len(batch))
	for i, record := range batch {
		texts[i] = record.Text
	}

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var opErr error
		vectors, opErr = p.embedder.EmbedTexts(ctx, texts)
		return opErr
	}, p.maxRetries, p.retryDelay)
	if err == nil && len(vectors) == len(batch) {
		for i, record := range batch {
			record.Vector = vectors[i]
		}
		return embedResult{records: batch}
	}

	if err != nil {
		p.logger.Warn("batch embedding failed, falling back to per-record embedding",
			"batch_size", len(batch), "err", err)
	}

	result := embedResult{records: make([]*core.MessageRecord, 0, len(batch))}
	for _, record := range batch {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.skipped += len(batch) - len(result.records) - result.skipped
			result.err = ctxErr
			return result
		}

		var vector []float32
		embedErr := ai.RetryWithBackoff(ctx, func() error {
			var opErr error
			vector, opErr = p.embedder.EmbedText(ctx, record.Text)
			return opErr
		}, p.maxRetries, p.retryDelay)
		if embedErr != nil {
			p.logger.Warn("skipping record after embedding failure",
				"id", record.Id, "source_id", record.SourceID, "err", embedErr)
			result.skipped++
			if result.err == nil {
				result.err = embedErr
			}
			continue
		}

		record.Vector = vector
		result.records = append(result.records, record)
	}

	return result
}

// persist writes embedded records to the store with the configured write
// timeout. Returns the number of records actually written.
func (p *Pipeline) persist(ctx context.Context, records []*core.MessageRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	applied, err := p.store.UpsertMany(writeCtx, p.collection, records)
	if err != nil {
		p.logger.Error("failed to persist records",
			"applied", applied, "total", len(records), "err", err)
	}
	return applied, err
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
