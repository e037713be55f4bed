package ingestion

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivox/archivox/ai/mock"
	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/storage"
	"github.com/archivox/archivox/storage/badger"
)

// poisonEmbedder fails on one specific text and embeds everything else
// deterministically.
type poisonEmbedder struct {
	inner  *mock.MockEmbedder
	poison string
}

func newPoisonEmbedder(poison string) *poisonEmbedder {
	return &poisonEmbedder{inner: mock.NewMockEmbedder(), poison: poison}
}

func (p *poisonEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == p.poison {
		return nil, errors.New("embedder error")
	}
	return p.inner.EmbedText(ctx, text)
}

func (p *poisonEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := p.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vector
	}
	return result, nil
}

// brokenGetStore fails every Get with a non-NotFound error.
type brokenGetStore struct {
	storage.VectorStore
}

func (s *brokenGetStore) Get(ctx context.Context, collection string, id core.ID) (*core.MessageRecord, error) {
	return nil, errors.New("disk error")
}

// testFetcher implements Fetcher for testing.
type testFetcher struct {
	messages []RawMessage
	err      error
}

func (f *testFetcher) FetchMessages(ctx context.Context, channel string, window TimeWindow) ([]RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func newTestStore(t *testing.T) storage.VectorStore {
	t.Helper()

	store, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	return store
}

func rawMessage(channel, ts, text string) RawMessage {
	return RawMessage{
		Channel:   channel,
		TS:        ts,
		User:      "U1",
		Text:      text,
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewMockEmbedder()

	t.Run("nil store", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder, nil, "general")
		assert.ErrorIs(t, err, ErrStoreRequired)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(store, nil, nil, "general")
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("empty collection", func(t *testing.T) {
		_, err := NewPipeline(store, embedder, nil, "")
		assert.ErrorIs(t, err, ErrCollectionRequired)
	})
}

func TestPipeline_Run(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{messages: []RawMessage{
		rawMessage("general", "1.000100", "database is down"),
		{Channel: "general", TS: "1.000200", Text: "joined the channel", SubType: "channel_join"},
		rawMessage("general", "1.000300", "deploy succeeded"),
	}}

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), fetcher, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.Run(context.Background(), "general", TimeWindow{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 2, summary.Normalized)
	assert.Equal(t, 2, summary.Embedded)
	assert.Equal(t, 2, summary.Persisted)
	assert.Equal(t, 0, summary.Skipped)

	count, err := store.Count(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_Run_FetchError(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{err: errors.New("rate limited by api")}

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), fetcher, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.Run(context.Background(), "general", TimeWindow{})
	require.Error(t, err)
	assert.Equal(t, 0, summary.Fetched)
}

func TestPipeline_Run_NoFetcher(t *testing.T) {
	store := newTestStore(t)

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Run(context.Background(), "general", TimeWindow{})
	assert.ErrorIs(t, err, ErrFetcherRequired)
}

func TestPipeline_IngestMessages_SkipsUnchanged(t *testing.T) {
	store := newTestStore(t)
	raw := []RawMessage{
		rawMessage("general", "1.000100", "database is down"),
		rawMessage("general", "1.000300", "deploy succeeded"),
	}

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	first, err := pipeline.IngestMessages(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Persisted)

	second, err := pipeline.IngestMessages(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Unchanged)
	assert.Equal(t, 0, second.Embedded)
	assert.Equal(t, 0, second.Persisted)

	// Edited message is reembedded.
	raw[0].Text = "database is back up"
	third, err := pipeline.IngestMessages(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Unchanged)
	assert.Equal(t, 1, third.Persisted)

	count, err := store.Count(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_IngestMessages_StoreReadFailure(t *testing.T) {
	store := &brokenGetStore{VectorStore: newTestStore(t)}
	raw := []RawMessage{rawMessage("general", "1.000100", "database is down")}

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.IngestMessages(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, 0, summary.Persisted)

	// The failing record is identified by its decimal ID.
	id := core.IDFromSource("general", "1.000100")
	assert.Contains(t, err.Error(), strconv.FormatUint(uint64(id), 10))
}

func TestPipeline_IngestMessages_PartialEmbeddingFailure(t *testing.T) {
	store := newTestStore(t)
	embedder := newPoisonEmbedder("poison message")
	raw := []RawMessage{
		rawMessage("general", "1.000100", "database is down"),
		rawMessage("general", "1.000200", "poison message"),
		rawMessage("general", "1.000300", "deploy succeeded"),
	}

	pipeline, err := NewPipeline(store, embedder, nil, "general",
		WithRetryPolicy(1, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.IngestMessages(context.Background(), raw)
	require.Error(t, err)

	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 3, summary.Normalized)
	assert.Equal(t, 2, summary.Persisted)
	assert.Equal(t, 1, summary.Skipped)

	count, countErr := store.Count(context.Background(), "general")
	require.NoError(t, countErr)
	assert.Equal(t, 2, count)
}

func TestPipeline_IngestMessages_DeduplicatesBeforeEmbedding(t *testing.T) {
	store := newTestStore(t)
	raw := []RawMessage{
		rawMessage("general", "1.000100", "original"),
		rawMessage("general", "1.000100", "edited"),
	}

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.IngestMessages(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Normalized)
	assert.Equal(t, 1, summary.Persisted)

	count, err := store.Count(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipeline_IngestMessages_Empty(t *testing.T) {
	store := newTestStore(t)

	pipeline, err := NewPipeline(store, mock.NewMockEmbedder(), nil, "general")
	require.NoError(t, err)
	defer pipeline.Release()

	summary, err := pipeline.IngestMessages(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Fetched)
	assert.Equal(t, 0, summary.Persisted)
}
