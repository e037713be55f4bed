package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/search"
	"github.com/archivox/archivox/storage"
	"github.com/archivox/archivox/storage/badger"
)

type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := m.vectors[text]; ok {
		return vector, nil
	}
	return []float32{0, 0, 1}, nil
}

func (m *mapEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i], _ = m.EmbedText(ctx, text)
	}
	return result, nil
}

func newTestHandler(t *testing.T) (http.Handler, storage.VectorStore) {
	t.Helper()

	store, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})

	embedder := &mapEmbedder{vectors: map[string][]float32{
		"database is down": {1, 0, 0},
		"deploy succeeded": {0, 1, 0},
		"outage":           {0.9, 0.1, 0},
	}}

	ctx := context.Background()
	for _, text := range []string{"database is down", "deploy succeeded"} {
		vector, _ := embedder.EmbedText(ctx, text)
		record := &core.MessageRecord{
			Id:       core.IDFromContent(text),
			SourceID: "general:" + text,
			Text:     text,
			Vector:   vector,
			Metadata: core.Metadata{"channel": core.MetaString("general")},
		}
		require.NoError(t, store.Upsert(ctx, "general", record))
	}

	searcher, err := search.NewSearcher(store, embedder, "general")
	require.NoError(t, err)

	return NewHandler(Deps{
		Searcher:   searcher,
		Store:      store,
		Collection: "general",
	}), store
}

func TestHandler_Health(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_Stats(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "general", stats.Collection)
	assert.Equal(t, 2, stats.Messages)
}

func TestHandler_Query(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"query_text": "outage", "n_results": 1}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var results []QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "database is down", results[0].Message)
	assert.Greater(t, results[0].Similarity, float32(0.9))
	assert.Equal(t, "general", results[0].Metadata["channel"])
}

func TestHandler_Query_BadRequests(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query_text": "  "}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
