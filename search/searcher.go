// Copyright 2026 Archivox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/archivox/archivox/ai"
	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/storage"
)

const (
	// DefaultTopK is the number of results returned when the caller asks
	// for zero.
	DefaultTopK = 5

	// MaxTopK caps the number of results a single query may request.
	MaxTopK = 100
)

// Searcher answers natural-language queries against a message collection.
type Searcher struct {
	store        storage.VectorStore
	embedder     ai.Embedder
	collection   string
	maxRetries   int
	retryDelay   time.Duration
	storeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRetryPolicy sets the retry budget for the query embedding call.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) Option {
	return func(s *Searcher) error {
		if maxRetries < 1 {
			maxRetries = 1
		}
		if baseDelay <= 0 {
			baseDelay = time.Second
		}
		s.maxRetries = maxRetries
		s.retryDelay = baseDelay
		return nil
	}
}

// WithStoreTimeout sets the timeout applied to the store lookup.
// Default is 10 seconds.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout > 0 {
			s.storeTimeout = timeout
		}
		return nil
	}
}

// NewSearcher creates a new searcher over the named collection.
func NewSearcher(store storage.VectorStore, embedder ai.Embedder, collection string, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	s := &Searcher{
		store:        store,
		embedder:     embedder,
		collection:   collection,
		maxRetries:   3,
		retryDelay:   time.Second,
		storeTimeout: 10 * time.Second,
		logger:       slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// ClampTopK maps a caller-supplied result count onto the supported range.
// Zero means "use the default", negative and oversized values are clamped.
func ClampTopK(topK int) int {
	switch {
	case topK == 0:
		return DefaultTopK
	case topK < 1:
		return 1
	case topK > MaxTopK:
		return MaxTopK
	default:
		return topK
	}
}

// Search embeds the query and returns up to topK records ranked by
// ascending cosine distance. Empty or whitespace-only queries are
// rejected before any provider call.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]core.ResultItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	topK = ClampTopK(topK)

	var vector []float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var opErr error
		vector, opErr = s.embedder.EmbedText(ctx, query)
		return opErr
	}, s.maxRetries, s.retryDelay)
	if err != nil {
		s.logger.Error("failed to embed query", "err", err)
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	results, err := s.store.Query(queryCtx, s.collection, vector, topK)
	if err != nil {
		s.logger.Error("failed to query store", "collection", s.collection, "err", err)
		return nil, err
	}

	s.logger.Debug("search complete", "collection", s.collection, "top_k", topK, "hits", len(results))
	return results, nil
}
