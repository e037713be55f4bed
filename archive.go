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


package archivox

import (
	"log/slog"

	"github.com/archivox/archivox/ai"
	"github.com/archivox/archivox/ai/openai"
	"github.com/archivox/archivox/ingestion"
	"github.com/archivox/archivox/search"
	"github.com/archivox/archivox/storage"
	"github.com/archivox/archivox/storage/badger"
)

// Archive bundles a vector store and an embedding provider behind one
// handle. It is the main entry point for embedding this module.
type Archive struct {
	backend  *badger.Backend
	store    storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*archiveOptions)

type archiveOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) ArchiveOption {
	return func(o *archiveOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the store without persistence. Intended for tests
// and experiments.
func WithInMemory() ArchiveOption {
	return func(o *archiveOptions) {
		o.inMemory = true
	}
}

// Open opens or creates an archive at filePath.
func Open(filePath string, opts ...ArchiveOption) (*Archive, error) {
	options := &archiveOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	store, err := badger.NewStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	return &Archive{
		backend:  backend,
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}, nil
}

// Close releases the store and backend.
func (a *Archive) Close() error {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing vector store", "err", err)
		return err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Store returns the underlying vector store.
func (a *Archive) Store() storage.VectorStore {
	return a.store
}

// Embedder returns the configured embedding provider.
func (a *Archive) Embedder() ai.Embedder {
	return a.embedder
}

// NewPipeline creates an ingestion pipeline writing to collection.
// fetcher may be nil when messages are supplied directly.
func (a *Archive) NewPipeline(fetcher ingestion.Fetcher, collection string, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(a.store, a.embedder, fetcher, collection, opts...)
}

// NewSearcher creates a searcher over collection.
func (a *Archive) NewSearcher(collection string, opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(a.store, a.embedder, collection, opts...)
}
