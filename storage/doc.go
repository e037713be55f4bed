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


// Package storage provides the vector store abstraction.
//
// The package defines the VectorStore interface that decouples the
// retrieval pipelines from the storage implementation, plus serialization
// helpers shared by backends. The BadgerDB implementation lives in
// storage/badger.
//
// # Collections
//
// Records live in named collections. A collection is created lazily on the
// first upsert, at which point its vector dimensionality and distance
// metric are pinned; later writes and queries with a different
// dimensionality fail with ErrDimensionMismatch. Querying a collection
// that does not exist yet returns an empty result, not an error.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.VectorStore interface to
// prevent accidental coupling to backend specifics and to keep alternative
// backends swappable. Internal constructors may return concrete types.
//
// # Thread Safety
//
// All implementations must be thread-safe. Concurrent upserts of the same
// ID are a benign last-write-wins race.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
