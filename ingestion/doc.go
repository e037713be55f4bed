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


// Package ingestion turns raw chat messages into indexed records.
//
// The pipeline runs five stages: Fetch (via the Fetcher boundary),
// Normalize (markup stripping, system/bot filtering, deterministic IDs),
// Deduplicate (last-write-wins within a run), Embed (batched, with retry),
// and Persist (best-effort upsert into the vector store). Each stage is a
// plain function or small type that can be tested with fixed inputs.
//
// The pipeline's primary observable output is the run Summary; a record
// that fails embedding after retries is skipped and tallied, never
// aborting the whole run.
package ingestion
