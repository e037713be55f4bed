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


// Package ai defines the embedding provider boundary.
//
// The package contains the Embedder interface, provider configuration, the
// provider error taxonomy, and the retry helper used by both the ingestion
// and query paths. Concrete implementations live in subpackages:
//
//   - ai/openai: OpenAI-compatible embedding APIs (OpenAI, Ollama, vLLM, ...)
//   - ai/mock: deterministic test doubles
//
// Provider errors are classified into three kinds before they cross the
// package boundary: rate limiting, authentication failure, and transient
// unavailability. Only rate-limit and unavailability errors are retried;
// authentication failures are configuration problems and surface
// immediately.
package ai
