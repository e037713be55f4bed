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


package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archivox/archivox/core"
	"github.com/archivox/archivox/search"
	"github.com/archivox/archivox/storage"
)

const maxQueryBodySize = 1 << 20 // 1MB

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	QueryText string `json:"query_text"`
	NResults  int    `json:"n_results"`
}

// QueryResult is one ranked match in a query response.
type QueryResult struct {
	Message    string         `json:"message"`
	Similarity float32        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Collection string `json:"collection"`
	Messages   int    `json:"messages"`
}

// Deps holds the dependencies of the HTTP handler.
type Deps struct {
	Searcher   *search.Searcher
	Store      storage.VectorStore
	Collection string
	Logger     *slog.Logger
}

// NewHandler builds the HTTP API: a health check at /, collection
// statistics at /stats, and semantic queries at /query.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default().With("component", "api")
	}

	r := chi.NewRouter()
	r.Get("/", handleHealth())
	r.Get("/stats", handleStats(deps))
	r.Post("/query", handleQuery(deps))

	return r
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Store.Count(r.Context(), deps.Collection)
		if err != nil {
			deps.Logger.Error("failed to count records", "err", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read collection stats")
			return
		}

		writeJSON(w, http.StatusOK, StatsResponse{
			Collection: deps.Collection,
			Messages:   count,
		})
	}
}

func handleQuery(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodySize)
		defer r.Body.Close()

		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		results, err := deps.Searcher.Search(r.Context(), req.QueryText, req.NResults)
		if err != nil {
			if errors.Is(err, search.ErrEmptyQuery) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "query_text is required")
				return
			}
			deps.Logger.Error("query failed", "err", err)
			httpError(w, http.StatusBadGateway, "api_error", "query failed")
			return
		}

		response := make([]QueryResult, len(results))
		for i, result := range results {
			response[i] = QueryResult{
				Message:    result.Record.Text,
				Similarity: result.Similarity(),
				Metadata:   metadataJSON(result.Record.Metadata),
			}
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// metadataJSON flattens typed metadata into plain JSON values.
func metadataJSON(metadata core.Metadata) map[string]any {
	if len(metadata) == 0 {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		switch value.Kind {
		case core.MetaKindString:
			out[key] = value.Str
		case core.MetaKindNumber:
			out[key] = value.Num
		case core.MetaKindTime:
			out[key] = value.Time.UTC().Format(time.RFC3339)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
