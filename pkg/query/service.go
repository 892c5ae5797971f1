// Copyright 2025 Kadir Pekel
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

// Package query serves nearest-neighbor search over previously ingested
// vector stores.
//
// Each query is an independent unit of work: artifacts are fetched and
// decoded into working memory scoped to the call and released with it.
// Stores are write-once, so no coordination with ingestion is needed.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/kadirpekel/echovector/pkg/embedder"
	"github.com/kadirpekel/echovector/pkg/metrics"
	"github.com/kadirpekel/echovector/pkg/store"
	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

// DefaultTopK is used when a request does not specify top_k.
const DefaultTopK = 3

// Response is the result of one query.
type Response struct {
	Query   string               `json:"query"`
	Results []vectorstore.Result `json:"results"`
}

// Service answers queries against the artifact store.
type Service struct {
	artifacts *store.ArtifactStore
	embedder  embedder.Embedder
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a query service. Metrics and logger are optional.
func New(artifacts *store.ArtifactStore, emb embedder.Embedder, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{artifacts: artifacts, embedder: emb, metrics: m, logger: logger}
}

// Query embeds the query text and returns up to topK passages of the
// given document ordered by ascending distance. topK must be positive;
// it is clamped to the store's passage count.
func (s *Service) Query(ctx context.Context, userID, docID, queryText string, topK int) (*Response, error) {
	start := time.Now()

	response, err := s.query(ctx, userID, docID, queryText, topK)
	if s.metrics != nil {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		s.metrics.QueryTotal.WithLabelValues(outcome).Inc()
		s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Error("query failed", "user_id", userID, "doc_id", docID, "error", err)
		return nil, err
	}

	s.logger.Debug("query served", "user_id", userID, "doc_id", docID,
		"results", len(response.Results), "elapsed", time.Since(start))
	return response, nil
}

func (s *Service) query(ctx context.Context, userID, docID, queryText string, topK int) (*Response, error) {
	const op = "query.search"

	if queryText == "" {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op, "query must not be empty")
	}
	if topK <= 0 {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op, "top_k must be positive, got %d", topK)
	}

	artifacts, _, err := s.artifacts.GetAll(ctx, userID, docID)
	if err != nil {
		return nil, err
	}

	// Working copy of the store, scoped to this call.
	vs, err := vectorstore.Decode(artifacts)
	if err != nil {
		return nil, err
	}

	probe, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, vectorstore.WrapError(vectorstore.KindEmbedding, op, "embed query", err)
	}

	results, err := vs.Search(probe, topK)
	if err != nil {
		return nil, err
	}

	return &Response{Query: queryText, Results: results}, nil
}
