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

// Package pipeline orchestrates document ingestion: hash, existence
// check, parse, chunk, embed, index, persist.
//
// Ingestion is idempotent per (user_id, doc_id): re-ingesting identical
// bytes short-circuits to the existing store. Concurrent ingestions of
// the same key within the process are collapsed by singleflight, so the
// three artifacts can never interleave across attempts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kadirpekel/echovector/pkg/chunker"
	"github.com/kadirpekel/echovector/pkg/docid"
	"github.com/kadirpekel/echovector/pkg/embedder"
	"github.com/kadirpekel/echovector/pkg/metrics"
	"github.com/kadirpekel/echovector/pkg/parser"
	"github.com/kadirpekel/echovector/pkg/store"
	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

// Stage names the pipeline's states, in order of progress.
type Stage string

const (
	StageReceived   Stage = "received"
	StageHashed     Stage = "hashed"
	StageParsing    Stage = "parsing"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageIndexing   Stage = "indexing"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Result is the outcome of a successful ingestion.
type Result struct {
	DocID string `json:"doc_id"`

	// Created is false when the EXISTS short-circuit fired and the
	// previously persisted store was returned untouched.
	Created bool `json:"created"`

	Locations store.Locations `json:"locations"`
}

// Ingestor runs the ingestion pipeline.
type Ingestor struct {
	parsers   *parser.Registry
	chunker   *chunker.Chunker
	embedder  embedder.Embedder
	artifacts *store.ArtifactStore
	metrics   *metrics.Metrics
	logger    *slog.Logger

	group singleflight.Group
}

// New creates an ingestor. All dependencies are required except metrics
// and logger.
func New(parsers *parser.Registry, ch *chunker.Chunker, emb embedder.Embedder, artifacts *store.ArtifactStore, m *metrics.Metrics, logger *slog.Logger) (*Ingestor, error) {
	if parsers == nil || ch == nil || emb == nil || artifacts == nil {
		return nil, fmt.Errorf("parsers, chunker, embedder and artifact store are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		parsers:   parsers,
		chunker:   ch,
		embedder:  emb,
		artifacts: artifacts,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Ingest runs the pipeline for one uploaded document. Identical bytes
// under the same user short-circuit to the existing store; any stage
// failure aborts the pipeline with a classified error and nothing
// already persisted is rolled back.
func (i *Ingestor) Ingest(ctx context.Context, userID string, document []byte, filename string) (*Result, error) {
	const op = "pipeline.ingest"
	start := time.Now()

	if userID == "" {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op, "user_id must not be empty")
	}
	if len(document) == 0 {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op, "document is empty")
	}
	if filename == "" {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op, "filename must not be empty")
	}

	id := docid.FromBytes(document)
	logger := i.logger.With("user_id", userID, "doc_id", id, "filename", filename)
	logger.Debug("ingestion received", "stage", StageHashed, "bytes", len(document))

	// Collapse concurrent ingestions of the same (user_id, doc_id) so
	// redundant work is skipped and artifact writes never interleave.
	value, err, _ := i.group.Do(userID+"/"+id, func() (any, error) {
		return i.run(ctx, logger, userID, id, document, filename)
	})

	if err != nil {
		i.observeIngest(metrics.OutcomeError, start)
		logger.Error("ingestion failed", "stage", StageFailed, "error", err)
		return nil, err
	}

	result := value.(*Result)
	if result.Created {
		i.observeIngest(metrics.OutcomeCreated, start)
	} else {
		i.observeIngest(metrics.OutcomeExists, start)
	}
	return result, nil
}

func (i *Ingestor) run(ctx context.Context, logger *slog.Logger, userID, id string, document []byte, filename string) (*Result, error) {
	const op = "pipeline.ingest"

	exists, err := i.artifacts.Exists(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if exists {
		// Locations must point at the objects actually persisted, so the
		// document URI comes from the manifest's recorded filename, not
		// from whatever name this upload carried.
		manifest, err := i.artifacts.Manifest(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		logger.Info("vector store already exists, skipping creation")
		return &Result{
			DocID:     id,
			Created:   false,
			Locations: i.artifacts.Locations(userID, id, manifest.Filename),
		}, nil
	}

	logger.Debug("parsing document", "stage", StageParsing)
	segments, err := i.parsers.Parse(ctx, document, filename)
	if err != nil {
		return nil, vectorstore.WrapError(vectorstore.KindParse, op, "parse "+filename, err)
	}

	logger.Debug("chunking segments", "stage", StageChunking, "segments", len(segments))
	passages, err := i.chunker.Chunk(segments)
	if err != nil {
		return nil, vectorstore.WrapError(vectorstore.KindParse, op, "chunk "+filename, err)
	}
	if len(passages) == 0 {
		return nil, vectorstore.NewError(vectorstore.KindValidation, op,
			"document %s contains no extractable text", filename)
	}

	logger.Debug("embedding passages", "stage", StageEmbedding, "passages", len(passages))
	texts := make([]string, len(passages))
	for n, passage := range passages {
		texts[n] = passage.Text
	}
	embeddings, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, vectorstore.WrapError(vectorstore.KindEmbedding, op, "embed passages", err)
	}
	if i.metrics != nil {
		i.metrics.EmbeddedBatches.Inc()
	}

	logger.Debug("building index", "stage", StageIndexing)
	vs, err := vectorstore.Build(passages, embeddings)
	if err != nil {
		return nil, err
	}
	artifacts, err := vs.Encode()
	if err != nil {
		return nil, err
	}

	logger.Debug("persisting artifacts", "stage", StagePersisting)
	locations, err := i.artifacts.PutAll(ctx, userID, id, artifacts, document, filename, vs.Dimension(), vs.Len())
	if err != nil {
		return nil, err
	}

	if i.metrics != nil {
		i.metrics.PassagesPerDoc.Observe(float64(vs.Len()))
	}
	logger.Info("vector store created", "stage", StageDone,
		"passages", vs.Len(), "dimension", vs.Dimension(), "model", i.embedder.Model())

	return &Result{DocID: id, Created: true, Locations: locations}, nil
}

func (i *Ingestor) observeIngest(outcome string, start time.Time) {
	if i.metrics == nil {
		return
	}
	i.metrics.IngestTotal.WithLabelValues(outcome).Inc()
	i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
}
