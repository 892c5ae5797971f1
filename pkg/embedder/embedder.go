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

// Package embedder wraps external embedding backends behind a narrow
// capability interface.
//
// An Embedder is constructed once, with its model identity and dimension
// validated at construction, and is injected into the ingestion pipeline
// and the query service. Backends never skip or zero-fill an embedding:
// any failure, including a dimension mismatch, surfaces as an error that
// aborts the enclosing operation.
package embedder

import (
	"context"
	"fmt"

	"github.com/kadirpekel/echovector/pkg/config"
)

// Embedder produces fixed-dimension vector embeddings from text.
type Embedder interface {
	// EmbedBatch embeds the ordered texts, returning one vector per text
	// in input order. Implementations batch upstream calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string with the same model and
	// dimension used at ingestion time.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// Model returns the model name in use.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// New constructs the configured embedding backend.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedder config: %w", err)
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	case "hash":
		return NewHash(cfg)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}

// checkDimensions verifies an upstream response carries one vector per
// input, all of the expected dimension.
func checkDimensions(vectors [][]float32, want, inputs int) error {
	if len(vectors) != inputs {
		return fmt.Errorf("backend returned %d embeddings for %d inputs", len(vectors), inputs)
	}
	for i, vec := range vectors {
		if len(vec) != want {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(vec), want)
		}
	}
	return nil
}
