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

package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/kadirpekel/echovector/pkg/config"
)

// Hash is a local, deterministic bag-of-words embedder: each token is
// hashed into one of Dimension buckets and the resulting counts are
// L2-normalized.
//
// It needs no network or model files, which makes it suitable for
// air-gapped deployments and for tests. Retrieval quality is lexical
// rather than semantic.
type Hash struct {
	dimension int
}

// NewHash creates a hashing embedder. Dimension defaults to 256.
func NewHash(cfg config.EmbedderConfig) (*Hash, error) {
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 256
	}
	return &Hash{dimension: dimension}, nil
}

// EmbedBatch embeds the ordered texts.
func (e *Hash) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Hash) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *Hash) embed(text string) []float32 {
	vec := make([]float32, e.dimension)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte(token))
		vec[h.Sum64()%uint64(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

// Dimension returns the embedding vector dimension.
func (e *Hash) Dimension() int { return e.dimension }

// Model returns the model name in use.
func (e *Hash) Model() string { return "hash-bow" }

// Close implements Embedder.
func (e *Hash) Close() error { return nil }

var _ Embedder = (*Hash)(nil)
