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

package vectorstore

import (
	"github.com/kadirpekel/echovector/pkg/index"
)

// Store is the in-memory form of one document's vector store: an ordered
// sequence of records plus a flat index over their vectors, where index
// row i always refers to records[i].
//
// A Store is built once at ingestion (or decoded from artifacts at query
// time) and is read-only afterwards.
type Store struct {
	records []Record
	idx     *index.Flat
}

// Build creates a store from position-aligned passages and embeddings.
func Build(passages []Passage, embeddings [][]float32) (*Store, error) {
	const op = "vectorstore.build"

	if len(passages) == 0 {
		return nil, NewError(KindValidation, op, "no passages to index")
	}
	if len(embeddings) != len(passages) {
		return nil, NewError(KindEmbedding, op,
			"got %d embeddings for %d passages", len(embeddings), len(passages))
	}

	idx, err := index.NewFlat(len(embeddings[0]))
	if err != nil {
		return nil, WrapError(KindEmbedding, op, "invalid embedding dimension", err)
	}

	records := make([]Record, 0, len(passages))
	for i, passage := range passages {
		if err := idx.Add(embeddings[i]); err != nil {
			return nil, WrapError(KindEmbedding, op, "inconsistent embedding dimensions", err)
		}
		records = append(records, Record{
			Vector:   embeddings[i],
			Text:     passage.Text,
			Metadata: passage.Metadata,
		})
	}

	return &Store{records: records, idx: idx}, nil
}

// Len returns the number of stored passages.
func (s *Store) Len() int { return len(s.records) }

// Dimension returns the embedding dimension.
func (s *Store) Dimension() int { return s.idx.Dimension() }

// Record returns the record at row i.
func (s *Store) Record(i int) Record { return s.records[i] }

// Search returns up to topK results ordered by ascending distance to the
// probe vector. topK is clamped to the passage count; repeated identical
// searches return identical ordered results.
func (s *Store) Search(probe []float32, topK int) ([]Result, error) {
	const op = "vectorstore.search"

	if topK <= 0 {
		return nil, NewError(KindValidation, op, "top_k must be positive, got %d", topK)
	}
	if len(probe) != s.idx.Dimension() {
		return nil, NewError(KindEmbedding, op,
			"query embedding dimension %d does not match store dimension %d",
			len(probe), s.idx.Dimension())
	}

	neighbors, err := s.idx.Search(probe, topK)
	if err != nil {
		return nil, WrapError(KindInternal, op, "index search failed", err)
	}

	results := make([]Result, 0, len(neighbors))
	for _, n := range neighbors {
		record := s.records[n.Row]
		results = append(results, Result{
			ChunkText: record.Text,
			Page:      Passage{Metadata: record.Metadata}.PageLabel(),
			Distance:  n.Distance,
		})
	}
	return results, nil
}
