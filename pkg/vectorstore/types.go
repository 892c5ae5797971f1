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

// Package vectorstore holds the domain model of EchoVector: passages,
// the composite record store built from them, and the classified errors
// shared by the pipeline, the query service and the artifact store.
package vectorstore

// MetaPageLabel is the metadata key carrying a passage's page attribution.
const MetaPageLabel = "page_label"

// PageUnknown is reported when a passage carries no page attribution.
const PageUnknown = "Unknown"

// Passage is one retrievable unit of document text. Passages are created
// by the chunker and never mutated afterwards.
type Passage struct {
	// Text is the raw passage text. Never empty for a stored passage.
	Text string

	// Metadata carries at minimum a page label; parser-dependent fields
	// pass through opaquely.
	Metadata map[string]string
}

// PageLabel returns the passage's page attribution, or PageUnknown.
func (p Passage) PageLabel() string {
	if label, ok := p.Metadata[MetaPageLabel]; ok && label != "" {
		return label
	}
	return PageUnknown
}

// Record is one passage together with its embedding. The store keeps a
// single ordered sequence of records so the vector, the text and the
// metadata of a passage can never drift apart.
type Record struct {
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Result is one search hit, ordered by ascending distance to the query.
type Result struct {
	ChunkText string  `json:"chunk_text"`
	Page      string  `json:"page"`
	Distance  float32 `json:"-"`
}
