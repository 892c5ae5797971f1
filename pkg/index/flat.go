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

// Package index implements an exhaustive squared-Euclidean nearest-neighbor
// index over fixed-dimension vectors.
//
// Corpora are per-document and small, so a flat scan beats approximate
// structures on both simplicity and recall, and keeps serialization
// lossless.
package index

import (
	"fmt"
	"sort"
)

// Flat is an exhaustive-search index. Row i is the i-th vector added,
// so callers can align rows with external sequences.
//
// Flat is built once and then only searched; it is not safe for
// concurrent mutation.
type Flat struct {
	dim     int
	vectors [][]float32
}

// Neighbor is one search hit.
type Neighbor struct {
	// Row is the insertion-order index of the matched vector.
	Row int

	// Distance is the squared Euclidean distance to the probe.
	Distance float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the vector dimension.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Add appends a vector as the next row.
func (f *Flat) Add(vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), f.dim)
	}
	f.vectors = append(f.vectors, vec)
	return nil
}

// Search returns the k rows nearest to probe, ordered by ascending squared
// Euclidean distance. Ties are broken by ascending row so repeated searches
// are deterministic. k is clamped to the number of indexed vectors.
func (f *Flat) Search(probe []float32, k int) ([]Neighbor, error) {
	if len(probe) != f.dim {
		return nil, fmt.Errorf("probe dimension %d does not match index dimension %d", len(probe), f.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	neighbors := make([]Neighbor, len(f.vectors))
	for row, vec := range f.vectors {
		neighbors[row] = Neighbor{Row: row, Distance: squaredL2(probe, vec)}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Row < neighbors[j].Row
	})

	return neighbors[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
