package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, vectors ...[]float32) *Flat {
	t.Helper()
	idx, err := NewFlat(len(vectors[0]))
	require.NoError(t, err)
	for _, v := range vectors {
		require.NoError(t, idx.Add(v))
	}
	return idx
}

func TestNewFlat_InvalidDimension(t *testing.T) {
	_, err := NewFlat(0)
	assert.Error(t, err)
	_, err = NewFlat(-3)
	assert.Error(t, err)
}

func TestFlat_Add_DimensionMismatch(t *testing.T) {
	idx, err := NewFlat(3)
	require.NoError(t, err)
	assert.Error(t, idx.Add([]float32{1, 2}))
	assert.NoError(t, idx.Add([]float32{1, 2, 3}))
	assert.Equal(t, 1, idx.Len())
}

func TestFlat_Search_OrderedByDistance(t *testing.T) {
	idx := buildIndex(t,
		[]float32{10, 0}, // far
		[]float32{1, 0},  // near
		[]float32{5, 0},  // middle
	)

	neighbors, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, neighbors, 3)

	assert.Equal(t, 1, neighbors[0].Row)
	assert.Equal(t, 2, neighbors[1].Row)
	assert.Equal(t, 0, neighbors[2].Row)
	assert.Less(t, neighbors[0].Distance, neighbors[1].Distance)
	assert.Less(t, neighbors[1].Distance, neighbors[2].Distance)
}

func TestFlat_Search_TiesBreakByRow(t *testing.T) {
	// Two vectors equidistant from the probe.
	idx := buildIndex(t,
		[]float32{1, 0},
		[]float32{-1, 0},
		[]float32{0, 3},
	)

	neighbors, err := idx.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, 0, neighbors[0].Row)
	assert.Equal(t, 1, neighbors[1].Row)
	assert.Equal(t, neighbors[0].Distance, neighbors[1].Distance)
}

func TestFlat_Search_ClampsK(t *testing.T) {
	idx := buildIndex(t, []float32{1}, []float32{2})

	neighbors, err := idx.Search([]float32{0}, 10)
	require.NoError(t, err)
	assert.Len(t, neighbors, 2)
}

func TestFlat_Search_InvalidInput(t *testing.T) {
	idx := buildIndex(t, []float32{1, 2})

	_, err := idx.Search([]float32{0, 0}, 0)
	assert.Error(t, err)

	_, err = idx.Search([]float32{0}, 1)
	assert.Error(t, err)
}

func TestFlat_Search_Deterministic(t *testing.T) {
	idx := buildIndex(t,
		[]float32{0.1, 0.9},
		[]float32{0.2, 0.8},
		[]float32{0.3, 0.7},
		[]float32{0.4, 0.6},
	)

	first, err := idx.Search([]float32{0.25, 0.75}, 4)
	require.NoError(t, err)
	second, err := idx.Search([]float32{0.25, 0.75}, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCodec_RoundTrip(t *testing.T) {
	idx := buildIndex(t,
		[]float32{1.5, -2.25, 0},
		[]float32{0.001, 1000, -0.5},
	)

	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.Dimension(), decoded.Dimension())
	assert.Equal(t, idx.Len(), decoded.Len())

	// Same nearest neighbors after the round trip.
	want, err := idx.Search([]float32{1, -2, 0}, 2)
	require.NoError(t, err)
	got, err := decoded.Search([]float32{1, -2, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an index")))
	assert.Error(t, err)
}

func TestCodec_RejectsTruncated(t *testing.T) {
	idx := buildIndex(t, []float32{1, 2, 3})
	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf))

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := Decode(bytes.NewReader(truncated))
	assert.Error(t, err)
}
