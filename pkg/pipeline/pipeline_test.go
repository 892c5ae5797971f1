package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echovector/pkg/chunker"
	"github.com/kadirpekel/echovector/pkg/config"
	"github.com/kadirpekel/echovector/pkg/docid"
	"github.com/kadirpekel/echovector/pkg/embedder"
	"github.com/kadirpekel/echovector/pkg/parser"
	"github.com/kadirpekel/echovector/pkg/store"
	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.ArtifactStore) {
	t.Helper()

	fs, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	artifacts := store.NewArtifactStore(fs)

	ch, err := chunker.New(
		chunker.Config{WindowSize: 64, Overlap: 8, SegmentLimit: 2, Tokenizer: "rune"},
		chunker.RuneTokenizer{},
	)
	require.NoError(t, err)

	emb, err := embedder.NewHash(config.EmbedderConfig{Dimension: 32})
	require.NoError(t, err)

	ingestor, err := New(parser.NewRegistry(), ch, emb, artifacts, nil, nil)
	require.NoError(t, err)
	return ingestor, artifacts
}

func TestIngest_CreatesStore(t *testing.T) {
	ingestor, artifacts := newTestIngestor(t)
	ctx := context.Background()

	document := []byte("The grand total of the invoice is 42 euros.\n")
	result, err := ingestor.Ingest(ctx, "alice", document, "invoice.txt")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, docid.FromBytes(document), result.DocID)
	assert.NotEmpty(t, result.Locations.Index)
	assert.NotEmpty(t, result.Locations.Document)

	ok, err := artifacts.Exists(ctx, "alice", result.DocID)
	require.NoError(t, err)
	assert.True(t, ok)

	// The persisted store decodes and is queryable.
	persisted, _, err := artifacts.GetAll(ctx, "alice", result.DocID)
	require.NoError(t, err)
	vs, err := vectorstore.Decode(persisted)
	require.NoError(t, err)
	assert.Equal(t, 1, vs.Len())
	assert.Equal(t, 32, vs.Dimension())
}

func TestIngest_IdenticalBytesShortCircuit(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	document := []byte("same document twice")

	first, err := ingestor.Ingest(ctx, "alice", document, "doc.txt")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := ingestor.Ingest(ctx, "alice", document, "doc.txt")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.DocID, second.DocID)
	assert.Equal(t, first.Locations, second.Locations)
}

func TestIngest_ShortCircuitKeepsOriginalFilename(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	document := []byte("same bytes, new name")

	first, err := ingestor.Ingest(ctx, "alice", document, "original.txt")
	require.NoError(t, err)
	second, err := ingestor.Ingest(ctx, "alice", document, "renamed.txt")
	require.NoError(t, err)
	assert.False(t, second.Created)

	// The document URI points at the object written on first ingest; the
	// second upload's filename was never persisted.
	assert.Equal(t, first.Locations, second.Locations)
	assert.Contains(t, second.Locations.Document, "original.txt")
}

// countingEmbedder counts batch calls and holds each one open briefly so
// concurrent ingestions of the same key overlap.
type countingEmbedder struct {
	embedder.Embedder
	batches atomic.Int64
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches.Add(1)
	time.Sleep(20 * time.Millisecond)
	return c.Embedder.EmbedBatch(ctx, texts)
}

func TestIngest_ConcurrentSameKeyRunsOnce(t *testing.T) {
	fs, err := store.NewFSStore(t.TempDir())
	require.NoError(t, err)
	artifacts := store.NewArtifactStore(fs)

	ch, err := chunker.New(
		chunker.Config{WindowSize: 64, Overlap: 8, SegmentLimit: 2, Tokenizer: "rune"},
		chunker.RuneTokenizer{},
	)
	require.NoError(t, err)

	hash, err := embedder.NewHash(config.EmbedderConfig{Dimension: 32})
	require.NoError(t, err)
	emb := &countingEmbedder{Embedder: hash}

	ingestor, err := New(parser.NewRegistry(), ch, emb, artifacts, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	document := []byte("concurrently ingested document")
	id := docid.FromBytes(document)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	for n := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			results[n], errs[n] = ingestor.Ingest(ctx, "alice", document, "doc.txt")
		}(n)
	}
	close(start)
	wg.Wait()

	// Every caller saw the same store; callers collapsed into the single
	// flight and any latecomer hit the existence short-circuit, so the
	// artifacts were embedded and written exactly once.
	for n := range results {
		require.NoError(t, errs[n])
		assert.Equal(t, id, results[n].DocID)
		assert.Equal(t, results[0].Locations, results[n].Locations)
	}
	assert.EqualValues(t, 1, emb.batches.Load())

	persisted, _, err := artifacts.GetAll(ctx, "alice", id)
	require.NoError(t, err)
	vs, err := vectorstore.Decode(persisted)
	require.NoError(t, err)
	assert.Equal(t, 1, vs.Len())
	assert.Equal(t, 32, vs.Dimension())
}

func TestIngest_SameBytesDifferentUsers(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	document := []byte("shared document")

	alice, err := ingestor.Ingest(ctx, "alice", document, "doc.txt")
	require.NoError(t, err)
	bob, err := ingestor.Ingest(ctx, "bob", document, "doc.txt")
	require.NoError(t, err)

	// Same content hash, separate stores.
	assert.Equal(t, alice.DocID, bob.DocID)
	assert.True(t, alice.Created)
	assert.True(t, bob.Created)
	assert.NotEqual(t, alice.Locations.Index, bob.Locations.Index)
}

func TestIngest_InputValidation(t *testing.T) {
	ingestor, _ := newTestIngestor(t)
	ctx := context.Background()

	_, err := ingestor.Ingest(ctx, "", []byte("x"), "a.txt")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation))

	_, err = ingestor.Ingest(ctx, "alice", nil, "a.txt")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation))

	_, err = ingestor.Ingest(ctx, "alice", []byte("x"), "")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation))
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	_, err := ingestor.Ingest(context.Background(), "alice", []byte("x"), "photo.jpeg")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindParse))
}

func TestIngest_CorruptDocument(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	_, err := ingestor.Ingest(context.Background(), "alice", []byte("not a pdf"), "broken.pdf")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindParse))
}

func TestIngest_BlankDocument(t *testing.T) {
	ingestor, artifacts := newTestIngestor(t)
	ctx := context.Background()

	document := []byte("   \n\t\n   ")
	_, err := ingestor.Ingest(ctx, "alice", document, "blank.txt")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation))

	// Nothing was committed.
	ok, err := artifacts.Exists(ctx, "alice", docid.FromBytes(document))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIngest_LongDocumentIsWindowed(t *testing.T) {
	ingestor, artifacts := newTestIngestor(t)
	ctx := context.Background()

	// One long plain-text segment stays below the segment limit, so the
	// passage count is 1 regardless of length.
	document := []byte(strings.Repeat("windowed content here. ", 50))
	result, err := ingestor.Ingest(ctx, "alice", document, "long.txt")
	require.NoError(t, err)

	manifest, err := artifacts.Manifest(ctx, "alice", result.DocID)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Passages)
}

func TestIngest_RequiredDependencies(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
