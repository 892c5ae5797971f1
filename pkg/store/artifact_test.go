package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

func newFSArtifactStore(t *testing.T) *ArtifactStore {
	t.Helper()
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return NewArtifactStore(fs)
}

func testArtifacts() vectorstore.Artifacts {
	return vectorstore.Artifacts{
		Index:    []byte("fake-index-bytes"),
		Texts:    []byte(`["a","b"]`),
		Metadata: []byte(`[{"page_label":"1"},{"page_label":"2"}]`),
	}
}

func TestArtifactStore_PutGetRoundTrip(t *testing.T) {
	s := newFSArtifactStore(t)
	ctx := context.Background()

	locations, err := s.PutAll(ctx, "alice", "doc1", testArtifacts(), []byte("raw"), "report.pdf", 2, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, locations.Index)
	assert.NotEmpty(t, locations.Document)

	ok, err := s.Exists(ctx, "alice", "doc1")
	require.NoError(t, err)
	assert.True(t, ok)

	artifacts, manifest, err := s.GetAll(ctx, "alice", "doc1")
	require.NoError(t, err)
	assert.Equal(t, testArtifacts(), artifacts)
	assert.Equal(t, "alice", manifest.UserID)
	assert.Equal(t, "doc1", manifest.DocID)
	assert.Equal(t, "report.pdf", manifest.Filename)
	assert.Equal(t, 2, manifest.Dimension)
	assert.Equal(t, 2, manifest.Passages)
	assert.NotEmpty(t, manifest.UploadID)
	assert.False(t, manifest.CreatedAt.IsZero())
}

func TestArtifactStore_MissingStoreIsNotFound(t *testing.T) {
	s := newFSArtifactStore(t)

	ok, err := s.Exists(context.Background(), "alice", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.GetAll(context.Background(), "alice", "nope")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindNotFound))
}

func TestArtifactStore_TenantIsolation(t *testing.T) {
	s := newFSArtifactStore(t)
	ctx := context.Background()

	_, err := s.PutAll(ctx, "alice", "doc1", testArtifacts(), []byte("raw"), "a.txt", 2, 2)
	require.NoError(t, err)

	// Same doc id, different tenant: invisible.
	ok, err := s.Exists(ctx, "bob", "doc1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.GetAll(ctx, "bob", "doc1")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindNotFound))

	// Both tenants can hold the same document independently.
	_, err = s.PutAll(ctx, "bob", "doc1", testArtifacts(), []byte("raw"), "a.txt", 2, 2)
	require.NoError(t, err)
	ok, err = s.Exists(ctx, "alice", "doc1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArtifactStore_UncommittedStoreIsInvisible(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	s := NewArtifactStore(fs)
	ctx := context.Background()

	// Stage artifacts without a manifest, as a crash mid-PutAll would.
	require.NoError(t, fs.Put(ctx, "users/alice/doc1/"+MemberIndex, []byte("x")))
	require.NoError(t, fs.Put(ctx, "users/alice/doc1/"+MemberTexts, []byte("[]")))
	require.NoError(t, fs.Put(ctx, "users/alice/doc1/"+MemberMetadata, []byte("[]")))

	ok, err := s.Exists(ctx, "alice", "doc1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.GetAll(ctx, "alice", "doc1")
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindNotFound))
}

func TestArtifactStore_CommittedButMissingArtifactIsStorageError(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	s := NewArtifactStore(fs)
	ctx := context.Background()

	_, err = s.PutAll(ctx, "alice", "doc1", testArtifacts(), []byte("raw"), "a.txt", 2, 2)
	require.NoError(t, err)

	require.NoError(t, fs.Delete(ctx, "users/alice/doc1/"+MemberTexts))

	_, _, err = s.GetAll(ctx, "alice", "doc1")
	require.Error(t, err)
	assert.True(t, vectorstore.IsKind(err, vectorstore.KindStorage))
}

func TestArtifactStore_RejectsBadIdentifiers(t *testing.T) {
	s := newFSArtifactStore(t)
	ctx := context.Background()

	for _, tc := range []struct{ user, doc string }{
		{"", "doc"},
		{"user", ""},
		{"../escape", "doc"},
		{"user", "a/b"},
		{"user", `a\b`},
	} {
		_, err := s.PutAll(ctx, tc.user, tc.doc, testArtifacts(), []byte("raw"), "a.txt", 2, 2)
		assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation), "%q/%q", tc.user, tc.doc)

		_, err = s.Exists(ctx, tc.user, tc.doc)
		assert.True(t, vectorstore.IsKind(err, vectorstore.KindValidation), "%q/%q", tc.user, tc.doc)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("report.pdf"))
	assert.Equal(t, "report.pdf", sanitizeFilename("/tmp/uploads/report.pdf"))
	assert.Equal(t, "report.pdf", sanitizeFilename(`C:\Users\x\report.pdf`))
	assert.Equal(t, "document", sanitizeFilename(""))
	assert.Equal(t, "document", sanitizeFilename(".."))
}
