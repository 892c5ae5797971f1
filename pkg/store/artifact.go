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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

// Fixed member names under a document's namespace prefix.
const (
	MemberIndex    = "index.bin"
	MemberTexts    = "texts.json"
	MemberMetadata = "metadata.json"
	memberManifest = "manifest.json"
)

// Manifest is the commit record of a persisted vector store. It is
// written last, after all three artifacts and the original document are
// durable, and a store is only readable through it: a crash between
// artifact writes leaves at most unreachable objects, never a readable
// inconsistent store.
type Manifest struct {
	DocID     string    `json:"doc_id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	Dimension int       `json:"dimension"`
	Passages  int       `json:"passages"`
	UploadID  string    `json:"upload_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Locations are the opaque URIs of a document's persisted objects.
type Locations struct {
	Document string `json:"document"`
	Index    string `json:"index"`
	Texts    string `json:"texts"`
	Metadata string `json:"metadata"`
}

// ArtifactStore persists the three co-indexed artifacts of a vector
// store, plus the original document bytes, under a per-tenant namespace
// keyed by (user_id, doc_id). Namespaces never share storage: the same
// document uploaded by two tenants is stored twice.
type ArtifactStore struct {
	objects ObjectStore
}

// NewArtifactStore wraps an object store backend.
func NewArtifactStore(objects ObjectStore) *ArtifactStore {
	return &ArtifactStore{objects: objects}
}

// prefix builds the namespace prefix users/{user_id}/{doc_id}/.
func prefix(userID, docID string) string {
	return "users/" + userID + "/" + docID + "/"
}

// validateIDs rejects identifiers that would escape or merge namespaces.
func validateIDs(userID, docID string) error {
	const op = "store.validate"
	for name, id := range map[string]string{"user_id": userID, "doc_id": docID} {
		if id == "" {
			return vectorstore.NewError(vectorstore.KindValidation, op, "%s must not be empty", name)
		}
		if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
			return vectorstore.NewError(vectorstore.KindValidation, op, "%s contains path separators", name)
		}
	}
	return nil
}

// Exists reports whether a complete, committed vector store is present
// for (user_id, doc_id): the manifest and all three artifacts.
func (s *ArtifactStore) Exists(ctx context.Context, userID, docID string) (bool, error) {
	const op = "store.exists"

	if err := validateIDs(userID, docID); err != nil {
		return false, err
	}

	base := prefix(userID, docID)
	for _, member := range []string{memberManifest, MemberIndex, MemberTexts, MemberMetadata} {
		ok, err := s.objects.Exists(ctx, base+member)
		if err != nil {
			return false, vectorstore.WrapError(vectorstore.KindStorage, op, "existence check failed", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// PutAll persists the original document and the three artifacts as one
// logical unit and commits them with a manifest write. Callers must
// serialize PutAll per (user_id, doc_id); the manifest ordering protects
// readers, not concurrent writers.
func (s *ArtifactStore) PutAll(ctx context.Context, userID, docID string, artifacts vectorstore.Artifacts, document []byte, filename string, dimension, passages int) (Locations, error) {
	const op = "store.put_all"

	if err := validateIDs(userID, docID); err != nil {
		return Locations{}, err
	}
	if filename == "" {
		return Locations{}, vectorstore.NewError(vectorstore.KindValidation, op, "filename must not be empty")
	}

	base := prefix(userID, docID)
	objects := []struct {
		key  string
		data []byte
	}{
		{base + sanitizeFilename(filename), document},
		{base + MemberIndex, artifacts.Index},
		{base + MemberTexts, artifacts.Texts},
		{base + MemberMetadata, artifacts.Metadata},
	}

	for _, obj := range objects {
		if err := s.objects.Put(ctx, obj.key, obj.data); err != nil {
			return Locations{}, vectorstore.WrapError(vectorstore.KindStorage, op, "write "+obj.key, err)
		}
	}

	// Confirm the staged objects before committing the manifest.
	for _, obj := range objects {
		ok, err := s.objects.Exists(ctx, obj.key)
		if err != nil {
			return Locations{}, vectorstore.WrapError(vectorstore.KindStorage, op, "confirm "+obj.key, err)
		}
		if !ok {
			return Locations{}, vectorstore.NewError(vectorstore.KindStorage, op, "object %s missing after write", obj.key)
		}
	}

	manifest := Manifest{
		DocID:     docID,
		UserID:    userID,
		Filename:  sanitizeFilename(filename),
		Dimension: dimension,
		Passages:  passages,
		UploadID:  uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return Locations{}, vectorstore.WrapError(vectorstore.KindStorage, op, "encode manifest", err)
	}
	if err := s.objects.Put(ctx, base+memberManifest, manifestJSON); err != nil {
		return Locations{}, vectorstore.WrapError(vectorstore.KindStorage, op, "commit manifest", err)
	}

	return s.Locations(userID, docID, filename), nil
}

// GetAll retrieves the three artifacts of a committed store. A missing
// manifest means the store was never ingested; a committed manifest with
// a missing artifact is a storage corruption, not a not-found.
func (s *ArtifactStore) GetAll(ctx context.Context, userID, docID string) (vectorstore.Artifacts, Manifest, error) {
	const op = "store.get_all"

	if err := validateIDs(userID, docID); err != nil {
		return vectorstore.Artifacts{}, Manifest{}, err
	}

	base := prefix(userID, docID)

	manifest, err := s.readManifest(ctx, op, userID, docID)
	if err != nil {
		return vectorstore.Artifacts{}, Manifest{}, err
	}

	var artifacts vectorstore.Artifacts
	for member, target := range map[string]*[]byte{
		MemberIndex:    &artifacts.Index,
		MemberTexts:    &artifacts.Texts,
		MemberMetadata: &artifacts.Metadata,
	} {
		data, err := s.objects.Get(ctx, base+member)
		if errors.Is(err, ErrObjectNotFound) {
			return vectorstore.Artifacts{}, Manifest{}, vectorstore.NewError(vectorstore.KindStorage, op,
				"store for document %s is committed but artifact %s is missing", docID, member)
		}
		if err != nil {
			return vectorstore.Artifacts{}, Manifest{}, vectorstore.WrapError(vectorstore.KindStorage, op, "read "+member, err)
		}
		*target = data
	}

	return artifacts, manifest, nil
}

// Locations returns the opaque URIs of a document's persisted objects.
func (s *ArtifactStore) Locations(userID, docID, filename string) Locations {
	base := prefix(userID, docID)
	return Locations{
		Document: s.objects.URI(base + sanitizeFilename(filename)),
		Index:    s.objects.URI(base + MemberIndex),
		Texts:    s.objects.URI(base + MemberTexts),
		Metadata: s.objects.URI(base + MemberMetadata),
	}
}

// Manifest returns the commit record of a persisted store without
// fetching its artifacts.
func (s *ArtifactStore) Manifest(ctx context.Context, userID, docID string) (Manifest, error) {
	const op = "store.manifest"

	if err := validateIDs(userID, docID); err != nil {
		return Manifest{}, err
	}
	return s.readManifest(ctx, op, userID, docID)
}

func (s *ArtifactStore) readManifest(ctx context.Context, op, userID, docID string) (Manifest, error) {
	manifestJSON, err := s.objects.Get(ctx, prefix(userID, docID)+memberManifest)
	if errors.Is(err, ErrObjectNotFound) {
		return Manifest{}, vectorstore.NewError(vectorstore.KindNotFound, op,
			"no vector store for user %s, document %s", userID, docID)
	}
	if err != nil {
		return Manifest{}, vectorstore.WrapError(vectorstore.KindStorage, op, "read manifest", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return Manifest{}, vectorstore.WrapError(vectorstore.KindStorage, op, "decode manifest", err)
	}
	return manifest, nil
}

// sanitizeFilename keeps only the final path element of an uploaded
// filename so it cannot traverse the namespace.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	if filename == "" || filename == "." || filename == ".." {
		return "document"
	}
	return filename
}
