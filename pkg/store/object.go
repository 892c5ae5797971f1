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

// Package store persists per-tenant vector stores as durable,
// content-addressed artifacts.
//
// The ObjectStore interface is a flat key/object space; ArtifactStore
// layers the namespacing, member layout and manifest-gated commit
// protocol on top of it. Two backends ship: plain filesystem and Badger.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kadirpekel/echovector/pkg/config"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a minimal durable key/object space. Keys are
// slash-separated paths; writes replace whole objects.
type ObjectStore interface {
	// Put stores data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object at key, or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// URI returns an opaque location identifier for key.
	URI(key string) string

	// Close releases backend resources.
	Close() error
}

// NewObjectStore constructs the configured backend.
func NewObjectStore(cfg config.StorageConfig) (ObjectStore, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	switch cfg.Backend {
	case "badger":
		return NewBadgerStore(cfg.Path)
	default:
		return NewFSStore(cfg.Path)
	}
}
