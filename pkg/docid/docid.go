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

// Package docid derives deterministic content identifiers for documents.
//
// The identifier is the hex SHA-256 digest of the raw document bytes, so
// identical bytes always map to the same id across runs and processes, and
// distinct documents collide only with negligible probability.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// FromBytes returns the content identifier for the given document bytes.
func FromBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FromReader returns the content identifier for a document streamed from r.
func FromReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("read document bytes: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
