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
	"bytes"
	"encoding/json"

	"github.com/kadirpekel/echovector/pkg/index"
)

// Artifacts is the serialized form of a Store: the three position-aligned
// objects persisted per document. In memory the store is a single record
// sequence; the three-way split exists only at the persistence boundary.
type Artifacts struct {
	Index    []byte // binary flat index, row i = passage i
	Texts    []byte // JSON array of passage texts
	Metadata []byte // JSON array of passage metadata maps
}

// Encode serializes the store into its three artifacts.
func (s *Store) Encode() (Artifacts, error) {
	const op = "vectorstore.encode"

	var indexBuf bytes.Buffer
	if err := s.idx.Encode(&indexBuf); err != nil {
		return Artifacts{}, WrapError(KindStorage, op, "encode index", err)
	}

	texts := make([]string, len(s.records))
	metadata := make([]map[string]string, len(s.records))
	for i, record := range s.records {
		texts[i] = record.Text
		metadata[i] = record.Metadata
	}

	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return Artifacts{}, WrapError(KindStorage, op, "encode texts", err)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return Artifacts{}, WrapError(KindStorage, op, "encode metadata", err)
	}

	return Artifacts{Index: indexBuf.Bytes(), Texts: textsJSON, Metadata: metaJSON}, nil
}

// Decode rebuilds a store from its three artifacts, verifying that they
// are position-aligned. Misaligned artifacts mean the persisted store is
// corrupt and are reported as a storage error, never served.
func Decode(a Artifacts) (*Store, error) {
	const op = "vectorstore.decode"

	idx, err := index.Decode(bytes.NewReader(a.Index))
	if err != nil {
		return nil, WrapError(KindStorage, op, "decode index artifact", err)
	}

	var texts []string
	if err := json.Unmarshal(a.Texts, &texts); err != nil {
		return nil, WrapError(KindStorage, op, "decode texts artifact", err)
	}
	var metadata []map[string]string
	if err := json.Unmarshal(a.Metadata, &metadata); err != nil {
		return nil, WrapError(KindStorage, op, "decode metadata artifact", err)
	}

	if idx.Len() != len(texts) || idx.Len() != len(metadata) {
		return nil, NewError(KindStorage, op,
			"artifact rows misaligned: index=%d texts=%d metadata=%d",
			idx.Len(), len(texts), len(metadata))
	}
	if idx.Len() == 0 {
		return nil, NewError(KindStorage, op, "store has no passages")
	}

	records := make([]Record, len(texts))
	for i := range texts {
		records[i] = Record{Text: texts[i], Metadata: metadata[i]}
	}

	return &Store{records: records, idx: idx}, nil
}
