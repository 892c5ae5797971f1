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

package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary layout: magic, format version, dimension, row count, then row
// vectors as little-endian float32. The format is lossless so a decoded
// index searches identically to the one encoded.
var flatMagic = [4]byte{'E', 'V', 'F', 'I'}

const flatVersion uint8 = 1

// maxDecodeRows bounds decoding against corrupt headers.
const maxDecodeRows = 1 << 24

// Encode writes the index in its binary format.
func (f *Flat) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(flatMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := bw.WriteByte(flatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(f.dim)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(f.vectors))); err != nil {
		return fmt.Errorf("write row count: %w", err)
	}
	for row, vec := range f.vectors {
		if err := binary.Write(bw, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	return bw.Flush()
}

// Decode reads an index previously written by Encode.
func Decode(r io.Reader) (*Flat, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != flatMagic {
		return nil, fmt.Errorf("bad magic %q, not a flat index", magic)
	}

	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != flatVersion {
		return nil, fmt.Errorf("unsupported index format version %d", version)
	}

	var dim, count uint32
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}
	if dim == 0 {
		return nil, fmt.Errorf("index header declares zero dimension")
	}
	if count > maxDecodeRows {
		return nil, fmt.Errorf("index header declares %d rows, refusing to decode", count)
	}

	f := &Flat{dim: int(dim), vectors: make([][]float32, 0, count)}
	for row := uint32(0); row < count; row++ {
		vec := make([]float32, dim)
		if err := binary.Read(br, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		f.vectors = append(f.vectors, vec)
	}

	return f, nil
}
