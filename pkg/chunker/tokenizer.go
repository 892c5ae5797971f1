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

package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer measures and slices text in the units the window size and
// overlap are expressed in.
type Tokenizer interface {
	// Encode splits text into token ids.
	Encode(text string) []int

	// Decode reassembles a token id slice into text. Decoding a
	// contiguous sub-slice of an Encode result yields the corresponding
	// span of the original text.
	Decode(tokens []int) string
}

var (
	encodingCache   = make(map[string]*tiktoken.Tiktoken)
	encodingCacheMu sync.Mutex
)

// TiktokenTokenizer counts window units in BPE tokens, matching what
// embedding models consume.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named tiktoken encoding, falling back to
// cl100k_base when the name is empty. Encodings are cached per process.
func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	if encodingName == "" {
		encodingName = "cl100k_base"
	}

	encodingCacheMu.Lock()
	defer encodingCacheMu.Unlock()

	if cached, ok := encodingCache[encodingName]; ok {
		return &TiktokenTokenizer{encoding: cached}, nil
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	encodingCache[encodingName] = encoding

	return &TiktokenTokenizer{encoding: encoding}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}

// RuneTokenizer counts window units in runes. It needs no vocabulary
// download, which makes it the choice for air-gapped deployments and for
// tests.
type RuneTokenizer struct{}

func (RuneTokenizer) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}
