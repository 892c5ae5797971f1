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

// Package chunker turns parsed document segments into retrievable passages.
//
// Short documents pass through one passage per segment, keeping exact page
// attribution. Longer documents are re-split into overlapping fixed-size
// windows, trading page exactness for recall at passage boundaries.
package chunker

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/echovector/pkg/parser"
	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

// Config tunes the chunking policy. The zero value gets defaults applied.
type Config struct {
	// WindowSize is the passage window size in tokenizer units.
	// Default: 512
	WindowSize int `yaml:"window_size,omitempty"`

	// Overlap is the number of units shared by adjacent windows.
	// Default: 50
	Overlap int `yaml:"overlap,omitempty"`

	// SegmentLimit is the segment count at or below which a document
	// passes through unsplit, one passage per segment.
	// Default: 2
	SegmentLimit int `yaml:"segment_limit,omitempty"`

	// Tokenizer selects the window unit: "tiktoken" or "rune".
	// Default: "tiktoken"
	Tokenizer string `yaml:"tokenizer,omitempty"`

	// Encoding is the tiktoken encoding name.
	// Default: "cl100k_base"
	Encoding string `yaml:"encoding,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 512
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.SegmentLimit <= 0 {
		c.SegmentLimit = 2
	}
	if c.Tokenizer == "" {
		c.Tokenizer = "tiktoken"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must be non-negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.WindowSize {
		return fmt.Errorf("overlap (%d) must be less than window_size (%d)", c.Overlap, c.WindowSize)
	}
	switch c.Tokenizer {
	case "", "tiktoken", "rune":
	default:
		return fmt.Errorf("unknown tokenizer %q", c.Tokenizer)
	}
	return nil
}

// Chunker splits parsed segments into passages.
type Chunker struct {
	config    Config
	tokenizer Tokenizer
}

// New creates a chunker with an explicit tokenizer.
func New(cfg Config, tokenizer Tokenizer) (*Chunker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	return &Chunker{config: cfg, tokenizer: tokenizer}, nil
}

// NewFromConfig creates a chunker, constructing the configured tokenizer.
func NewFromConfig(cfg Config) (*Chunker, error) {
	cfg.SetDefaults()

	var tokenizer Tokenizer
	switch cfg.Tokenizer {
	case "rune":
		tokenizer = RuneTokenizer{}
	default:
		tk, err := NewTiktokenTokenizer(cfg.Encoding)
		if err != nil {
			return nil, err
		}
		tokenizer = tk
	}

	return New(cfg, tokenizer)
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config { return c.config }

// Chunk turns ordered segments into ordered passages.
//
// With at most SegmentLimit segments the input passes through unchanged,
// one passage per segment. Otherwise each segment is re-split into
// overlapping windows, every window carrying its source segment's
// metadata; windows never span segments. Blank segments produce no
// passages, so a blank document yields an empty result.
func (c *Chunker) Chunk(segments []parser.Segment) ([]vectorstore.Passage, error) {
	if len(segments) <= c.config.SegmentLimit {
		passages := make([]vectorstore.Passage, 0, len(segments))
		for _, segment := range segments {
			if strings.TrimSpace(segment.Text) == "" {
				continue
			}
			passages = append(passages, vectorstore.Passage{
				Text:     segment.Text,
				Metadata: segment.Metadata,
			})
		}
		return passages, nil
	}

	var passages []vectorstore.Passage
	step := c.config.WindowSize - c.config.Overlap

	for _, segment := range segments {
		tokens := c.tokenizer.Encode(segment.Text)
		if len(tokens) == 0 {
			continue
		}

		for start := 0; start < len(tokens); start += step {
			end := start + c.config.WindowSize
			if end > len(tokens) {
				end = len(tokens)
			}

			text := c.tokenizer.Decode(tokens[start:end])
			if strings.TrimSpace(text) != "" {
				passages = append(passages, vectorstore.Passage{
					Text:     text,
					Metadata: segment.Metadata,
				})
			}

			if end == len(tokens) {
				break
			}
		}
	}

	return passages, nil
}

// WindowCount returns how many windows a segment of n units produces,
// given the configured window size and overlap.
func (c *Chunker) WindowCount(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= c.config.WindowSize {
		return 1
	}
	step := c.config.WindowSize - c.config.Overlap
	return 1 + (n-c.config.Overlap-1)/step
}
