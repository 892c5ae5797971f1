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

// Package parser extracts ordered text segments from uploaded documents.
//
// Each parser turns raw document bytes into a sequence of segments in
// document order, one per source page where the format has pages. Parsers
// never drop a page silently: extraction failures surface as errors.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Segment is one parsed unit of source text, typically a page, carrying
// its page metadata.
type Segment struct {
	Text     string
	Metadata map[string]string
}

// Parser extracts segments from one document format family.
type Parser interface {
	// CanParse reports whether this parser handles the file.
	CanParse(filename string) bool

	// Parse extracts ordered segments from the document bytes.
	Parse(ctx context.Context, data []byte, filename string) ([]Segment, error)

	// Extensions lists the supported file extensions.
	Extensions() []string
}

// Registry dispatches to the first parser that accepts a filename.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry with the built-in parsers: PDF, Office
// (DOCX, XLSX) and plain text.
func NewRegistry() *Registry {
	return &Registry{parsers: []Parser{
		&pdfParser{},
		&officeParser{},
		&plaintextParser{},
	}}
}

// Register appends a custom parser. Built-in parsers take precedence.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parse extracts segments from the document, dispatching on filename.
func (r *Registry) Parse(ctx context.Context, data []byte, filename string) ([]Segment, error) {
	for _, p := range r.parsers {
		if p.CanParse(filename) {
			return p.Parse(ctx, data, filename)
		}
	}
	return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(filename))
}

// Extensions returns all supported file extensions.
func (r *Registry) Extensions() []string {
	seen := make(map[string]bool)
	var result []string
	for _, p := range r.parsers {
		for _, ext := range p.Extensions() {
			if !seen[ext] {
				seen[ext] = true
				result = append(result, ext)
			}
		}
	}
	return result
}

func hasExtension(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
