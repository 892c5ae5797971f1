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

package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

const metaPageLabel = "page_label"

// pdfParser extracts one segment per PDF page.
type pdfParser struct{}

func (p *pdfParser) CanParse(filename string) bool {
	return hasExtension(filename, ".pdf")
}

func (p *pdfParser) Extensions() []string {
	return []string{".pdf"}
}

func (p *pdfParser) Parse(ctx context.Context, data []byte, filename string) ([]Segment, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse PDF %s: %w", filename, err)
	}

	totalPages := reader.NumPage()
	segments := make([]Segment, 0, totalPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", pageNum, filename, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		segments = append(segments, Segment{
			Text: text,
			Metadata: map[string]string{
				metaPageLabel: strconv.Itoa(pageNum),
				"file_name":   filename,
				"type":        "pdf",
			},
		})
	}

	return segments, nil
}

// officeParser extracts DOCX body text and XLSX sheets.
type officeParser struct{}

func (p *officeParser) CanParse(filename string) bool {
	return hasExtension(filename, ".docx", ".xlsx")
}

func (p *officeParser) Extensions() []string {
	return []string{".docx", ".xlsx"}
}

func (p *officeParser) Parse(ctx context.Context, data []byte, filename string) ([]Segment, error) {
	if hasExtension(filename, ".docx") {
		return p.parseWord(data, filename)
	}
	return p.parseExcel(ctx, data, filename)
}

// parseWord extracts the document body as a single segment. The DOCX
// format has no fixed page boundaries before layout, so the whole body
// is attributed to page 1.
func (p *officeParser) parseWord(data []byte, filename string) ([]Segment, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse DOCX %s: %w", filename, err)
	}
	defer doc.Close()

	content := stripWordTags(doc.Editable().GetContent())
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	return []Segment{{
		Text: content,
		Metadata: map[string]string{
			metaPageLabel: "1",
			"file_name":   filename,
			"type":        "docx",
		},
	}}, nil
}

// parseExcel extracts one segment per sheet, rows joined as lines with
// tab-separated cells. The sheet name stands in as the page label.
func (p *officeParser) parseExcel(ctx context.Context, data []byte, filename string) ([]Segment, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse XLSX %s: %w", filename, err)
	}
	defer f.Close()

	var segments []Segment
	for _, sheet := range f.GetSheetList() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, filename, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
		}
		if sb.Len() == 0 {
			continue
		}

		segments = append(segments, Segment{
			Text: sb.String(),
			Metadata: map[string]string{
				metaPageLabel: sheet,
				"file_name":   filename,
				"type":        "xlsx",
			},
		})
	}

	return segments, nil
}

// stripWordTags removes the XML run markup GetContent leaves behind,
// keeping only text content.
func stripWordTags(content string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// plaintextParser handles text-native formats as a single segment.
type plaintextParser struct{}

func (p *plaintextParser) CanParse(filename string) bool {
	return hasExtension(filename, ".txt", ".md", ".markdown", ".csv", ".log")
}

func (p *plaintextParser) Extensions() []string {
	return []string{".txt", ".md", ".markdown", ".csv", ".log"}
}

func (p *plaintextParser) Parse(_ context.Context, data []byte, filename string) ([]Segment, error) {
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return []Segment{{
		Text: text,
		Metadata: map[string]string{
			metaPageLabel: "1",
			"file_name":   filename,
			"type":        "text",
		},
	}}, nil
}
