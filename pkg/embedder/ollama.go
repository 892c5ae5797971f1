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

package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kadirpekel/echovector/pkg/config"
	"github.com/kadirpekel/echovector/pkg/httpclient"
)

// Ollama's llama runner crashes when it receives concurrent embedding
// requests, so all requests through this process are serialized.
var ollamaEmbedMu sync.Mutex

// Ollama implements Embedder against a local Ollama instance.
type Ollama struct {
	client    *httpclient.Client
	baseURL   string
	model     string
	dimension int
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllama creates an Ollama embedder from configuration.
func NewOllama(cfg config.EmbedderConfig) (*Ollama, error) {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 768 // nomic-embed-text
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &Ollama{
		client: httpclient.New(
			httpclient.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
	}, nil
}

// EmbedBatch embeds texts one by one; the Ollama embeddings endpoint has
// no batch form.
func (e *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}

	if err := checkDimensions(vectors, e.dimension, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Ollama) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := checkDimensions([][]float32{vec}, e.dimension, 1); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *Ollama) embed(ctx context.Context, text string) ([]float32, error) {
	ollamaEmbedMu.Lock()
	defer ollamaEmbedMu.Unlock()

	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send embedding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response ollamaEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("Ollama returned an empty embedding")
	}
	return response.Embedding, nil
}

// Dimension returns the embedding vector dimension.
func (e *Ollama) Dimension() int { return e.dimension }

// Model returns the model name in use.
func (e *Ollama) Model() string { return e.model }

// Close implements Embedder.
func (e *Ollama) Close() error { return nil }

var _ Embedder = (*Ollama)(nil)
