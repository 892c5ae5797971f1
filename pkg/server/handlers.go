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

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kadirpekel/echovector/pkg/query"
	"github.com/kadirpekel/echovector/pkg/store"
	"github.com/kadirpekel/echovector/pkg/vectorstore"
)

// ingestResponse is the body returned by POST /vectorstores.
type ingestResponse struct {
	DocID     string          `json:"doc_id"`
	Created   bool            `json:"created"`
	Message   string          `json:"message"`
	Locations store.Locations `json:"locations"`
}

// queryRequest is the body accepted by POST /vectorstores/query.
type queryRequest struct {
	UserID string `json:"user_id"`
	DocID  string `json:"doc_id"`
	Query  string `json:"query"`
	TopK   *int   `json:"top_k"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(w, vectorstore.NewError(vectorstore.KindValidation,
			"server.ingest", "invalid multipart form: %v", err))
		return
	}

	userID := r.FormValue("user_id")
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, vectorstore.NewError(vectorstore.KindValidation,
			"server.ingest", "file field is required"))
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, vectorstore.WrapError(vectorstore.KindInternal,
			"server.ingest", "read upload", err))
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), userID, document, header.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ingestResponse{
		DocID:     result.DocID,
		Created:   result.Created,
		Locations: result.Locations,
	}
	status := http.StatusCreated
	resp.Message = "vector store created"
	if !result.Created {
		status = http.StatusOK
		resp.Message = "vector store already exists"
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, vectorstore.NewError(vectorstore.KindValidation,
			"server.query", "invalid request body: %v", err))
		return
	}

	topK := s.cfg.DefaultTopK
	if topK <= 0 {
		topK = query.DefaultTopK
	}
	if req.TopK != nil {
		topK = *req.TopK
	}

	resp, err := s.querier.Query(r.Context(), req.UserID, req.DocID, req.Query, topK)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := vectorstore.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "kind", string(kind), "error", err)
	}

	var domainErr *vectorstore.Error
	message := err.Error()
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		if message == "" {
			message = domainErr.Error()
		}
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: string(kind), Message: message}})
}

func statusForKind(kind vectorstore.Kind) int {
	switch kind {
	case vectorstore.KindValidation:
		return http.StatusBadRequest
	case vectorstore.KindNotFound:
		return http.StatusNotFound
	case vectorstore.KindParse:
		return http.StatusUnprocessableEntity
	case vectorstore.KindEmbedding:
		return http.StatusBadGateway
	case vectorstore.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
