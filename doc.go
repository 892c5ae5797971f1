// Package echovector provides per-user, content-addressed vector stores
// over uploaded documents.
//
// EchoVector ingests a document once, identified by the SHA-256 of its
// bytes, and serves nearest-neighbor search over its chunks. Each user's
// stores are isolated under their own key prefix; re-uploading the same
// bytes is a no-op that returns the existing store.
//
// # Quick Start
//
// Install EchoVector:
//
//	go install github.com/kadirpekel/echovector/cmd/echovector@latest
//
// Start the server with the offline hash embedder and local storage:
//
//	echovector serve --embedder hash --storage ./data
//
// Ingest a document and query it:
//
//	curl -F user_id=alice -F file=@report.pdf http://localhost:8080/vectorstores
//	curl -d '{"user_id":"alice","doc_id":"<sha256>","query":"total revenue"}' \
//	    http://localhost:8080/vectorstores/query
//
// # Using as Go Library
//
// Import the packages directly:
//
//	import (
//	    "github.com/kadirpekel/echovector/pkg/pipeline"
//	    "github.com/kadirpekel/echovector/pkg/query"
//	    "github.com/kadirpekel/echovector/pkg/store"
//	)
//
// The pipeline package turns raw document bytes into persisted artifacts;
// the query package searches them. Both are wired from plain constructors,
// so any embedder.Embedder and store.ObjectStore implementation can be
// substituted.
package echovector
