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
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a machine-readable
// error object without inspecting messages.
type Kind string

const (
	// KindValidation covers malformed or empty input, including a
	// non-positive top_k.
	KindValidation Kind = "validation"

	// KindParse covers parser failures and unsupported document formats.
	KindParse Kind = "parse"

	// KindEmbedding covers embedding backend failures and dimension
	// mismatches.
	KindEmbedding Kind = "embedding"

	// KindStorage covers artifact read/write failures, including a store
	// with only some of its artifacts present.
	KindStorage Kind = "storage"

	// KindNotFound covers queries against a store that was never ingested.
	KindNotFound Kind = "not_found"

	// KindInternal is the fallback for errors that carry no kind.
	KindInternal Kind = "internal"
)

// Error is the single error type surfaced by the ingestion pipeline, the
// query service and the artifact store. Every stage fails fast and wraps
// the first underlying error verbatim.
type Error struct {
	Kind    Kind   // machine-readable classification
	Op      string // operation that failed, e.g. "pipeline.embed"
	Message string // human-readable summary
	Err     error  // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error without an underlying cause.
func NewError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors report
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
