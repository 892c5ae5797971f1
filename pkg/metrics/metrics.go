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

// Package metrics exposes Prometheus instrumentation for ingestion and
// query traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcome label values.
const (
	OutcomeCreated = "created"
	OutcomeExists  = "exists"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	IngestTotal     *prometheus.CounterVec
	IngestDuration  prometheus.Histogram
	QueryTotal      *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
	PassagesPerDoc  prometheus.Histogram
	EmbeddedBatches prometheus.Counter
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IngestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echovector",
			Name:      "ingest_total",
			Help:      "Ingestion requests by outcome.",
		}, []string{"outcome"}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "echovector",
			Name:      "ingest_duration_seconds",
			Help:      "End-to-end ingestion latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		QueryTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echovector",
			Name:      "query_total",
			Help:      "Query requests by outcome.",
		}, []string{"outcome"}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "echovector",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		PassagesPerDoc: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "echovector",
			Name:      "passages_per_document",
			Help:      "Passage count per ingested document.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		EmbeddedBatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "echovector",
			Name:      "embedded_batches_total",
			Help:      "Batched embedding calls issued to the backend.",
		}),
	}
}
