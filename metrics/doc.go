// Copyright 2025 The Rivaas Authors
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

// Package metrics provides an OpenTelemetry-backed observability
// recorder for composite dispatch and construction.
//
// The [Recorder] implements composite.ObservabilityRecorder and records:
//
//   - dispatch counts and durations, labeled by matched base path
//     (the registered prefix, never the raw request path, to keep
//     cardinality bounded)
//   - unmatched (not-found) request counts
//   - child handler errors
//   - composite build counts, durations, and failures
//
// # Providers
//
// Prometheus is the default provider; the metrics endpoint is served
// from [Recorder.Handler] on whatever mux the caller owns. OTLP HTTP
// and stdout exporters are available for push-based and development
// setups.
//
//	rec := metrics.MustNew(
//	    metrics.WithServiceName("gateway"),
//	)
//	f := composite.MustNew(composite.WithObservability(rec))
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", rec.MustHandler())
//
// By default the package does NOT set the global OpenTelemetry meter
// provider, so multiple recorders can coexist in one process. Use
// [WithGlobalMeterProvider] to opt in to global registration.
package metrics
