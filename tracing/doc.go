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

// Package tracing provides an OpenTelemetry-backed tracing recorder for
// composite dispatch and construction.
//
// The [Tracer] implements composite.ObservabilityRecorder and creates:
//
//   - one span per composite build, carrying the fan-out outcome
//   - one span per dispatched request, named by the matched base path
//     and carrying the child handler's error, if any
//
// Incoming W3C trace context is extracted from request headers, so
// composite spans join the caller's trace.
//
// # Providers
//
// The default provider is noop: spans are created but never exported,
// which keeps context propagation working at near-zero cost. Stdout,
// OTLP gRPC, and OTLP HTTP exporters are available:
//
//	tracer := tracing.MustNew(
//	    tracing.WithServiceName("gateway"),
//	    tracing.WithOTLP("localhost:4317"),
//	)
//	if err := tracer.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	f := composite.MustNew(composite.WithObservability(tracer))
//
// OTLP providers open network connections and are therefore initialized
// by [Tracer.Start], not by [New]; noop and stdout providers are ready
// immediately and Start is a no-op for them.
package tracing
