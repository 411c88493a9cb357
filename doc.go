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

// Package composite combines independently built HTTP handlers into one
// logical handler, dispatched by URL path prefix.
//
// The package models request handling in two layers, matching server
// frameworks that build a per-connection handler from connection context:
//
//   - [Factory] builds a [Handler] from a context (possibly slowly,
//     possibly failing)
//   - [Handler] turns one request into one response, reporting failures
//     to its caller
//
// [CompositeFactory] wraps an ordered list of (base path, child factory)
// pairs and satisfies the same factory contract; [CompositeHandler] wraps
// the resolved (base path, child handler) pairs and satisfies both
// [Handler] and [http.Handler]. Because the composite is substitutable
// anywhere a single factory or handler fits, composites nest.
//
// # Dispatch Semantics
//
// Matching is a literal string-prefix test on the raw request path,
// scanned in registration order, first match wins. There is no longest-
// prefix preference, no trailing-slash normalization, and no segment
// awareness: "/ab" matches the prefix "/a", and an entry registered
// under "/" shadows everything registered after it. Callers own prefix
// disjointness and ordering; duplicate prefixes silently shadow.
//
// When no prefix matches, the composite answers with a bare 404 and an
// empty body (configurable via [WithNotFound]) without consulting any
// child handler.
//
// # Basic Usage
//
//	f := composite.MustNew()
//	f.Register("/petstore", petstoreFactory)
//	f.Register("/inventory", inventoryFactory)
//
//	h, err := f.Build(ctx)
//	if err != nil {
//	    // one or more child services failed to come up; the composite
//	    // is all-or-nothing, so no handler was produced
//	    log.Fatal(err)
//	}
//	log.Fatal(h.Serve(":8080"))
//
// # Construction Semantics
//
// Build fans out to every child factory concurrently and waits for all
// of them, preserving registration order in the result. If any child
// fails the whole build fails: a composite service is only meaningful
// when every sub-service behind it is available.
//
// # Observability
//
// The composite itself stays silent by default. [WithLogger] attaches
// structured logging, and [WithObservability] attaches an
// [ObservabilityRecorder] with hooks around builds and dispatch. The
// metrics and tracing subpackages provide OpenTelemetry-backed
// recorders:
//
//	rec := metrics.MustNew(metrics.WithServiceName("gateway"))
//	f := composite.MustNew(
//	    composite.WithLogger(logger),
//	    composite.WithObservability(rec),
//	)
package composite
