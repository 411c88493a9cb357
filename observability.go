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

package composite

import (
	"context"
	"net/http"
)

// NotFoundPattern is the dispatch pattern reported to observability
// recorders when no registered prefix matched the request path.
// Recorders should prefer the pattern over the raw path to keep
// metric/span cardinality bounded.
const NotFoundPattern = "_not_found"

// ObservabilityRecorder provides lifecycle hooks around the two composite
// operations: building the child handler set and dispatching a request.
// Implementations typically combine metrics collection, distributed
// tracing, and access logging; see the metrics and tracing subpackages
// for ready-made recorders.
//
// Build lifecycle:
//  1. CompositeFactory.Build calls OnBuildStart(ctx) → (enrichedCtx, state)
//  2. Child factories receive enrichedCtx
//  3. OnBuildEnd(enrichedCtx, state, err) is called once the fan-out
//     settles, with the aggregate error (nil on success)
//
// Dispatch lifecycle:
//  1. CompositeHandler calls OnRequestStart(ctx, req) → (enrichedCtx, state)
//     - The enriched context is always attached to the request, even when
//       state is nil, so trace propagation works for excluded paths
//  2. The ResponseWriter is wrapped via WrapResponseWriter only if state != nil
//  3. The matched child handler (or the not-found handler) runs
//  4. OnRequestEnd(ctx, state, writer, prefix, err) is called only if
//     state != nil; prefix is the matched base path or [NotFoundPattern],
//     err is the child handler's error (nil for success and for not-found)
//
// Returning state == nil from OnRequestStart excludes the request from
// recording without losing context enrichment.
//
// Thread safety: all methods must be safe for concurrent use.
type ObservabilityRecorder interface {
	// OnBuildStart is called before the child-factory fan-out begins.
	// The returned context is passed to every child factory.
	OnBuildStart(ctx context.Context) (context.Context, any)

	// OnBuildEnd is called after every child build has settled.
	// err is the aggregate build error, nil on success.
	OnBuildEnd(ctx context.Context, state any, err error)

	// OnRequestStart is called before prefix matching begins.
	// Return (enrichedCtx, nil) to exclude the request from recording.
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)

	// WrapResponseWriter wraps the writer to capture response metadata.
	// The wrapped writer should implement [ResponseInfo]. If state is
	// nil this must return w unchanged.
	WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter

	// OnRequestEnd is called after dispatch completes. prefix is the
	// matched base path or [NotFoundPattern]; err is the child
	// handler's error, passed through unmodified.
	OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, prefix string, err error)
}

// ResponseInfo is implemented by response writers that track response
// metadata. Recorders should type-assert the writer handed to
// OnRequestEnd to extract status and size.
type ResponseInfo interface {
	StatusCode() int
	Size() int64
}
