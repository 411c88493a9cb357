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

package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/composite"
)

// buildSpanName is the span name for composite build fan-outs.
const buildSpanName = "composite.build"

// dispatchSpanName is the initial span name for dispatched requests;
// OnRequestEnd renames the span to the matched base path.
const dispatchSpanName = "composite.dispatch"

// OnBuildStart implements composite.ObservabilityRecorder. It opens a
// span covering the whole child-factory fan-out.
func (t *Tracer) OnBuildStart(ctx context.Context) (context.Context, any) {
	ctx, span := t.tracer.Start(ctx, buildSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// OnBuildEnd implements composite.ObservabilityRecorder.
func (t *Tracer) OnBuildEnd(ctx context.Context, state any, err error) {
	span, ok := state.(trace.Span)
	if !ok {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "composite build failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// OnRequestStart implements composite.ObservabilityRecorder. Incoming
// trace context is extracted from the request headers even for excluded
// paths, so downstream propagation always works; a span is only started
// for recorded paths.
func (t *Tracer) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))

	if t.excludePaths[req.URL.Path] {
		return ctx, nil
	}

	ctx, span := t.tracer.Start(ctx, dispatchSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.target", req.URL.Path),
		),
	)
	return ctx, span
}

// WrapResponseWriter implements composite.ObservabilityRecorder.
func (t *Tracer) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

// OnRequestEnd implements composite.ObservabilityRecorder. The span is
// renamed to the matched base path (bounded cardinality, unlike the raw
// request path) and carries the child handler's error verbatim.
func (t *Tracer) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, prefix string, err error) {
	span, ok := state.(trace.Span)
	if !ok {
		return
	}

	span.SetName(dispatchSpanName + " " + prefix)
	span.SetAttributes(attribute.String("composite.prefix", prefix))

	if info, ok := w.(composite.ResponseInfo); ok {
		span.SetAttributes(
			attribute.Int("http.status_code", info.StatusCode()),
			attribute.Int64("http.response.size", info.Size()),
		)
	}

	// A not-found miss is defined behavior, not an error; only a child
	// handler failure marks the span as errored.
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "child handler failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
	written    bool
}

// WriteHeader captures the status code and prevents duplicate calls.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write captures the response size and marks as written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the HTTP status code.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the response size in bytes.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

// Written returns true if headers have been written.
func (rw *responseWriter) Written() bool {
	return rw.written
}

// Compile-time checks against the composite contracts.
var (
	_ composite.ObservabilityRecorder = (*Tracer)(nil)
	_ composite.ResponseInfo          = (*responseWriter)(nil)
)
