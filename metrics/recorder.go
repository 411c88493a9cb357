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

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/composite"
)

// requestState carries per-request timing between the start and end hooks.
type requestState struct {
	start  time.Time
	method string
}

// buildState carries per-build timing between the start and end hooks.
type buildState struct {
	start time.Time
}

// OnBuildStart implements composite.ObservabilityRecorder.
func (r *Recorder) OnBuildStart(ctx context.Context) (context.Context, any) {
	return ctx, &buildState{start: time.Now()}
}

// OnBuildEnd implements composite.ObservabilityRecorder. It records the
// build duration and outcome.
func (r *Recorder) OnBuildEnd(ctx context.Context, state any, err error) {
	bs, ok := state.(*buildState)
	if !ok {
		return
	}

	attrs := metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr)
	r.buildCount.Add(ctx, 1, attrs)
	r.buildDuration.Record(ctx, time.Since(bs.start).Seconds(), attrs)
	if err != nil {
		r.buildFailures.Add(ctx, 1, attrs)
	}
}

// OnRequestStart implements composite.ObservabilityRecorder. Excluded
// paths return a nil state and are not recorded.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if r.excludePaths[req.URL.Path] {
		return ctx, nil
	}

	r.activeRequests.Add(ctx, 1, metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr))
	return ctx, &requestState{start: time.Now(), method: req.Method}
}

// WrapResponseWriter implements composite.ObservabilityRecorder.
func (r *Recorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

// OnRequestEnd implements composite.ObservabilityRecorder. It records
// the dispatch outcome labeled by the matched base path, never the raw
// request path, so cardinality stays bounded by the registration list.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, prefix string, err error) {
	rs, ok := state.(*requestState)
	if !ok {
		return
	}

	baseAttrs := metric.WithAttributes(r.serviceNameAttr, r.serviceVersionAttr)
	defer r.activeRequests.Add(ctx, -1, baseAttrs)

	status := 0
	if info, ok := w.(composite.ResponseInfo); ok {
		status = info.StatusCode()
	}

	attrs := []attribute.KeyValue{
		r.serviceNameAttr,
		r.serviceVersionAttr,
		attribute.String("composite.prefix", prefix),
		attribute.String("http.method", rs.method),
	}
	if status > 0 {
		attrs = append(attrs, attribute.String("http.status_class", statusClass(status)))
	}
	opt := metric.WithAttributes(attrs...)

	r.dispatchCount.Add(ctx, 1, opt)
	r.dispatchDuration.Record(ctx, time.Since(rs.start).Seconds(), opt)

	if prefix == composite.NotFoundPattern {
		r.unmatchedCount.Add(ctx, 1, baseAttrs)
	}
	if err != nil {
		r.dispatchErrors.Add(ctx, 1, opt)
	}
}

// statusClass buckets an HTTP status code into 1xx..5xx.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
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
	_ composite.ObservabilityRecorder = (*Recorder)(nil)
	_ composite.ResponseInfo          = (*responseWriter)(nil)
)
