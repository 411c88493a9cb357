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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// tracerName is the instrumentation scope name for spans created here.
const tracerName = "rivaas.dev/composite/tracing"

// initializeProvider initializes the provider selected by the options.
// OTLP providers are deferred to Start; until then a non-exporting
// provider is installed so span creation and propagation keep working.
func (t *Tracer) initializeProvider() error {
	// A custom tracer provider supersedes the built-in providers
	if t.customTracerProvider {
		if t.tracerProvider == nil {
			return fmt.Errorf("custom tracer provider is nil")
		}
		t.emitDebug("Using custom user-provided tracer provider")
		t.tracer = t.tracerProvider.Tracer(tracerName)
		t.registerGlobalIfRequested()
		return nil
	}

	switch t.provider {
	case NoopProvider:
		return t.initNoopProvider()
	case StdoutProvider:
		return t.initStdoutProvider()
	case OTLPProvider, OTLPHTTPProvider:
		// Network providers initialize in Start(ctx); bridge with a
		// non-exporting provider so early spans are not nil.
		if err := t.initNoopProvider(); err != nil {
			return err
		}
		t.providerDeferred = true
		return nil
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}
}

// initNoopProvider creates a tracer provider with no exporter.
func (t *Tracer) initNoopProvider() error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(t.createResource()),
	)
	t.installProvider(tp)
	return nil
}

// initStdoutProvider initializes the stdout trace exporter.
func (t *Tracer) initStdoutProvider() error {
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(t.createResource()),
		sdktrace.WithSampler(t.sampler()),
	)
	t.installProvider(tp)
	return nil
}

// initOTLPProvider initializes the OTLP gRPC trace exporter.
func (t *Tracer) initOTLPProvider(ctx context.Context) error {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(t.endpoint),
	}
	if t.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(t.createResource()),
		sdktrace.WithSampler(t.sampler()),
	)
	t.installProvider(tp)
	return nil
}

// initOTLPHTTPProvider initializes the OTLP HTTP trace exporter.
func (t *Tracer) initOTLPHTTPProvider(ctx context.Context) error {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.endpoint),
	}
	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(t.createResource()),
		sdktrace.WithSampler(t.sampler()),
	)
	t.installProvider(tp)
	return nil
}

// installProvider records the provider and derives the tracer from it.
func (t *Tracer) installProvider(tp *sdktrace.TracerProvider) {
	t.sdkProvider = tp
	t.tracerProvider = tp
	t.tracer = tp.Tracer(tracerName)
	t.registerGlobalIfRequested()
}

// registerGlobalIfRequested sets the global tracer provider when the
// WithGlobalTracerProvider option was used.
func (t *Tracer) registerGlobalIfRequested() {
	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", string(t.provider))
		otel.SetTracerProvider(t.tracerProvider)
	}
}

// sampler derives the configured sampler. Full sampling short-circuits
// to AlwaysSample to skip the ratio arithmetic.
func (t *Tracer) sampler() sdktrace.Sampler {
	if t.sampleRate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))
}

// createResource builds the OTel resource describing this service.
func (t *Tracer) createResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(t.serviceName),
		semconv.ServiceVersion(t.serviceVersion),
	)
}
