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
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option defines functional options for Tracer configuration.
type Option func(*Tracer)

// WithTracerProvider supplies a custom OpenTelemetry tracer provider.
// The built-in providers are skipped and the caller owns the provider's
// lifecycle; [Tracer.Shutdown] becomes a no-op.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the tracer provider as the global
// OpenTelemetry default via otel.SetTracerProvider.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate sets the fraction of requests to sample, between 0.0
// (none) and 1.0 (all, the default). Sampling is parent-based: requests
// arriving with a sampled trace context stay sampled.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		if rate < 0 || rate > 1 {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("sample rate must be between 0.0 and 1.0, got %v", rate))
			return
		}
		t.sampleRate = rate
	}
}

// WithCustomPropagator replaces the default W3C TraceContext+Baggage
// propagator used to extract trace context from request headers.
func WithCustomPropagator(propagator propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if propagator != nil {
			t.propagator = propagator
		}
	}
}

// WithExcludePaths excludes exact request paths from span creation.
// Trace context extraction still happens for excluded paths so
// downstream calls keep propagating.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithExcludePaths("/health", "/metrics"))
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for _, p := range paths {
			t.excludePaths[p] = true
		}
	}
}

// WithEventHandler sets a custom handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		if handler != nil {
			t.eventHandler = handler
		}
	}
}

// WithLogger routes internal operational events to a slog.Logger.
// Shorthand for WithEventHandler(DefaultEventHandler(logger)).
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		t.eventHandler = DefaultEventHandler(logger)
	}
}

// WithNoop selects the non-exporting provider (the default). Spans are
// created, so context propagation works, but nothing leaves the process.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithStdout selects the stdout provider (development/testing).
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
	}
}

// WithOTLP selects the OTLP gRPC provider exporting to endpoint
// (host:port). Initialization is deferred to [Tracer.Start].
//
// Example:
//
//	tracer := tracing.MustNew(
//	    tracing.WithOTLP("localhost:4317"),
//	    tracing.WithInsecure(),
//	)
func WithOTLP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.endpoint = endpoint
		t.providerSetCount++
	}
}

// WithOTLPHTTP selects the OTLP HTTP provider exporting to endpoint
// (host:port). Initialization is deferred to [Tracer.Start].
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.endpoint = endpoint
		t.providerSetCount++
	}
}

// WithInsecure disables transport security for the OTLP exporters.
// Use only in development or inside a trusted network.
func WithInsecure() Option {
	return func(t *Tracer) {
		t.insecure = true
	}
}
