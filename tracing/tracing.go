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
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export spans).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event represents an internal operational event from the tracing package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events from the tracing
// package.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to the
// provided slog.Logger. If logger is nil, returns a no-op handler.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {} // no-op
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

const (
	// DefaultServiceName is the service name used when none is provided.
	DefaultServiceName = "rivaas-service"

	// DefaultServiceVersion is the service version used when none is provided.
	DefaultServiceVersion = "1.0.0"

	// DefaultSampleRate samples every request.
	DefaultSampleRate = 1.0
)

// Provider represents the available tracing providers.
type Provider string

const (
	// NoopProvider creates spans but exports nothing (default).
	NoopProvider Provider = "noop"

	// StdoutProvider exports spans to stdout (development/testing).
	StdoutProvider Provider = "stdout"

	// OTLPProvider exports spans via OTLP gRPC.
	OTLPProvider Provider = "otlp"

	// OTLPHTTPProvider exports spans via OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// Tracer holds tracing configuration and the active tracer provider.
// It implements composite.ObservabilityRecorder; attach it with
// composite.WithObservability.
//
// Configure Tracer before serving; the hook methods are safe for
// concurrent use once Start has returned.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler

	excludePaths map[string]bool

	validationErrors []error

	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
	sampleRate     float64

	provider             Provider
	providerSetCount     int
	providerDeferred     bool
	customTracerProvider bool
	registerGlobal       bool
}

// New creates a new [Tracer] with the given options.
//
// Noop and stdout providers are fully initialized on return. OTLP
// providers open network connections and defer initialization to
// [Tracer.Start]; until then spans are created against a non-exporting
// provider.
//
// For a version that panics on error, use [MustNew].
func New(opts ...Option) (*Tracer, error) {
	t := newDefaultTracer()

	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := t.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return t, nil
}

// MustNew creates a new [Tracer] with the given options and panics on
// error. For error handling, use [New] instead.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize tracing: %v", err))
	}
	return t
}

// newDefaultTracer creates a Tracer with default values.
func newDefaultTracer() *Tracer {
	return &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		sampleRate:     DefaultSampleRate,
		provider:       NoopProvider,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		excludePaths: make(map[string]bool),
		eventHandler: func(Event) {},
	}
}

// validate checks that the configuration is valid.
func (t *Tracer) validate() error {
	if len(t.validationErrors) > 0 {
		return fmt.Errorf("configuration errors: %v", t.validationErrors)
	}

	if t.providerSetCount > 1 {
		return fmt.Errorf("conflicting provider options: only one of WithNoop, WithStdout, WithOTLP, or WithOTLPHTTP can be used")
	}

	if t.serviceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if t.serviceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0, got %v", t.sampleRate)
	}

	switch t.provider {
	case NoopProvider, StdoutProvider:
	case OTLPProvider, OTLPHTTPProvider:
		if t.endpoint == "" {
			return fmt.Errorf("OTLP provider requires an endpoint")
		}
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}

	return nil
}

// Start finishes initialization for providers that need a network
// connection (OTLP gRPC and OTLP HTTP). The context is used for
// connection establishment. Start is a no-op for noop and stdout
// providers and is idempotent.
func (t *Tracer) Start(ctx context.Context) error {
	if !t.providerDeferred {
		return nil
	}

	var err error
	switch t.provider {
	case OTLPProvider:
		err = t.initOTLPProvider(ctx)
	case OTLPHTTPProvider:
		err = t.initOTLPHTTPProvider(ctx)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s provider: %w", t.provider, err)
	}

	t.providerDeferred = false
	t.emitInfo("Tracing started", "provider", string(t.provider), "endpoint", t.endpoint)
	return nil
}

// Shutdown flushes pending spans and releases provider resources.
// It is a no-op when a custom tracer provider was supplied.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.customTracerProvider || t.sdkProvider == nil {
		return nil
	}
	if err := t.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down tracer provider: %w", err)
	}
	return nil
}

// Provider returns the current tracing provider.
func (t *Tracer) Provider() Provider {
	return t.provider
}

// emitInfo sends an info event to the configured event handler.
func (t *Tracer) emitInfo(msg string, args ...any) {
	t.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
}

// emitDebug sends a debug event to the configured event handler.
func (t *Tracer) emitDebug(msg string, args ...any) {
	t.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
}
