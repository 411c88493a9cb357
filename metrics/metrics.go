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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultDurationBuckets are histogram boundaries for dispatch and build
// duration in seconds. Covers sub-millisecond to 10 second operations.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export metrics).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event represents an internal operational event from the metrics package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events from the metrics
// package. Implementations can log events, send them to monitoring
// systems, or take custom actions based on event type.
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

// Provider represents the available metrics providers.
type Provider string

const (
	// PrometheusProvider uses the Prometheus exporter (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider uses the OTLP HTTP exporter.
	OTLPProvider Provider = "otlp"
	// StdoutProvider uses the stdout exporter (development/testing).
	StdoutProvider Provider = "stdout"
)

// Recorder holds OpenTelemetry metrics configuration and runtime state
// for composite observability. All methods are safe for concurrent use.
//
// By default this package does NOT set the global OpenTelemetry meter
// provider; use [WithGlobalMeterProvider] for global registration.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	sdkProvider        *sdkmetric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	// Dispatch instruments
	dispatchCount    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	dispatchErrors   metric.Int64Counter
	unmatchedCount   metric.Int64Counter
	activeRequests   metric.Int64UpDownCounter

	// Build instruments
	buildCount    metric.Int64Counter
	buildDuration metric.Float64Histogram
	buildFailures metric.Int64Counter

	durationBuckets []float64

	excludePaths map[string]bool

	validationErrors []error

	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	exportInterval time.Duration

	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue

	provider            Provider
	providerSetCount    int
	customMeterProvider bool
	registerGlobal      bool
}

// New creates a new [Recorder] with the given options.
// Returns an error if the metrics provider fails to initialize.
// For a version that panics on error, use [MustNew].
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew creates a new [Recorder] with the given options and panics if
// the metrics provider fails to initialize. For error handling, use
// [New] instead.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize metrics: %v", err))
	}
	return r
}

// newDefaultRecorder creates a Recorder with default values.
func newDefaultRecorder() *Recorder {
	r := &Recorder{
		serviceName:     "rivaas-service",
		serviceVersion:  "1.0.0",
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		excludePaths:    make(map[string]bool),
		eventHandler:    func(Event) {},
	}
	r.initCommonAttributes()
	return r
}

// initCommonAttributes pre-computes attributes attached to every sample.
func (r *Recorder) initCommonAttributes() {
	r.serviceNameAttr = attribute.String("service.name", r.serviceName)
	r.serviceVersionAttr = attribute.String("service.version", r.serviceVersion)
}

// validate checks that the configuration is valid.
func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return fmt.Errorf("configuration errors: %v", r.validationErrors)
	}

	if r.providerSetCount > 1 {
		return fmt.Errorf("conflicting provider options: only one of WithPrometheus, WithOTLP, or WithStdout can be used")
	}

	if r.serviceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if r.serviceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}

	switch r.provider {
	case PrometheusProvider, StdoutProvider:
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, will use default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}

	return nil
}

// initializeInstruments creates the composite instruments on the meter.
func (r *Recorder) initializeInstruments() error {
	var err error

	r.dispatchCount, err = r.meter.Int64Counter(
		"composite_dispatched_total",
		metric.WithDescription("Total number of requests dispatched to a child handler"),
	)
	if err != nil {
		return fmt.Errorf("failed to create dispatch counter: %w", err)
	}

	r.dispatchDuration, err = r.meter.Float64Histogram(
		"composite_dispatch_duration_seconds",
		metric.WithDescription("Duration of composite dispatch in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create dispatch duration histogram: %w", err)
	}

	r.dispatchErrors, err = r.meter.Int64Counter(
		"composite_dispatch_errors_total",
		metric.WithDescription("Total number of child handler errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create dispatch error counter: %w", err)
	}

	r.unmatchedCount, err = r.meter.Int64Counter(
		"composite_unmatched_total",
		metric.WithDescription("Total number of requests matching no registered prefix"),
	)
	if err != nil {
		return fmt.Errorf("failed to create unmatched counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(
		"composite_requests_active",
		metric.WithDescription("Number of requests currently being dispatched"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active requests gauge: %w", err)
	}

	r.buildCount, err = r.meter.Int64Counter(
		"composite_builds_total",
		metric.WithDescription("Total number of composite build operations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create build counter: %w", err)
	}

	r.buildDuration, err = r.meter.Float64Histogram(
		"composite_build_duration_seconds",
		metric.WithDescription("Duration of composite build fan-out in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create build duration histogram: %w", err)
	}

	r.buildFailures, err = r.meter.Int64Counter(
		"composite_build_failures_total",
		metric.WithDescription("Total number of failed composite build operations"),
	)
	if err != nil {
		return fmt.Errorf("failed to create build failure counter: %w", err)
	}

	return nil
}

// Handler returns the Prometheus metrics [http.Handler].
// Returns an error if not using [PrometheusProvider].
func (r *Recorder) Handler() (http.Handler, error) {
	if r.provider != PrometheusProvider || r.prometheusHandler == nil {
		return nil, fmt.Errorf("handler only available with Prometheus provider, current provider: %s", r.provider)
	}
	return r.prometheusHandler, nil
}

// MustHandler returns the Prometheus metrics handler and panics if it is
// unavailable. For error handling, use [Handler] instead.
func (r *Recorder) MustHandler() http.Handler {
	h, err := r.Handler()
	if err != nil {
		panic(err)
	}
	return h
}

// Provider returns the current metrics provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// Shutdown flushes pending exports and releases provider resources.
// It is a no-op when a custom meter provider was supplied; the owner of
// that provider is responsible for its lifecycle.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.customMeterProvider || r.sdkProvider == nil {
		return nil
	}
	if err := r.sdkProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down meter provider: %w", err)
	}
	return nil
}

// emitWarning sends a warning event to the configured event handler.
func (r *Recorder) emitWarning(msg string, args ...any) {
	r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
}

// emitDebug sends a debug event to the configured event handler.
func (r *Recorder) emitDebug(msg string, args ...any) {
	r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
}
