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
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option defines functional options for Recorder configuration.
type Option func(*Recorder)

// WithMeterProvider supplies a custom OpenTelemetry meter provider.
// The built-in providers (Prometheus, OTLP, stdout) are skipped and the
// caller owns the provider's lifecycle; [Recorder.Shutdown] becomes a
// no-op.
//
// Example:
//
//	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	rec := metrics.MustNew(metrics.WithMeterProvider(provider))
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the recorder's meter provider as the
// global OpenTelemetry default via otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service.name attribute attached to every sample.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
		r.initCommonAttributes()
	}
}

// WithServiceVersion sets the service.version attribute attached to every sample.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
		r.initCommonAttributes()
	}
}

// WithExportInterval sets the export interval for the push-based
// providers (OTLP, stdout). Prometheus is pull-based and ignores this.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		if interval < time.Second {
			r.validationErrors = append(r.validationErrors,
				fmt.Errorf("export interval must be at least 1s, got %v", interval))
			return
		}
		r.exportInterval = interval
	}
}

// WithDurationBuckets sets custom histogram bucket boundaries (in
// seconds) for the dispatch and build duration histograms.
//
// Example:
//
//	// Latency-sensitive gateway: finer sub-100ms resolution
//	rec := metrics.MustNew(metrics.WithDurationBuckets(
//	    0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1,
//	))
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) == 0 {
			r.validationErrors = append(r.validationErrors,
				fmt.Errorf("duration buckets cannot be empty"))
			return
		}
		r.durationBuckets = buckets
	}
}

// WithExcludePaths excludes exact request paths from recording.
// Useful for health checks and the metrics endpoint itself.
//
// Example:
//
//	rec := metrics.MustNew(metrics.WithExcludePaths("/health", "/metrics"))
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		for _, p := range paths {
			r.excludePaths[p] = true
		}
	}
}

// WithEventHandler sets a custom handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		if handler != nil {
			r.eventHandler = handler
		}
	}
}

// WithLogger routes internal operational events to a slog.Logger.
// Shorthand for WithEventHandler(DefaultEventHandler(logger)).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.eventHandler = DefaultEventHandler(logger)
	}
}

// WithPrometheus selects the Prometheus provider (the default). The
// metrics endpoint is exposed via [Recorder.Handler]; mount it on
// whatever mux the caller owns.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP selects the OTLP HTTP provider pushing to endpoint.
// An http:// endpoint disables transport security; https:// keeps it.
//
// Example:
//
//	rec := metrics.MustNew(metrics.WithOTLP("http://localhost:4318"))
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout selects the stdout provider (development/testing).
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}
