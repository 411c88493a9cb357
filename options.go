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
	"io"
	"log/slog"
	"net/http"
	"time"
)

// noopLogger is a singleton no-op logger used when no logger is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// Option defines functional options for composite configuration.
// Options passed to [New] are inherited by every [CompositeHandler] the
// factory builds; the same options can be passed to [NewHandler] when a
// handler is assembled directly.
type Option func(*config)

// config holds the shared factory/handler configuration.
type config struct {
	logger         *slog.Logger
	notFound       Handler
	errorHandler   ErrorHandler
	observability  ObservabilityRecorder
	enableH2C      bool
	serverTimeouts *serverTimeouts

	// Collected during option application, reported by New.
	validationErrors []error
}

// serverTimeouts holds HTTP server timeout configuration for Serve.
type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

// defaultServerTimeouts returns default timeout configuration.
func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}

// newConfig creates a config with defaults and applies the options.
func newConfig(opts []Option) *config {
	cfg := &config{
		logger:         noopLogger,
		serverTimeouts: defaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.notFound == nil {
		cfg.notFound = NotFound()
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = DefaultErrorHandler(cfg.logger)
	}
	return cfg
}

// validate checks the configuration assembled by the options.
func (c *config) validate() error {
	if len(c.validationErrors) > 0 {
		return c.validationErrors[0]
	}
	return nil
}

// WithLogger sets the logger used for diagnostics (build failures,
// dispatch errors rendered by the default error handler). Without this
// option the composite is silent.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	f := composite.MustNew(composite.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotFound sets the handler invoked when no registered prefix
// matches the request path. The default writes a bare 404 with an
// empty body.
//
// Example:
//
//	f := composite.MustNew(composite.WithNotFound(
//	    composite.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
//	        http.Error(w, "no such service", http.StatusNotFound)
//	        return nil
//	    }),
//	))
func WithNotFound(h Handler) Option {
	return func(c *config) {
		if h != nil {
			c.notFound = h
		}
	}
}

// WithErrorHandler sets the handler that renders child-handler errors
// when the composite is serving through its [http.Handler] adapter.
// It does not affect [CompositeHandler.Handle], which always returns
// the child's error verbatim.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithObservability attaches an [ObservabilityRecorder] whose hooks run
// around composite builds and request dispatch. See the metrics and
// tracing subpackages for implementations.
//
// Example:
//
//	rec := metrics.MustNew(metrics.WithServiceName("gateway"))
//	f := composite.MustNew(composite.WithObservability(rec))
func WithObservability(rec ObservabilityRecorder) Option {
	return func(c *config) {
		if rec == nil {
			c.validationErrors = append(c.validationErrors, ErrNilRecorder)
			return
		}
		c.observability = rec
	}
}

// WithH2C enables HTTP/2 Cleartext support for [CompositeHandler.Serve].
//
// ⚠️ SECURITY WARNING: Only use in development or behind a trusted load
// balancer. DO NOT enable on public-facing servers without TLS.
func WithH2C(enable bool) Option {
	return func(c *config) {
		c.enableH2C = enable
	}
}

// WithServerTimeouts configures HTTP server timeouts for
// [CompositeHandler.Serve]. These are critical for preventing slowloris
// attacks and resource exhaustion.
//
// Defaults (if not set):
//
//	ReadHeaderTimeout: 5s  - Time to read request headers
//	ReadTimeout:       15s - Time to read entire request
//	WriteTimeout:      30s - Time to write response
//	IdleTimeout:       60s - Keep-alive idle time
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(c *config) {
		if readHeader <= 0 || read <= 0 || write <= 0 || idle <= 0 {
			c.validationErrors = append(c.validationErrors, ErrServerTimeoutInvalid)
			return
		}
		c.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

// NotFound returns the canonical not-found handler: status 404, empty
// body. It is the composite's default response when no prefix matches.
func NotFound() Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNotFound)
		return nil
	})
}

// DefaultErrorHandler returns an [ErrorHandler] that logs the error and,
// if the response has not been started, writes a plain 500. If logger is
// nil the no-op logger is used.
func DefaultErrorHandler(logger *slog.Logger) ErrorHandler {
	if logger == nil {
		logger = noopLogger
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("composite handler error",
			"path", r.URL.Path,
			"method", r.Method,
			"error", err,
		)
		if rw, ok := w.(interface{ Written() bool }); ok && rw.Written() {
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
