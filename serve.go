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

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Serve starts an HTTP server on addr with the composite as its handler.
// The server is configured with production-safe timeouts (see
// [WithServerTimeouts]) and, when [WithH2C] is enabled, HTTP/2 Cleartext
// support.
//
// Serve shares one handler across all connections. Transports that build
// a fresh handler per connection call [CompositeFactory.Build] themselves
// and plug the result in wherever an [http.Handler] fits.
//
// Example:
//
//	f := composite.MustNew()
//	f.Register("/api", apiFactory)
//	f.Register("/static", composite.StaticFactory(composite.Wrap(fileServer)))
//
//	h, err := f.Build(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(h.Serve(":8080"))
func (h *CompositeHandler) Serve(addr string) error {
	handler := http.Handler(h)

	if h.cfg.enableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
		h.cfg.logger.Warn("H2C enabled; use only in dev or behind a trusted LB")
	}

	srv := h.newServer(addr, handler)
	h.cfg.logger.Info("composite server starting", "addr", addr, "entries", h.Len())
	return srv.ListenAndServe()
}

// ServeTLS starts an HTTPS server on addr with the composite as its
// handler. HTTP/2 is automatically enabled via ALPN.
func (h *CompositeHandler) ServeTLS(addr, certFile, keyFile string) error {
	srv := h.newServer(addr, h)
	h.cfg.logger.Info("composite server starting", "addr", addr, "entries", h.Len(), "tls", true)
	return srv.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully shuts down a server started by Serve or ServeTLS,
// waiting for in-flight requests up to the context deadline. Returns
// [ErrServerNotStarted] if no server is running.
func (h *CompositeHandler) Shutdown(ctx context.Context) error {
	h.srvMu.Lock()
	srv := h.srv
	h.srv = nil
	h.srvMu.Unlock()

	if srv == nil {
		return ErrServerNotStarted
	}
	return srv.Shutdown(ctx)
}

// newServer builds the http.Server with the configured timeouts and
// records it for Shutdown.
func (h *CompositeHandler) newServer(addr string, handler http.Handler) *http.Server {
	timeouts := h.cfg.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	h.srvMu.Lock()
	h.srv = srv
	h.srvMu.Unlock()

	return srv
}
