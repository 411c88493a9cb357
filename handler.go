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
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// CompositeHandler routes each request to the first child handler whose
// base path is a literal prefix of the request path, in registration
// order. Requests matching no prefix get the canonical not-found
// response without any child handler running.
//
// A CompositeHandler is normally produced by [CompositeFactory.Build],
// once per connection or session, and holds no state beyond the resolved
// entry list. The list surface ([CompositeHandler.Register] and friends)
// mirrors the factory's for symmetry and testing; dispatch never mutates
// the list and no locking guards mutation against in-flight requests.
type CompositeHandler struct {
	cfg     *config
	entries []HandlerEntry

	srvMu sync.Mutex
	srv   *http.Server
}

// NewHandler creates an empty [CompositeHandler] with the given options.
// Returns an error if an option carries an invalid value.
// For a version that panics on error, use [MustNewHandler].
//
// Most callers obtain handlers from [CompositeFactory.Build] instead;
// direct construction exists for children that need no per-connection
// setup and for tests.
func NewHandler(opts ...Option) (*CompositeHandler, error) {
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &CompositeHandler{cfg: cfg}, nil
}

// MustNewHandler creates an empty [CompositeHandler] and panics if an
// option is invalid. For error handling, use [NewHandler] instead.
func MustNewHandler(opts ...Option) *CompositeHandler {
	h, err := NewHandler(opts...)
	if err != nil {
		panic(fmt.Sprintf("composite: failed to create handler: %v", err))
	}
	return h
}

// newHandler assembles a handler from already-resolved entries,
// inheriting the factory's configuration.
func newHandler(cfg *config, entries []HandlerEntry) *CompositeHandler {
	return &CompositeHandler{cfg: cfg, entries: entries}
}

// Register appends a (prefix, handler) entry. Matching follows
// registration order, first match wins; see [CompositeFactory.Register]
// for the shadowing rules.
func (h *CompositeHandler) Register(prefix string, child Handler) {
	if prefix == "" {
		h.cfg.logger.Warn("registering empty prefix; it matches every request path")
	}
	h.entries = append(h.entries, HandlerEntry{Prefix: prefix, Handler: child})
}

// Remove deletes the first entry registered under prefix and reports
// whether an entry was removed.
func (h *CompositeHandler) Remove(prefix string) bool {
	for i, e := range h.entries {
		if e.Prefix == prefix {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy of the entries in registration order.
func (h *CompositeHandler) Entries() []HandlerEntry {
	out := make([]HandlerEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *CompositeHandler) Len() int {
	return len(h.entries)
}

// Prefixes returns the base paths in registration order.
func (h *CompositeHandler) Prefixes() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Prefix
	}
	return out
}

// String renders the accepted base paths for debugging.
func (h *CompositeHandler) String() string {
	return fmt.Sprintf("CompositeHandler accepting base paths: %v", h.Prefixes())
}

// Handle dispatches the request to the first matching child handler.
//
// The prefix test is a literal string-prefix check on the raw request
// path: no trailing-slash normalization, no segment awareness ("/ab"
// matches prefix "/a"). The matched child's response and error pass
// through unmodified; the composite neither catches nor translates
// child errors. When no prefix matches, the configured not-found
// handler runs and no child handler is consulted. At most one child
// handler runs per request.
func (h *CompositeHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	var state any

	obs := h.cfg.observability
	if obs != nil {
		var enriched context.Context
		enriched, state = obs.OnRequestStart(ctx, r)
		if enriched != ctx {
			ctx = enriched
			r = r.WithContext(ctx)
		}
		if state != nil {
			w = obs.WrapResponseWriter(w, state)
		}
	}

	for _, e := range h.entries {
		if !strings.HasPrefix(r.URL.Path, e.Prefix) {
			continue
		}
		var err error
		if e.Handler == nil {
			err = fmt.Errorf("dispatch %q: %w", e.Prefix, ErrNilHandler)
		} else {
			err = e.Handler.Handle(w, r)
		}
		if obs != nil && state != nil {
			obs.OnRequestEnd(ctx, state, w, e.Prefix, err)
		}
		return err
	}

	err := h.cfg.notFound.Handle(w, r)
	if obs != nil && state != nil {
		obs.OnRequestEnd(ctx, state, w, NotFoundPattern, err)
	}
	return err
}

// ServeHTTP implements [http.Handler]. It runs [CompositeHandler.Handle]
// and routes a non-nil error to the configured [ErrorHandler]; the
// default logs the error and writes a plain 500 when the child had not
// started the response yet.
func (h *CompositeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := &responseWriter{ResponseWriter: w}
	if err := h.Handle(rw, r); err != nil {
		h.cfg.errorHandler(rw, r, err)
	}
}

// Compile-time checks for the two contracts the composite satisfies.
var (
	_ Handler      = (*CompositeHandler)(nil)
	_ http.Handler = (*CompositeHandler)(nil)
)
