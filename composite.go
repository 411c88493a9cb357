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
)

// Handler handles a single HTTP request and writes the response.
// Unlike [http.Handler], a Handler reports failures to its caller instead
// of being forced to render them itself. The composite forwards a matched
// request to exactly one child Handler and returns its error verbatim.
//
// Implementations must be safe for concurrent use; the composite does not
// serialize requests.
type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc adapts an ordinary function to the [Handler] interface.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle calls f(w, r).
func (f HandlerFunc) Handle(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Factory builds a [Handler] for one connection or session.
// The context carries connection/target information supplied by the
// transport layer and doubles as the cancellation signal: a factory
// should abandon its work when ctx is done.
//
// Build may be slow (dialing backends, loading state) and may fail.
type Factory interface {
	Build(ctx context.Context) (Handler, error)
}

// FactoryFunc adapts an ordinary function to the [Factory] interface.
type FactoryFunc func(ctx context.Context) (Handler, error)

// Build calls f(ctx).
func (f FactoryFunc) Build(ctx context.Context) (Handler, error) {
	return f(ctx)
}

// FactoryEntry is one registered (base path, child factory) pair.
type FactoryEntry struct {
	Prefix  string
	Factory Factory
}

// HandlerEntry is one resolved (base path, child handler) pair.
type HandlerEntry struct {
	Prefix  string
	Handler Handler
}

// ErrorHandler renders an error that escaped a [Handler] when the
// composite is serving through its [http.Handler] adapter. It is the
// last line of defense; implementations should check whether a response
// has already been started before writing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Wrap adapts a stock [http.Handler] to the composite's [Handler]
// interface. The wrapped handler never reports an error; whatever it
// writes is the response.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/v2/users", listUsers)
//	f.Register("/v2", composite.StaticFactory(composite.Wrap(mux)))
func Wrap(h http.Handler) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	})
}

// Adapt turns a [Handler] into an [http.Handler], routing any error to
// onError. If onError is nil, [DefaultErrorHandler] is used.
func Adapt(h Handler, onError ErrorHandler) http.Handler {
	if onError == nil {
		onError = DefaultErrorHandler(nil)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.Handle(w, r); err != nil {
			onError(w, r, err)
		}
	})
}

// StaticFactory returns a [Factory] that hands out the same prebuilt
// handler for every connection. Useful for children whose setup is
// cheap or already done.
func StaticFactory(h Handler) Factory {
	return FactoryFunc(func(context.Context) (Handler, error) {
		return h, nil
	})
}
