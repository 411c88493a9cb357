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
	"errors"
	"fmt"
	"sync"
)

// CompositeFactory combines several child factories behind one [Factory]
// surface, each under a base path prefix. Calling [CompositeFactory.Build]
// fans out to every child factory concurrently and assembles the resolved
// handlers into a [CompositeHandler] in registration order.
//
// The entry list is meant to be configured once at startup and treated as
// read-only afterwards; no internal locking guards concurrent mutation
// against concurrent builds.
type CompositeFactory struct {
	cfg     *config
	entries []FactoryEntry
}

// New creates an empty [CompositeFactory] with the given options.
// Returns an error if an option carries an invalid value.
// For a version that panics on error, use [MustNew].
func New(opts ...Option) (*CompositeFactory, error) {
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &CompositeFactory{cfg: cfg}, nil
}

// MustNew creates an empty [CompositeFactory] and panics if an option is
// invalid. For error handling, use [New] instead.
func MustNew(opts ...Option) *CompositeFactory {
	f, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("composite: failed to create factory: %v", err))
	}
	return f
}

// Register appends a (prefix, factory) entry. Prefixes are matched as
// literal string prefixes of the request path, in registration order,
// first match wins. Registering a prefix that is shadowed by an earlier,
// shorter prefix leaves the later entry unreachable; no validation
// rejects this, callers own prefix disjointness and ordering.
//
// An empty prefix matches every path. That is occasionally useful as a
// final catch-all but is logged as a diagnostic because it makes every
// later entry dead configuration.
func (f *CompositeFactory) Register(prefix string, factory Factory) {
	if prefix == "" {
		f.cfg.logger.Warn("registering empty prefix; it matches every request path")
	}
	f.entries = append(f.entries, FactoryEntry{Prefix: prefix, Factory: factory})
}

// Remove deletes the first entry registered under prefix and reports
// whether an entry was removed. Later duplicates stay in place and
// become reachable once their shadowing entry is gone.
func (f *CompositeFactory) Remove(prefix string) bool {
	for i, e := range f.entries {
		if e.Prefix == prefix {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy of the registered entries in registration order.
func (f *CompositeFactory) Entries() []FactoryEntry {
	out := make([]FactoryEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the number of registered entries.
func (f *CompositeFactory) Len() int {
	return len(f.entries)
}

// Prefixes returns the registered base paths in registration order.
func (f *CompositeFactory) Prefixes() []string {
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Prefix
	}
	return out
}

// String renders the accepted base paths for debugging.
func (f *CompositeFactory) String() string {
	return fmt.Sprintf("CompositeFactory accepting base paths: %v", f.Prefixes())
}

// Build invokes every registered child factory and assembles the results
// into a [CompositeHandler] whose entries are in registration order.
//
// All child builds start concurrently; Build waits for every one to
// settle before returning. The operation is all-or-nothing: if any child
// fails, no handler is produced and the aggregate error joins every
// individual failure. Each failure is also logged with its prefix so a
// single broken child is diagnosable inside the aggregate.
//
// ctx is handed to every child factory unchanged (after observability
// enrichment, if configured); cancelling it cancels the still-pending
// child builds. A cancelled build never exposes a partial handler.
func (f *CompositeFactory) Build(ctx context.Context) (*CompositeHandler, error) {
	var state any
	if obs := f.cfg.observability; obs != nil {
		ctx, state = obs.OnBuildStart(ctx)
	}

	entries := f.entries
	built := make([]HandlerEntry, len(entries))
	errs := make([]error, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.Factory == nil {
				errs[i] = fmt.Errorf("build %q: %w", e.Prefix, ErrNilFactory)
				return
			}
			h, err := e.Factory.Build(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("build %q: %w", e.Prefix, err)
				return
			}
			built[i] = HandlerEntry{Prefix: e.Prefix, Handler: h}
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		for i, buildErr := range errs {
			if buildErr != nil {
				f.cfg.logger.Error("child factory build failed",
					"prefix", entries[i].Prefix,
					"error", buildErr,
				)
			}
		}
		if obs := f.cfg.observability; obs != nil {
			obs.OnBuildEnd(ctx, state, err)
		}
		return nil, err
	}

	if obs := f.cfg.observability; obs != nil {
		obs.OnBuildEnd(ctx, state, nil)
	}
	return newHandler(f.cfg, built), nil
}

// AsFactory adapts f to the [Factory] interface so a composite can be
// registered as a child of another composite.
func (f *CompositeFactory) AsFactory() Factory {
	return FactoryFunc(func(ctx context.Context) (Handler, error) {
		h, err := f.Build(ctx)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}
