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
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textHandler returns a handler writing body with status 200.
func textHandler(body string) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, body)
		return nil
	})
}

func TestFactory_BuildPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	f := MustNew()
	f.Register("/c", StaticFactory(textHandler("C")))
	f.Register("/a", StaticFactory(textHandler("A")))
	f.Register("/b", StaticFactory(textHandler("B")))

	h, err := f.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/c", "/a", "/b"}, h.Prefixes(),
		"handler entries must keep the factory's registration order")
}

func TestFactory_BuildFansOutConcurrently(t *testing.T) {
	t.Parallel()

	const children = 4

	// Every child blocks until all children have started. A sequential
	// build would deadlock; the timeout turns that into a failure.
	var started sync.WaitGroup
	started.Add(children)

	f := MustNew()
	for i := range children {
		prefix := fmt.Sprintf("/svc%d", i)
		f.Register(prefix, FactoryFunc(func(ctx context.Context) (Handler, error) {
			started.Done()
			started.Wait()
			return textHandler(prefix), nil
		}))
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.Build(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("build did not complete; child factories were not started concurrently")
	}
}

func TestFactory_BuildIsAllOrNothing(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("backend unavailable")
	var healthyBuilds atomic.Int32

	f := MustNew()
	f.Register("/healthy", FactoryFunc(func(ctx context.Context) (Handler, error) {
		healthyBuilds.Add(1)
		return textHandler("ok"), nil
	}))
	f.Register("/broken", FactoryFunc(func(ctx context.Context) (Handler, error) {
		return nil, errBroken
	}))

	h, err := f.Build(context.Background())
	assert.Nil(t, h, "no handler may be produced on partial failure")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken, "the child's error must be observable in the aggregate")
	assert.Contains(t, err.Error(), `"/broken"`, "the failing prefix should be identifiable")
	assert.Equal(t, int32(1), healthyBuilds.Load(), "healthy children still build; the result is discarded")
}

func TestFactory_BuildNilChildFactory(t *testing.T) {
	t.Parallel()

	f := MustNew()
	f.Register("/ok", StaticFactory(textHandler("ok")))
	f.Register("/nil", nil)

	h, err := f.Build(context.Background())
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrNilFactory)
}

func TestFactory_BuildPropagatesContext(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "conn-42")

	var seen any
	f := MustNew()
	f.Register("/a", FactoryFunc(func(ctx context.Context) (Handler, error) {
		seen = ctx.Value(ctxKey{})
		return textHandler("a"), nil
	}))

	_, err := f.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, "conn-42", seen)
}

func TestFactory_BuildCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	f := MustNew()
	f.Register("/slow", FactoryFunc(func(ctx context.Context) (Handler, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	done := make(chan error, 1)
	go func() {
		_, err := f.Build(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not propagate to the pending child build")
	}
}

func TestFactory_BuildEmpty(t *testing.T) {
	t.Parallel()

	f := MustNew()
	h, err := f.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Zero(t, h.Len())

	// Zero entries: every path is a miss
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	require.NoError(t, h.Handle(w, req))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFactory_ListSurface(t *testing.T) {
	t.Parallel()

	f := MustNew()
	f.Register("/a", StaticFactory(textHandler("a")))
	f.Register("/b", StaticFactory(textHandler("b")))
	f.Register("/a", StaticFactory(textHandler("shadowed")))

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"/a", "/b", "/a"}, f.Prefixes())
	assert.Equal(t, "CompositeFactory accepting base paths: [/a /b /a]", f.String())

	// Remove deletes the first matching entry only
	assert.True(t, f.Remove("/a"))
	assert.Equal(t, []string{"/b", "/a"}, f.Prefixes())
	assert.False(t, f.Remove("/missing"))

	// Entries returns a copy; mutating it must not affect the factory
	entries := f.Entries()
	entries[0].Prefix = "/mutated"
	assert.Equal(t, []string{"/b", "/a"}, f.Prefixes())
}

func TestFactory_AsFactoryNesting(t *testing.T) {
	t.Parallel()

	inner := MustNew()
	inner.Register("/api/v1", StaticFactory(textHandler("v1")))

	outer := MustNew()
	outer.Register("/api", inner.AsFactory())
	outer.Register("/", StaticFactory(textHandler("root")))

	h, err := outer.Build(context.Background())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	require.NoError(t, h.Handle(w, req))
	assert.Equal(t, "v1", w.Body.String())
}

func TestFactory_AsFactoryPropagatesBuildFailure(t *testing.T) {
	t.Parallel()

	errDown := errors.New("down")
	inner := MustNew()
	inner.Register("/x", FactoryFunc(func(ctx context.Context) (Handler, error) {
		return nil, errDown
	}))

	outer := MustNew()
	outer.Register("/nested", inner.AsFactory())

	h, err := outer.Build(context.Background())
	assert.Nil(t, h)
	assert.ErrorIs(t, err, errDown)
}

func TestFactory_IndependentBuilds(t *testing.T) {
	t.Parallel()

	// Each build must produce an independent handler; one session's
	// handler mutation must not leak into another's.
	var builds atomic.Int32
	f := MustNew()
	f.Register("/a", FactoryFunc(func(ctx context.Context) (Handler, error) {
		builds.Add(1)
		return textHandler("a"), nil
	}))

	h1, err := f.Build(context.Background())
	require.NoError(t, err)
	h2, err := f.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
	h1.Register("/extra", textHandler("extra"))
	assert.Equal(t, 2, h1.Len())
	assert.Equal(t, 1, h2.Len())
}
