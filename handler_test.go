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
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispatch runs one request through h and returns the recorder and error.
func dispatch(t *testing.T, h *CompositeHandler, path string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return w, h.Handle(w, req)
}

func TestHandler_DispatchByPrefix(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/a", textHandler("H1"))
	h.Register("/b", textHandler("H2"))

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"nested path under first prefix", "/a/x", http.StatusOK, "H1"},
		{"exact prefix match", "/b", http.StatusOK, "H2"},
		{"no matching prefix", "/c", http.StatusNotFound, ""},
		{"prefix match ignores segment boundaries", "/ab", http.StatusOK, "H1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := dispatch(t, h, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestHandler_FirstMatchWinsNotLongestMatch(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/", textHandler("root"))
	h.Register("/special", textHandler("special"))

	// "/" is a prefix of everything, so the longer "/special" entry is
	// unreachable: first-registered-match wins, never longest-match.
	w, err := dispatch(t, h, "/special/page")
	require.NoError(t, err)
	assert.Equal(t, "root", w.Body.String())
}

func TestHandler_DuplicatePrefixShadowing(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/svc", textHandler("first"))
	h.Register("/svc", textHandler("second"))

	w, err := dispatch(t, h, "/svc/op")
	require.NoError(t, err)
	assert.Equal(t, "first", w.Body.String())

	// Removing the shadowed duplicate must not change routing
	require.True(t, h.Remove("/svc"))
	// Remove deletes the first entry, so the former duplicate surfaces
	w, err = dispatch(t, h, "/svc/op")
	require.NoError(t, err)
	assert.Equal(t, "second", w.Body.String())
}

func TestHandler_ReorderingChangesDispatch(t *testing.T) {
	t.Parallel()

	build := func(prefixes ...string) *CompositeHandler {
		h := MustNewHandler()
		for _, p := range prefixes {
			h.Register(p, textHandler(p))
		}
		return h
	}

	w, err := dispatch(t, build("/a", "/a/b"), "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "/a", w.Body.String())

	w, err = dispatch(t, build("/a/b", "/a"), "/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", w.Body.String())
}

func TestHandler_AtMostOneChildRuns(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counting := func(body string) Handler {
		return HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			calls.Add(1)
			w.Write([]byte(body))
			return nil
		})
	}

	h := MustNewHandler()
	h.Register("/x", counting("one"))
	h.Register("/x/y", counting("two"))
	h.Register("/", counting("three"))

	_, err := dispatch(t, h, "/x/y/z")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "exactly one child handler may run per request")
}

func TestHandler_ChildErrorPropagatesVerbatim(t *testing.T) {
	t.Parallel()

	errChild := errors.New("child exploded")
	h := MustNewHandler()
	h.Register("/fail", HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return errChild
	}))

	_, err := dispatch(t, h, "/fail/op")
	assert.Equal(t, errChild, err, "the child's error must pass through unmodified, not wrapped")
}

func TestHandler_DefaultNotFound(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/known", textHandler("known"))

	w, err := dispatch(t, h, "/unknown")
	require.NoError(t, err, "a miss is defined behavior, not an error")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String(), "canonical not-found has an empty body")
}

func TestHandler_CustomNotFound(t *testing.T) {
	t.Parallel()

	h := MustNewHandler(WithNotFound(HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		http.Error(w, "no such service", http.StatusNotFound)
		return nil
	})))

	w, err := dispatch(t, h, "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no such service\n", w.Body.String())
}

func TestHandler_NotFoundNeverConsultsChildren(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	h := MustNewHandler()
	h.Register("/a", HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		calls.Add(1)
		return nil
	}))

	_, err := dispatch(t, h, "/z")
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
}

func TestHandler_NilChildHandler(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/broken", nil)

	_, err := dispatch(t, h, "/broken/op")
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestHandler_ServeHTTPRendersChildError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := MustNewHandler(WithLogger(logger))
	h.Register("/fail", HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("backend timeout")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "backend timeout")
	assert.Contains(t, buf.String(), "/fail")
}

func TestHandler_ServeHTTPDoesNotOverwriteStartedResponse(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/partial", HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("partial"))
		return errors.New("failed after writing")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusAccepted, w.Code, "an already-started response must not be clobbered with a 500")
	assert.Equal(t, "partial", w.Body.String())
}

func TestHandler_CustomErrorHandler(t *testing.T) {
	t.Parallel()

	h := MustNewHandler(WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		http.Error(w, "teapot instead", http.StatusTeapot)
	}))
	h.Register("/fail", HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestHandler_String(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("/base/path/1", textHandler("1"))
	h.Register("/base/path/2", textHandler("2"))

	assert.Equal(t, "CompositeHandler accepting base paths: [/base/path/1 /base/path/2]", h.String())
}

func TestHandler_EmptyPrefixMatchesEverything(t *testing.T) {
	t.Parallel()

	h := MustNewHandler()
	h.Register("", textHandler("catch-all"))
	h.Register("/specific", textHandler("specific"))

	for _, path := range []string{"/", "/specific", "/anything/else"} {
		w, err := dispatch(t, h, path)
		require.NoError(t, err)
		assert.Equal(t, "catch-all", w.Body.String())
	}
}
