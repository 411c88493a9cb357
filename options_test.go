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
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidServerTimeouts(t *testing.T) {
	t.Parallel()

	_, err := New(WithServerTimeouts(0, time.Second, time.Second, time.Second))
	assert.ErrorIs(t, err, ErrServerTimeoutInvalid)

	_, err = New(WithServerTimeouts(time.Second, time.Second, -time.Second, time.Second))
	assert.ErrorIs(t, err, ErrServerTimeoutInvalid)
}

func TestNew_NilObservabilityRecorder(t *testing.T) {
	t.Parallel()

	_, err := New(WithObservability(nil))
	assert.ErrorIs(t, err, ErrNilRecorder)

	_, err = NewHandler(WithObservability(nil))
	assert.ErrorIs(t, err, ErrNilRecorder)
}

func TestMustNew_PanicsOnInvalidOption(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNew(WithServerTimeouts(0, 0, 0, 0))
	})
	assert.Panics(t, func() {
		MustNewHandler(WithServerTimeouts(0, 0, 0, 0))
	})
}

func TestWithLogger_NilKeepsNoop(t *testing.T) {
	t.Parallel()

	f, err := New(WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, NoopLogger(), f.cfg.logger)
}

func TestNoopLogger_Singleton(t *testing.T) {
	t.Parallel()

	assert.Same(t, NoopLogger(), NoopLogger())
}

func TestDefaultErrorHandler_WritesPlain500(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	eh := DefaultErrorHandler(logger)

	w := httptest.NewRecorder()
	eh(w, httptest.NewRequest(http.MethodGet, "/x", nil), assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "composite handler error")
}

func TestDefaultErrorHandler_SkipsStartedResponse(t *testing.T) {
	t.Parallel()

	eh := DefaultErrorHandler(nil)

	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}
	rw.WriteHeader(http.StatusNoContent)

	eh(rw, httptest.NewRequest(http.MethodGet, "/x", nil), assert.AnError)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNotFound_CanonicalResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, NotFound().Handle(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
}
