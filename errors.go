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

import "errors"

var (
	// ErrNilFactory indicates that a registered child factory is nil.
	ErrNilFactory = errors.New("nil child factory")

	// ErrNilHandler indicates that a matched child handler is nil.
	ErrNilHandler = errors.New("nil child handler")

	// ErrServerTimeoutInvalid indicates that a server timeout value must be positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrServerNotStarted indicates that Shutdown was called before Serve.
	ErrServerNotStarted = errors.New("server not started")

	// ErrNilRecorder indicates that a nil observability recorder was supplied.
	ErrNilRecorder = errors.New("observability recorder is nil")
)
