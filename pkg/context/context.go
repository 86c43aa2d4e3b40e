// Copyright 2018 The gVisor Authors.
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

// Package context extends the standard context.Context with the handful of
// conventions pkg/sentry relies on: a background context for tests and
// top-level entry points, and the Value-key pattern used by collaborator
// packages (e.g. the unimpl package's CtxEvents) to reach back into the
// kernel without an import cycle.
package context

import "context"

// Context is the context type threaded through Task-scoped operations.
type Context = context.Context

// Background returns a non-cancellable Context, for use by tests and
// top-level callers that have no request-scoped context of their own.
func Background() Context {
	return context.Background()
}

// WithValue is re-exported for collaborator packages that attach
// kernel-provided values (e.g. an unimplemented-event sink) to a Context.
func WithValue(parent Context, key, val any) Context {
	return context.WithValue(parent, key, val)
}
