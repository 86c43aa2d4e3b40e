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

// Package unimpl provides a kernel.KernelDebugger that reports fatal
// exceptions through a Context-scoped event sink instead of a real
// debugger transport, mirroring the unimplemented-syscall event
// convention used elsewhere in the sentry.
package unimpl

import (
	"github.com/nocturne-kernel/ksignal/pkg/context"
	"github.com/nocturne-kernel/ksignal/pkg/log"
)

// contextID is this package's type for context.Context.Value keys.
type contextID int

const (
	// CtxEvents is a Context.Value key for an Events sink.
	CtxEvents contextID = iota
)

// Events receives reports of exceptions a connected kernel debugger would
// otherwise intercept, so a host process can log or count them without a
// real debugger attached.
type Events interface {
	EmitFatalSignalEvent(ctx context.Context, pid int32, sig int32)
}

// EmitFatalSignalEvent reports a fatal signal against ctx's registered
// sink, falling back to a warning log line if none is registered.
func EmitFatalSignalEvent(ctx context.Context, pid int32, sig int32) {
	e := ctx.Value(CtxEvents)
	if e == nil {
		log.Warningf("no debugger event sink registered, fatal signal %d on pid %d not reported", sig, pid)
		return
	}
	e.(Events).EmitFatalSignalEvent(ctx, pid, sig)
}

// LogEvents is an Events sink that logs every report through pkg/log,
// usable as a KernelDebugger backend in tests and simple deployments that
// want the forwarding branch exercised without a real debugger transport.
type LogEvents struct{}

// EmitFatalSignalEvent implements Events.
func (LogEvents) EmitFatalSignalEvent(_ context.Context, pid int32, sig int32) {
	log.WithFields(log.Fields{"pid": pid, "signal": sig}).Warningf("fatal signal forwarded to debugger event sink")
}
